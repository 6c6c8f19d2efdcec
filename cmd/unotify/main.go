package main

import (
	"flag"
	"log"

	"upmesh/comm"
	"upmesh/message"
	"upmesh/transport"
	"upmesh/uri"
)

// Round-trips a notification over the in-process transport: listen on a
// resource topic, notify it, stop listening.
func main() {
	authority := flag.String("authority", "my-vehicle", "authority name for this entity")
	resource := flag.Uint("resource", 0xD100, "resource id to notify on")
	text := flag.String("text", "hello", "notification text")
	flag.Parse()

	provider, err := uri.NewStaticProvider(*authority, 0xA34B, 0x01)
	if err != nil {
		log.Fatal(err)
	}
	tr := transport.NewLocalTransport()
	defer tr.Close()
	notifier := comm.NewSimpleNotifier(tr, provider)

	topic := provider.ResourceURI(uint32(*resource))
	listener := transport.ListenerFunc(func(msg *message.UMessage) {
		log.Printf("notification on %s: %q", msg.Source, msg.ExtractText())
	})
	if err := notifier.StartListening(topic, listener); err != nil {
		log.Fatalf("start listening: %v", err)
	}

	if err := notifier.Notify(uint32(*resource), provider.SourceURI(), message.PayloadFromString(*text)); err != nil {
		log.Fatalf("notify: %v", err)
	}

	if err := notifier.StopListening(topic, listener); err != nil {
		log.Fatalf("stop listening: %v", err)
	}
}
