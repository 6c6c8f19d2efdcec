package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"upmesh/message"
	"upmesh/transport"
	"upmesh/transport/p2pnet"
	"upmesh/uri"
)

func main() {
	authority := flag.String("authority", "my-vehicle", "authority name of the publishing entity")
	entity := flag.Uint("entity", 0xA34B, "entity id")
	version := flag.Uint("version", 0x01, "entity version")
	resource := flag.Uint("resource", 0x8001, "resource id to listen on")
	flag.Parse()

	provider, err := uri.NewStaticProvider(*authority, uint32(*entity), uint8(*version))
	if err != nil {
		log.Fatal(err)
	}
	tr, err := p2pnet.NewBuilder(*authority).Build(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	defer tr.Close()

	topic := provider.ResourceURI(uint32(*resource))
	handle, err := tr.RegisterListener(topic, transport.ListenerFunc(func(msg *message.UMessage) {
		if text := msg.ExtractText(); text != "" {
			log.Printf("received: %s", text)
		} else {
			log.Printf("received %d payload bytes", payloadLen(msg))
		}
	}))
	if err != nil {
		log.Fatalf("register listener: %v", err)
	}
	log.Printf("listening on %s, ctrl-c to stop", topic)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if err := tr.UnregisterListener(handle); err != nil {
		log.Printf("unregister listener: %v", err)
	}
}

func payloadLen(msg *message.UMessage) int {
	if msg.Payload == nil {
		return 0
	}
	return len(msg.Payload.Bytes())
}
