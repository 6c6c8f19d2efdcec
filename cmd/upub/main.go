package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"upmesh/comm"
	"upmesh/message"
	"upmesh/transport/p2pnet"
	"upmesh/uri"
)

func main() {
	authority := flag.String("authority", "my-vehicle", "authority name for this entity")
	entity := flag.Uint("entity", 0xA34B, "entity id")
	version := flag.Uint("version", 0x01, "entity version")
	resource := flag.Uint("resource", 0x8001, "resource id to publish on")
	count := flag.Int("count", 5, "number of messages to publish")
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

	publisher := comm.NewSimplePublisher(tr, provider)
	topic := provider.ResourceURI(uint32(*resource))
	log.Printf("publishing on %s", topic)
	for i := 1; i <= *count; i++ {
		text := fmt.Sprintf("Message #%d", i)
		if err := publisher.Publish(uint32(*resource), message.PayloadFromString(text)); err != nil {
			log.Fatalf("publish: %v", err)
		}
		log.Printf("published %q", text)
		time.Sleep(time.Second)
	}
}
