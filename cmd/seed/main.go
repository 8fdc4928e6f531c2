package main

import (
	"context"
	"log"

	"debatearena/internal/config"
	"debatearena/internal/topics"
)

var starterTopics = []string{
	"Remote work is better than office work",
	"Social media does more harm than good",
	"Homework should be banned in primary schools",
	"Space exploration is worth the cost",
	"Artificial intelligence will create more jobs than it destroys",
	"Cities should ban cars from their centers",
	"Video games are a form of art",
	"A four-day work week should be the standard",
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, err := topics.New(ctx, cfg)
	if err != nil {
		log.Fatalf("open topic store (%s) failed: %v", cfg.TopicStore, err)
	}
	defer store.Close()

	var all []string
	for _, topic := range starterTopics {
		all, err = store.Add(ctx, topic)
		if err != nil {
			log.Fatalf("seed topic %q failed: %v", topic, err)
		}
	}

	log.Printf("seed completed: %d topics in %s store", len(all), cfg.TopicStore)
}
