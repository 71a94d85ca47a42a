// ff-tap subscribes to the flow stream and prints per-batch label
// counts, for inspecting a running engine without touching storage.
package main

import (
	"FlowForge/internal/config"
	"FlowForge/internal/model"
	"FlowForge/internal/stream"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
)

func main() {
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sub, err := stream.NewSubscriber(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	if err := sub.Start(printBatch); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down.")
}

func printBatch(flows []model.FlowRecord) {
	counts := make(map[model.Label]int)
	for i := range flows {
		counts[flows[i].Label]++
	}

	labels := make([]model.Label, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s=%d", label, counts[label]))
	}
	log.Printf("Batch of %d flows: %s", len(flows), strings.Join(parts, " "))
}
