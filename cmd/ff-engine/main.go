package main

import (
	"FlowForge/internal/config"
	"FlowForge/internal/engine/manager"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	log.Println("Starting ff-engine...")

	// 1. Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Wire the generation pipeline
	mgr, err := manager.NewManager(cfg)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 3. Start generating
	mgr.Start()

	// 4. Wait for a shutdown signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	log.Println("Shutdown signal received, stopping manager...")
	mgr.Stop()
	log.Println("Shutdown complete.")
}
