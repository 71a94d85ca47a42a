package main

import (
	"FlowForge/internal/config"
	"FlowForge/internal/query"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The summary endpoints need flow storage; the generation and
	// session endpoints work without it.
	var querier query.Querier
	if cfg.ClickHouse.Enabled {
		querier, err = query.NewClickHouseQuerier(cfg.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to create querier: %v", err)
		}
	} else {
		log.Println("ClickHouse disabled; /api/v1/flows endpoints will return 503.")
	}

	apiHandler, err := NewAPIHandler(cfg, querier)
	if err != nil {
		log.Fatalf("Failed to create API handler: %v", err)
	}

	// Initialize router
	r := mux.NewRouter()

	// Define API routes
	r.HandleFunc("/api/v1/generate", apiHandler.generateHandler).Methods("POST")
	r.HandleFunc("/api/v1/session/start", apiHandler.sessionStartHandler).Methods("POST")
	r.HandleFunc("/api/v1/session/stop", apiHandler.sessionStopHandler).Methods("POST")
	r.HandleFunc("/api/v1/session/tick", apiHandler.sessionTickHandler).Methods("POST")
	r.HandleFunc("/api/v1/session/attack/start", apiHandler.attackStartHandler).Methods("POST")
	r.HandleFunc("/api/v1/session/attack/stop", apiHandler.attackStopHandler).Methods("POST")
	r.HandleFunc("/api/v1/session/status", apiHandler.sessionStatusHandler).Methods("GET")
	r.HandleFunc("/api/v1/flows/summary", apiHandler.flowSummaryHandler).Methods("GET")
	r.HandleFunc("/api/v1/flows/top-sources", apiHandler.topSourcesHandler).Methods("GET")
	r.HandleFunc("/api/v1/live", apiHandler.liveHandler).Methods("GET")

	// Start HTTP server
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}
