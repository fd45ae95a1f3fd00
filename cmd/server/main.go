package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/TxGate/internal/infrastructure/config"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	storageBackend := flag.String("storage", "", "Storage backend: file, redis or memory (overrides STORAGE_BACKEND)")
	analysisEndpoint := flag.String("analysis", "", "Analysis backend endpoint (overrides ANALYSIS_ENDPOINT)")
	dev := flag.Bool("dev", false, "Development mode: console logging, debug router")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *storageBackend != "" {
		cfg.Storage.Backend = *storageBackend
	}
	if *analysisEndpoint != "" {
		cfg.Analysis.Endpoint = *analysisEndpoint
	}
	if *dev {
		cfg.Logging.Development = true
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("server error: %v", err)
	}
}
