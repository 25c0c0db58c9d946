package main

import (
	"context"
	"flag"
	"log"

	"github.com/Solve-Wars/arena-bot/app"
	"github.com/Solve-Wars/arena-bot/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
