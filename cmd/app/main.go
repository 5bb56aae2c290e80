package main

import (
	"flag"
	"log"
	"os"

	"SigPipe/internal/di"
	"SigPipe/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", *configPath, err)
	}
	log.Printf("starting: env=%s backend=%s clickhouse=%s/%s",
		cfg.Environment, cfg.Backend.Type, cfg.ClickHouse.Host, cfg.ClickHouse.Database)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
