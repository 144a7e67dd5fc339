package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"cuadrilla/internal/config"
	"cuadrilla/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("cuadrillad: %v", err)
	}
}
