package main

import (
	"log"

	"github.com/coro-biz/journey-coach/app"
	"github.com/coro-biz/journey-coach/config"
)

func main() {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.New(cfg).Run()
}
