package main

import (
	"github.com/dmitrymomot/waypoint/core/router"
	"github.com/dmitrymomot/waypoint/core/server"
)

// Config is the demo process configuration, loaded from the environment.
type Config struct {
	AppName     string `env:"APP_NAME" envDefault:"waypoint"`
	Development bool   `env:"APP_DEVELOPMENT" envDefault:"true"`

	RateLimit float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	Router router.Config
	Server server.Config
}
