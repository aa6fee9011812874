package main

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TESTER_URL is the websocket endpoint of the chat server
	URL  string `envconfig:"TESTER_URL" default:"ws://localhost:8080/ws"`
	User string `envconfig:"TESTER_USER" default:"Anonymous"`
	// TESTER_COLOURS enables colorized output for better readability
	Colours bool `envconfig:"TESTER_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
