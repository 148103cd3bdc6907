package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from the environment. Fields declare their variable and
// default with `env` tags:
//
//	type Config struct {
//	    Port   int    `env:"HTTP_PORT" envDefault:"8080"`
//	    APIKey string `env:"TYPESENSE_API_KEY,required"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
