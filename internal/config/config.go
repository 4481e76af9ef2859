// Package config resolves the recovery server options from
// command-line flags, environment variables, and an optional JSON
// file. Precedence: environment over file over flags.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the selfcare server configuration.
type Options struct {
	// Port is the listen address for the recovery API (host:port).
	Port string

	// DatabaseDSN is the PostgreSQL connection string.
	DatabaseDSN string

	// TokenTTLMinutes bounds the lifetime of issued recovery tokens.
	TokenTTLMinutes int

	// Config is the path to the JSON config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init registers the flags and their defaults.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "listen address for the recovery API (host:port)")
	flag.StringVar(&options.DatabaseDSN, "d", "", "PostgreSQL DSN")
	flag.IntVar(&options.TokenTTLMinutes, "t", 10, "recovery token TTL in minutes")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse resolves the configuration: flags first, then the JSON file
// when present, then environment overrides. It returns the resolved
// Options.
func Parse() *Options {
	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	return options
}
