// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files, environment variables prefixed with
// PRACTICE_ and an optional .env file. It covers server transport, the
// remote judge client, practice session rules, the AI evaluator, session
// storage and logging.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Judge: %s\n", cfg.Judge.BaseURL)
package config
