// internal/workers/grants/grant-counts/config.go
package grantcounts

import "time"

type Config struct {
	Timeout time.Duration
	// MaxParallel bounds concurrent count lookups per job.
	MaxParallel int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		MaxParallel: 8,
	}
}
