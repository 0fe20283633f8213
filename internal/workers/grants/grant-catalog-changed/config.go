// internal/workers/grants/grant-catalog-changed/config.go
package grantcatalogchanged

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
