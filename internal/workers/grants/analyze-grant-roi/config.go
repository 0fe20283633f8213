// internal/workers/grants/analyze-grant-roi/config.go
package analyzegrantroi

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
