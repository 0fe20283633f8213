// internal/workers/grants/score-and-rank-grants/config.go
package scoreandrankgrants

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
