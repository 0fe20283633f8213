// internal/workers/grants/diagnose-profile/config.go
package diagnoseprofile

import "time"

type Config struct {
	Timeout time.Duration
	// IncludeRecommendations is the default when the job does not say.
	IncludeRecommendations bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:                10 * time.Second,
		IncludeRecommendations: true,
	}
}
