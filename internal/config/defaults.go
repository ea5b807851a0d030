package config

// DefaultMessagesURL is the public messages API the service reads from when
// nothing else is configured.
const DefaultMessagesURL = "https://november7-730026606190.europe-west1.run.app/messages"

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 60,
			RateLimitPerSecond:  10,
			RateLimitBurst:      20,
		},
		Source: SourceConfig{
			URL:            DefaultMessagesURL,
			TimeoutSeconds: 10,
			MaxRetries:     3,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}
