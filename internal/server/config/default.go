package config

import "time"

// Default configuration values.
const (
	DefaultRedisAddr   = "127.0.0.1:6379"
	DefaultMetricsAddr = "127.0.0.1:9121"

	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultSubscriberQueue = 256

	DefaultTickInterval    = 100 * time.Millisecond
	DefaultSweepSampleSize = 20
	DefaultSweepThreshold  = 5 // 25% of the sample
	DefaultSweepMaxRounds  = 16
	DefaultPressureSweeps  = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:            DefaultRedisAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				IdleTimeout:     DefaultIdleTimeout,
				SubscriberQueue: DefaultSubscriberQueue,
			},
			Metrics: MetricsConfig{
				Enabled: false,
				Addr:    DefaultMetricsAddr,
			},
		},
		Engine: EngineSection{
			TickInterval:         DefaultTickInterval,
			SweepSampleSize:      DefaultSweepSampleSize,
			SweepThreshold:       DefaultSweepThreshold,
			SweepMaxRounds:       DefaultSweepMaxRounds,
			PressureSweepsPerSec: DefaultPressureSweeps,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
