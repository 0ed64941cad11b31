// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for radixkv-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Engine EngineSection `koanf:"engine"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading one command once started.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// IdleTimeout bounds quiet time between commands.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// SubscriberQueue is the outbound queue depth per pub/sub
	// subscriber; a subscriber that falls this far behind is dropped.
	SubscriberQueue int `koanf:"subscriber_queue"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// EngineSection tunes the keyspace clock and expiration sweeps.
type EngineSection struct {
	// TickInterval is the cached-clock update period.
	TickInterval time.Duration `koanf:"tick_interval"`

	// SweepSampleSize is the number of tagged slots sampled per
	// eviction round.
	SweepSampleSize int `koanf:"sweep_sample_size"`
	// SweepThreshold is the expired-per-round count that triggers
	// another round.
	SweepThreshold int `koanf:"sweep_threshold"`
	// SweepMaxRounds caps one eviction cycle.
	SweepMaxRounds int `koanf:"sweep_max_rounds"`
	// PressureSweepsPerSec budgets extra sweeps under write load.
	PressureSweepsPerSec float64 `koanf:"pressure_sweeps_per_sec"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
