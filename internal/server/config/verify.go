package config

import "fmt"

// Verify rejects configurations the server cannot run with.
func Verify(cfg *ServerConfig) error {
	if cfg.Server.Redis.Addr == "" {
		return fmt.Errorf("server.redis.addr must not be empty")
	}
	if cfg.Server.Metrics.Enabled && cfg.Server.Metrics.Addr == "" {
		return fmt.Errorf("server.metrics.addr must not be empty when metrics are enabled")
	}
	if cfg.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive")
	}
	if cfg.Engine.SweepSampleSize <= 0 {
		return fmt.Errorf("engine.sweep_sample_size must be positive")
	}
	if cfg.Engine.SweepThreshold <= 0 || cfg.Engine.SweepThreshold > cfg.Engine.SweepSampleSize {
		return fmt.Errorf("engine.sweep_threshold must be in 1..sweep_sample_size")
	}
	if cfg.Engine.SweepMaxRounds <= 0 {
		return fmt.Errorf("engine.sweep_max_rounds must be positive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not a valid level", cfg.Log.Level)
	}
	return nil
}
