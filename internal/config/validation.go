package config

import "fmt"

// Validate checks cross-field constraints that ApplyDefaults cannot repair.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}
	switch cfg.Query.DefaultMode {
	case "list", "summarize", "generate":
	default:
		return fmt.Errorf("unknown default mode %q", cfg.Query.DefaultMode)
	}
	writeCount := 0
	for _, ep := range cfg.Retrieval.Endpoints {
		switch ep.Type {
		case "memory", "bleve", "sqlite":
		default:
			return fmt.Errorf("endpoint %q: unknown type %q", ep.ID, ep.Type)
		}
		if ep.Type != "memory" && ep.Path == "" {
			return fmt.Errorf("endpoint %q: type %q requires a path", ep.ID, ep.Type)
		}
		if ep.Write {
			writeCount++
		}
	}
	if writeCount > 1 {
		return fmt.Errorf("at most one endpoint may be marked write, got %d", writeCount)
	}
	switch cfg.LLM.Provider {
	case "", "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %d", cfg.RateLimit.WindowSeconds)
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate limit max requests must be positive, got %d", cfg.RateLimit.MaxRequests)
	}
	switch cfg.RateLimit.Strategy {
	case "ip", "client", "both":
	default:
		return fmt.Errorf("unknown rate limit strategy %q", cfg.RateLimit.Strategy)
	}
	return nil
}
