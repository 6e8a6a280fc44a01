package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Query.DefaultMode == "" {
		cfg.Query.DefaultMode = "list"
	}
	if cfg.Query.MaxResults == 0 {
		cfg.Query.MaxResults = 10
	}
	if cfg.Query.SummarizeTop == 0 {
		cfg.Query.SummarizeTop = 5
	}
	if cfg.Retrieval.BackendTimeoutSeconds == 0 {
		cfg.Retrieval.BackendTimeoutSeconds = 8
	}
	if cfg.Retrieval.MaxConcurrent == 0 {
		cfg.Retrieval.MaxConcurrent = 4
	}
	if cfg.Retrieval.CacheSize == 0 {
		cfg.Retrieval.CacheSize = 512
	}
	if cfg.Retrieval.CacheTTLSeconds == 0 {
		cfg.Retrieval.CacheTTLSeconds = 60
	}
	if len(cfg.Retrieval.Endpoints) == 0 {
		cfg.Retrieval.Endpoints = []EndpointConfig{{ID: "corpus", Type: "memory"}}
	}
	for i := range cfg.Retrieval.Endpoints {
		if cfg.Retrieval.Endpoints[i].ID == "" {
			cfg.Retrieval.Endpoints[i].ID = cfg.Retrieval.Endpoints[i].Type
		}
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 60
	}
	if cfg.RateLimit.Strategy == "" {
		cfg.RateLimit.Strategy = "ip"
	}
}
