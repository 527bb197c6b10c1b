package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/arxivmind/data/db/papers.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/arxivmind/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/arxivmind/data/indices/vectors.bin"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 8191
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Arxiv.BaseURL == "" {
		cfg.Arxiv.BaseURL = "https://export.arxiv.org/api/query"
	}
	if cfg.Arxiv.RequestInterval == 0 {
		cfg.Arxiv.RequestInterval = 3.0
	}
	if cfg.Arxiv.MaxResults == 0 {
		cfg.Arxiv.MaxResults = 10
	}
	if cfg.Analysis.Model == "" {
		cfg.Analysis.Model = "gpt-4o-mini"
	}
	if cfg.Analysis.MaxTokens == 0 {
		cfg.Analysis.MaxTokens = 1500
	}
	if cfg.Analysis.Aspects == nil {
		cfg.Analysis.Aspects = []string{"methodology", "results", "contributions"}
	}
	if cfg.Analysis.MaxContentChars == 0 {
		cfg.Analysis.MaxContentChars = 12000
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.KeywordWeight == 0 {
		cfg.Search.KeywordWeight = 0.4
	}
	if cfg.Search.SemanticWeight == 0 {
		cfg.Search.SemanticWeight = 0.6
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 5.0
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".xlsx", ".txt", ".md"}
	}
}
