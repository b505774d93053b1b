package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/finsight/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/finsight/data/indices/bleve"
	}
	if cfg.Storage.ChunkStore == "" {
		cfg.Storage.ChunkStore = "memory"
	}
	if cfg.LLM.URL == "" {
		cfg.LLM.URL = "http://localhost:11434/api/generate"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3.1"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.Embedding.URL == "" {
		cfg.Embedding.URL = "http://localhost:11434/api/embeddings"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Chunking.ParentSize == 0 {
		cfg.Chunking.ParentSize = 1500
	}
	if cfg.Chunking.ParentOverlap == 0 {
		cfg.Chunking.ParentOverlap = 200
	}
	if cfg.Chunking.ChildSize == 0 {
		cfg.Chunking.ChildSize = 400
	}
	if cfg.Chunking.ChildOverlap == 0 {
		cfg.Chunking.ChildOverlap = 50
	}
	if cfg.Retrieval.DefaultMaxResults == 0 {
		cfg.Retrieval.DefaultMaxResults = 5
	}
	if cfg.Retrieval.MaxResults == 0 {
		cfg.Retrieval.MaxResults = 50
	}
	if cfg.Retrieval.OverfetchFactor == 0 {
		cfg.Retrieval.OverfetchFactor = 4
	}
	if cfg.Retrieval.MinSimilarity == 0 {
		cfg.Retrieval.MinSimilarity = 0.01
	}
	if cfg.Retrieval.RelativeCutoff == 0 {
		cfg.Retrieval.RelativeCutoff = 0.5
	}
	if cfg.Retrieval.ShortQueryLength == 0 {
		cfg.Retrieval.ShortQueryLength = 20
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
