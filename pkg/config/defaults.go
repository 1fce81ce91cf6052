package config

const (
	defaultStorageDriver = "sqlite"
	defaultSQLiteFile    = "gauntlet.sqlite"
	defaultAPIListen     = ":8081"

	defaultProvider = "ollama"
	defaultOllama   = "http://localhost:11434"
	defaultModel    = "llama3.2"

	defaultCorpusLimit = 10

	defaultVectorProvider = "sqlite"

	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultEventProvider = "nop"
	defaultEventTopic    = "gauntlet.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Target: ModelConfig{
			Provider: defaultProvider,
			Model:    defaultModel,
			BaseURL:  defaultOllama,
		},
		Strategist: ModelConfig{
			Provider: defaultProvider,
			Model:    defaultModel,
			BaseURL:  defaultOllama,
		},
		Corpus: CorpusConfig{
			DegradeOnReadError: true,
			DefaultLimit:       defaultCorpusLimit,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultProvider,
			Target:     defaultOllama,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventProvider,
			Topic:    defaultEventTopic,
		},
	}
}

// DefaultSQLiteFile is the database file name used when storage.sqlite_path
// is empty. It is resolved inside the .gauntlet/ directory.
func DefaultSQLiteFile() string {
	return defaultSQLiteFile
}
