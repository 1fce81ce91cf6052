package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/gauntlet/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the GAUNTLET_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (GAUNTLET_API_LISTEN, GAUNTLET_STORAGE_DRIVER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		v.Set(keyConfigDir, target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("GAUNTLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// keyConfigDir records the resolved .gauntlet/ directory. It is not a
// persisted key.
const keyConfigDir = "internal.config_dir"

// FromViper materializes the effective Config from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Target: ModelConfig{
			Provider: v.GetString("target.provider"),
			Model:    v.GetString("target.model"),
			BaseURL:  v.GetString("target.base_url"),
		},
		Strategist: ModelConfig{
			Provider: v.GetString("strategist.provider"),
			Model:    v.GetString("strategist.model"),
			BaseURL:  v.GetString("strategist.base_url"),
		},
		Lifecycle: LifecycleConfig{
			StrictTransitions: v.GetBool("lifecycle.strict_transitions"),
		},
		Corpus: CorpusConfig{
			DegradeOnReadError: v.GetBool("corpus.degrade_on_read_error"),
			DefaultLimit:       v.GetInt("corpus.default_limit"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  brokers(v),
			Topic:    v.GetString("eventstream.topic"),
		},
	}
}

// ConfigDir returns the .gauntlet/ directory InitViper resolved.
func ConfigDir(v *viper.Viper) string {
	return v.GetString(keyConfigDir)
}

// brokers accepts both a TOML array and a comma-separated env value.
func brokers(v *viper.Viper) []string {
	var out []string
	for _, b := range v.GetStringSlice("eventstream.brokers") {
		out = append(out, splitList(b)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("target.provider", d.Target.Provider)
	v.SetDefault("target.model", d.Target.Model)
	v.SetDefault("target.base_url", d.Target.BaseURL)

	v.SetDefault("strategist.provider", d.Strategist.Provider)
	v.SetDefault("strategist.model", d.Strategist.Model)
	v.SetDefault("strategist.base_url", d.Strategist.BaseURL)

	v.SetDefault("lifecycle.strict_transitions", d.Lifecycle.StrictTransitions)

	v.SetDefault("corpus.degrade_on_read_error", d.Corpus.DegradeOnReadError)
	v.SetDefault("corpus.default_limit", d.Corpus.DefaultLimit)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
