// Package config loads and holds the application configuration.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the global configuration, populated by Init.
var Conf Config

// Config mirrors the structure of configs/config.yaml.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// StoreConfig locates the JSON data artifacts the service loads at startup.
type StoreConfig struct {
	ChunkPath  string `mapstructure:"chunk_path"`
	LawyerPath string `mapstructure:"lawyer_path"`
	Watch      bool   `mapstructure:"watch"`
}

// RetrievalConfig controls chunk selection for prompt context.
type RetrievalConfig struct {
	TopK          int `mapstructure:"top_k"`
	MaxSnippetLen int `mapstructure:"max_snippet_len"`
}

// LLMConfig holds settings for the hosted completion API.
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
	Prompt     LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig holds optional sampling parameters.
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig overrides the built-in advisor rules and fallback text.
type LLMPromptConfig struct {
	Rules        string `mapstructure:"rules"`
	NoResultText string `mapstructure:"no_result_text"`
}

// RedisConfig holds the optional conversation-history store settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IndexerConfig controls the offline document indexer.
type IndexerConfig struct {
	RawDir        string      `mapstructure:"raw_dir"`
	DatasetPath   string      `mapstructure:"dataset_path"`
	OutputPath    string      `mapstructure:"output_path"`
	ChunkSize     int         `mapstructure:"chunk_size"`
	ChunkOverlap  int         `mapstructure:"chunk_overlap"`
	MinDocChars   int         `mapstructure:"min_doc_chars"`
	MinEntryChars int         `mapstructure:"min_entry_chars"`
	MinIO         MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig holds the optional object-storage source for the indexer.
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// Init reads the YAML config at configPath into Conf. A .env file in the
// working directory is loaded first so the API key can live outside the
// config file; GROQ_API_KEY takes effect when llm.api_key is unset.
func Init(configPath string) {
	// Missing .env is fine; the key may come from the real environment.
	_ = godotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("failed to read config file: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	if Conf.LLM.APIKey == "" {
		Conf.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}

	applyDefaults(&Conf)
}

func applyDefaults(c *Config) {
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 8
	}
	if c.Retrieval.MaxSnippetLen == 0 {
		c.Retrieval.MaxSnippetLen = 1000
	}
	if c.Indexer.ChunkSize == 0 {
		c.Indexer.ChunkSize = 1000
	}
	if c.Indexer.ChunkOverlap == 0 {
		c.Indexer.ChunkOverlap = 100
	}
	if c.Indexer.MinDocChars == 0 {
		c.Indexer.MinDocChars = 100
	}
	if c.Indexer.MinEntryChars == 0 {
		c.Indexer.MinEntryChars = 50
	}
}
