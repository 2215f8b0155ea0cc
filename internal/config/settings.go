package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration shared by the API server and ragctl.
type Settings struct {
	ListenAddr   string `yaml:"listen_addr"`
	LogLevel     string `yaml:"log_level"`
	AuthToken    string `yaml:"-"`
	NoAuthBypass bool   `yaml:"no_auth_bypass"`

	Chunker        ChunkerSettings        `yaml:"chunker"`
	Embedding      EmbeddingSettings      `yaml:"embedding"`
	Generation     GenerationSettings     `yaml:"generation"`
	Retrieval      RetrievalSettings      `yaml:"retrieval"`
	Store          StoreSettings          `yaml:"store"`
	Redis          RedisSettings          `yaml:"redis"`
	Qdrant         QdrantSettings         `yaml:"qdrant"`
	DocumentSource DocumentSourceSettings `yaml:"document_source"`
}

type ChunkerSettings struct {
	TargetLength int `yaml:"target_length"`
	Overlap      int `yaml:"overlap"`
}

type EmbeddingSettings struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"-"`
	Dimension      int    `yaml:"dimension"`
	BatchSize      int    `yaml:"batch_size"`
	QueryCacheSize int    `yaml:"query_cache_size"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

type GenerationSettings struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"-"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

type RetrievalSettings struct {
	TopK              int `yaml:"top_k"`
	ContextCharBudget int `yaml:"context_char_budget"`
}

type StoreSettings struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	Disabled bool   `yaml:"disabled"`
}

type QdrantSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	UseTLS   bool   `yaml:"use_tls"`
	APIKey   string `yaml:"-"`
	PoolSize int    `yaml:"pool_size"`
}

type DocumentSourceSettings struct {
	PostgresDSN string `yaml:"-"`
}

// Load reads the optional YAML file at path, then .env, then environment
// overrides. A missing file is not an error.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	settings := &Settings{}
	if path == "" {
		path = os.Getenv("RAG_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, settings); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnvironment(settings)
	applyDefaults(settings)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	settings := &Settings{}
	applyDefaults(settings)
	return settings
}

func applyEnvironment(s *Settings) {
	setString(&s.ListenAddr, "RAG_LISTEN_ADDR")
	setString(&s.LogLevel, "RAG_LOG_LEVEL")
	setString(&s.AuthToken, "RAG_AUTH_TOKEN")
	if v, err := strconv.ParseBool(os.Getenv("RAG_NO_AUTH")); err == nil {
		s.NoAuthBypass = v
	}

	setString(&s.Embedding.Provider, "RAG_EMBEDDING_PROVIDER")
	setString(&s.Embedding.Model, "RAG_EMBEDDING_MODEL")
	setString(&s.Generation.Provider, "RAG_GENERATION_PROVIDER")
	setString(&s.Generation.Model, "RAG_GENERATION_MODEL")

	googleKey := os.Getenv("GEMINI_API_KEY")
	if googleKey == "" {
		googleKey = os.Getenv("GOOGLE_API_KEY")
	}
	openAIKey := os.Getenv("OPENAI_API_KEY")
	s.Embedding.APIKey = pickKey(s.Embedding.Provider, googleKey, openAIKey)
	s.Generation.APIKey = pickKey(s.Generation.Provider, googleKey, openAIKey)
	setString(&s.Embedding.BaseURL, "OPENAI_BASE_URL")
	setString(&s.Generation.BaseURL, "OPENAI_BASE_URL")

	setString(&s.Store.SQLitePath, "RAG_SQLITE_PATH")
	setString(&s.Redis.Addr, "REDIS_ADDR")
	setString(&s.Redis.Password, "REDIS_PASSWORD")
	setString(&s.Qdrant.Host, "QDRANT_HOST")
	setString(&s.Qdrant.APIKey, "QDRANT_API_KEY")
	if port, err := strconv.Atoi(os.Getenv("QDRANT_PORT")); err == nil {
		s.Qdrant.Port = port
	}
	setString(&s.DocumentSource.PostgresDSN, "DOCUMENT_SOURCE_DSN")
}

func pickKey(provider, googleKey, openAIKey string) string {
	if provider == ProviderOpenAI {
		return openAIKey
	}
	return googleKey
}

func setString(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}

func applyDefaults(s *Settings) {
	if s.ListenAddr == "" {
		s.ListenAddr = ServerListenAddr
	}
	if s.Chunker.TargetLength == 0 {
		s.Chunker.TargetLength = ChunkTargetLength
	}
	if s.Chunker.Overlap == 0 {
		s.Chunker.Overlap = ChunkOverlap
	}

	if s.Embedding.Provider == "" {
		s.Embedding.Provider = ProviderGemini
	}
	if s.Embedding.Model == "" {
		s.Embedding.Model = GoogleEmbeddingModel
		if s.Embedding.Provider == ProviderOpenAI {
			s.Embedding.Model = OpenAIEmbeddingModel
		}
	}
	if s.Embedding.Dimension == 0 {
		s.Embedding.Dimension = int(EmbeddingOutputDimensionality)
	}
	if s.Embedding.BatchSize == 0 {
		s.Embedding.BatchSize = EmbeddingBatchSize
	}
	if s.Embedding.QueryCacheSize == 0 {
		s.Embedding.QueryCacheSize = QueryEmbeddingCacheSize
	}
	if s.Embedding.TimeoutSecs == 0 {
		s.Embedding.TimeoutSecs = int(EmbeddingTimeout / time.Second)
	}

	if s.Generation.Provider == "" {
		s.Generation.Provider = ProviderGemini
	}
	if s.Generation.Model == "" {
		s.Generation.Model = GeminiModelName
		if s.Generation.Provider == ProviderOpenAI {
			s.Generation.Model = OpenAIChatModel
		}
	}
	if s.Generation.Temperature == 0 {
		s.Generation.Temperature = ModelTemperature
	}
	if s.Generation.TimeoutSecs == 0 {
		s.Generation.TimeoutSecs = int(GenerationTimeout / time.Second)
	}

	if s.Retrieval.TopK == 0 {
		s.Retrieval.TopK = RetrievalTopK
	}
	if s.Retrieval.ContextCharBudget == 0 {
		s.Retrieval.ContextCharBudget = ContextCharBudget
	}
	if s.Store.SQLitePath == "" {
		s.Store.SQLitePath = SQLitePath
	}
	if s.Redis.Addr == "" {
		s.Redis.Addr = RedisAddr
	}
	if s.Qdrant.Host == "" {
		s.Qdrant.Host = QdrantHost
	}
	if s.Qdrant.Port == 0 {
		s.Qdrant.Port = QdrantGrpcPort
	}
	if s.Qdrant.PoolSize == 0 {
		s.Qdrant.PoolSize = QdrantPoolSize
	}
}

// Validate rejects settings the engine cannot run with.
func (s *Settings) Validate() error {
	var errs []error
	if s.Chunker.TargetLength <= 0 {
		errs = append(errs, errors.New("chunker.target_length must be positive"))
	}
	if s.Chunker.Overlap < 0 || s.Chunker.Overlap >= s.Chunker.TargetLength {
		errs = append(errs, errors.New("chunker.overlap must be smaller than chunker.target_length"))
	}
	if s.Embedding.Dimension <= 0 {
		errs = append(errs, errors.New("embedding.dimension must be positive"))
	}
	if s.Embedding.BatchSize <= 0 {
		errs = append(errs, errors.New("embedding.batch_size must be positive"))
	}
	if !knownProvider(s.Embedding.Provider) {
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", s.Embedding.Provider))
	}
	if !knownProvider(s.Generation.Provider) {
		errs = append(errs, fmt.Errorf("unknown generation.provider %q", s.Generation.Provider))
	}
	timeout := s.GenerationTimeout()
	if timeout < MinGenerationTimeout || timeout > MaxGenerationTimeout {
		errs = append(errs, fmt.Errorf("generation.timeout_secs must be between %s and %s", MinGenerationTimeout, MaxGenerationTimeout))
	}
	if s.Retrieval.TopK <= 0 {
		errs = append(errs, errors.New("retrieval.top_k must be positive"))
	}
	if s.Retrieval.ContextCharBudget <= 0 {
		errs = append(errs, errors.New("retrieval.context_char_budget must be positive"))
	}
	return errors.Join(errs...)
}

func knownProvider(name string) bool {
	return name == ProviderGemini || name == ProviderOpenAI
}

func (s *Settings) GenerationTimeout() time.Duration {
	return time.Duration(s.Generation.TimeoutSecs) * time.Second
}

func (s *Settings) EmbeddingTimeout() time.Duration {
	return time.Duration(s.Embedding.TimeoutSecs) * time.Second
}

func (s *Settings) CacheEnabled() bool {
	return s.Qdrant.Host != ""
}
