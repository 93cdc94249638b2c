// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// Generation and embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGenAI  = "genai"
	ProviderEcho   = "echo"
)

// Search backends.
const (
	SearchBackendREST   = "rest"
	SearchBackendSQLite = "sqlite"
)

// Editor output parse modes.
const (
	ParseModeDelimiter = "delimiter"
	ParseModeTagged    = "tagged"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "creative-writer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LLMConfig selects and configures the generative model used by the product
// finder, writer, and editor.
type LLMConfig struct {
	// Provider is one of openai, azure, genai, or echo.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model or Azure deployment name (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Endpoint is the base URL (openai) or resource endpoint (azure).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// APIVersion is the Azure OpenAI API version (e.g. "2024-06-01").
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty" mapstructure:"api_version"`

	// Temperature is the sampling temperature. Zero leaves the provider default.
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens caps completion length. Zero leaves the provider default.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmbeddingConfig configures the embedding service adapter.
type EmbeddingConfig struct {
	// Provider is one of openai, azure, or genai.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the embedding model or deployment (default "text-embedding-ada-002").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty" mapstructure:"api_version"`

	// TaskType is the GenAI embedding task (default RETRIEVAL_QUERY).
	TaskType string `json:"task_type,omitempty" yaml:"task_type,omitempty" mapstructure:"task_type"`
}

// SearchConfig configures the vector search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend is rest (remote hybrid search service) or sqlite (local catalog).
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Endpoint is the search service URL (rest backend).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// APIKey is sent in the api-key header (rest backend).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// APIVersion is the search REST API version (default "2023-11-01").
	APIVersion string `json:"api_version" yaml:"api_version" mapstructure:"api_version"`

	// Index is the product index name (default "contoso-products").
	Index string `json:"index" yaml:"index" mapstructure:"index"`

	// VectorField is the indexed vector field (default "contentVector").
	VectorField string `json:"vector_field" yaml:"vector_field" mapstructure:"vector_field"`

	// SemanticConfiguration is the semantic ranker configuration (default "default").
	SemanticConfiguration string `json:"semantic_configuration" yaml:"semantic_configuration" mapstructure:"semantic_configuration"`

	// Concurrency bounds parallel per-query searches (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxRetries bounds retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CatalogConfig configures the local SQLite product catalog.
type CatalogConfig struct {
	// Driver is sqlite3 (cgo, mattn) or sqlite (pure Go, modernc).
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the database file (default "data/catalog.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// BatchSize is the number of products embedded per call during ingest (default 16).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
}

// PromptConfig locates prompt template overrides.
type PromptConfig struct {
	// Dir holds *.tmpl files that replace the embedded templates of the same name.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
}

// RevisionConfig configures the writer/editor loop.
type RevisionConfig struct {
	// MaxRounds caps editor passes (default 3).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds" mapstructure:"max_rounds"`

	// ParseMode selects delimiter or tagged editor output.
	ParseMode string `json:"parse_mode" yaml:"parse_mode" mapstructure:"parse_mode"`
}

// OutputConfig configures where finished drafts are written.
type OutputConfig struct {
	// Dir is the base directory for draft runs (default "output/drafts").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// Config groups all stage configurations for the pipeline. It is built once
// at startup, validated, and passed to each component constructor.
type Config struct {
	LLM       LLMConfig       `json:"llm" yaml:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Prompts   PromptConfig    `json:"prompts" yaml:"prompts" mapstructure:"prompts"`
	Revision  RevisionConfig  `json:"revision" yaml:"revision" mapstructure:"revision"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4o",
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderOpenAI,
			Model:    "text-embedding-ada-002",
			TaskType: "RETRIEVAL_QUERY",
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "creative-writer/0.1",
			},
			Backend:               SearchBackendREST,
			APIVersion:            "2023-11-01",
			Index:                 "contoso-products",
			VectorField:           "contentVector",
			SemanticConfiguration: "default",
			Concurrency:           1,
			MaxRetries:            3,
		},
		Catalog: CatalogConfig{
			Driver:    "sqlite3",
			Path:      "data/catalog.db",
			BatchSize: 16,
		},
		Revision: RevisionConfig{
			MaxRounds: 3,
			ParseMode: ParseModeDelimiter,
		},
		Output: OutputConfig{
			Dir: "output/drafts",
		},
	}
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	var problems []string
	problems = append(problems, c.LLM.problems()...)
	problems = append(problems, c.Embedding.problems()...)
	problems = append(problems, c.Search.problems()...)
	if c.Search.Backend == SearchBackendSQLite {
		problems = append(problems, c.Catalog.problems()...)
	}
	problems = append(problems, c.Revision.problems()...)
	return joinProblems(problems)
}

// Validate checks the generation settings.
func (c LLMConfig) Validate() error { return joinProblems(c.problems()) }

// Validate checks the embedding settings.
func (c EmbeddingConfig) Validate() error { return joinProblems(c.problems()) }

// Validate checks the search settings.
func (c SearchConfig) Validate() error { return joinProblems(c.problems()) }

// Validate checks the catalog settings.
func (c CatalogConfig) Validate() error { return joinProblems(c.problems()) }

// Validate checks the revision loop settings.
func (c RevisionConfig) Validate() error { return joinProblems(c.problems()) }

func (c LLMConfig) problems() []string {
	var p []string
	switch c.Provider {
	case ProviderEcho:
		return nil
	case ProviderOpenAI, ProviderGenAI:
	case ProviderAzure:
		if c.Endpoint == "" {
			p = append(p, "llm.endpoint is required for azure")
		}
		if c.APIVersion == "" {
			p = append(p, "llm.api_version is required for azure")
		}
	default:
		return []string{fmt.Sprintf("llm.provider %q not supported (openai, azure, genai, echo)", c.Provider)}
	}
	if c.Model == "" {
		p = append(p, "llm.model is required")
	}
	if c.APIKey == "" {
		p = append(p, "llm.api_key is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		p = append(p, fmt.Sprintf("llm.temperature %.2f out of range [0,2]", c.Temperature))
	}
	if c.MaxTokens < 0 {
		p = append(p, "llm.max_tokens must not be negative")
	}
	return p
}

func (c EmbeddingConfig) problems() []string {
	var p []string
	switch c.Provider {
	case ProviderOpenAI, ProviderGenAI:
	case ProviderAzure:
		if c.Endpoint == "" {
			p = append(p, "embedding.endpoint is required for azure")
		}
		if c.APIVersion == "" {
			p = append(p, "embedding.api_version is required for azure")
		}
	default:
		return []string{fmt.Sprintf("embedding.provider %q not supported (openai, azure, genai)", c.Provider)}
	}
	if c.Model == "" {
		p = append(p, "embedding.model is required")
	}
	if c.APIKey == "" {
		p = append(p, "embedding.api_key is required")
	}
	return p
}

func (c SearchConfig) problems() []string {
	var p []string
	switch c.Backend {
	case SearchBackendREST:
		if c.Endpoint == "" {
			p = append(p, "search.endpoint is required for the rest backend")
		}
		if c.APIKey == "" {
			p = append(p, "search.api_key is required for the rest backend")
		}
		if c.APIVersion == "" {
			p = append(p, "search.api_version is required for the rest backend")
		}
	case SearchBackendSQLite:
	default:
		p = append(p, fmt.Sprintf("search.backend %q not supported (rest, sqlite)", c.Backend))
	}
	if c.Index == "" {
		p = append(p, "search.index is required")
	}
	if c.Concurrency < 1 {
		p = append(p, "search.concurrency must be at least 1")
	}
	return p
}

func (c CatalogConfig) problems() []string {
	var p []string
	if c.Driver != "sqlite3" && c.Driver != "sqlite" {
		p = append(p, fmt.Sprintf("catalog.driver %q not supported (sqlite3, sqlite)", c.Driver))
	}
	if c.Path == "" {
		p = append(p, "catalog.path is required")
	}
	if c.BatchSize < 1 {
		p = append(p, "catalog.batch_size must be at least 1")
	}
	return p
}

func (c RevisionConfig) problems() []string {
	var p []string
	if c.MaxRounds < 1 {
		p = append(p, "revision.max_rounds must be at least 1")
	}
	if c.ParseMode != ParseModeDelimiter && c.ParseMode != ParseModeTagged {
		p = append(p, fmt.Sprintf("revision.parse_mode %q not supported (delimiter, tagged)", c.ParseMode))
	}
	return p
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
