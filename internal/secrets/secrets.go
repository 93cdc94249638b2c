// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, genai-api-key, search-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// Key file names.
const (
	OpenAIKey = "openai-api-key"
	GenAIKey  = "genai-api-key"
	SearchKey = "search-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills API keys that cfg leaves empty from loaded secrets. Keys set
// by flags, config, or environment take precedence.
func Apply(cfg *types.Config, secrets map[string]string) {
	cfg.LLM.APIKey = firstNonEmpty(cfg.LLM.APIKey, providerKey(cfg.LLM.Provider, secrets))
	cfg.Embedding.APIKey = firstNonEmpty(cfg.Embedding.APIKey, providerKey(cfg.Embedding.Provider, secrets))
	cfg.Search.APIKey = firstNonEmpty(cfg.Search.APIKey, secrets[SearchKey])
}

func providerKey(provider string, secrets map[string]string) string {
	switch provider {
	case types.ProviderOpenAI, types.ProviderAzure:
		return secrets[OpenAIKey]
	case types.ProviderGenAI:
		return secrets[GenAIKey]
	default:
		return ""
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
