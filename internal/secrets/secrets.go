// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads NCBI credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: ncbi-api-key, ncbi-email.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Key file names.
const (
	KeyAPIKey = "ncbi-api-key"
	KeyEmail  = "ncbi-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, lg *slog.Logger) (map[string]string, error) {
	if lg == nil {
		lg = slog.Default()
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
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			lg.Warn("could not read secret", slog.String("name", name), slog.Any("err", err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies the NCBI secrets into cfg. Values already set in cfg win.
func Apply(cfg *types.EutilsConfig, secrets map[string]string) {
	if cfg.APIKey == "" {
		cfg.APIKey = secrets[KeyAPIKey]
	}
	if cfg.Email == "" {
		cfg.Email = secrets[KeyEmail]
	}
}
