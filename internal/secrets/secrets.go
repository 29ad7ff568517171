// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file is one secret: the filename is the key name and the trimmed contents
// are the value.
//
// Recognised keys: stripe-secret-key, huggingface-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// Key names.
const (
	StripeSecretKey  = "stripe-secret-key"
	HuggingFaceToken = "huggingface-token"
)

// DefaultDir is where Load looks when no directory is configured.
const DefaultDir = ".secrets"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged to log (when non-nil) and skipped.
func Load(dir string, log logrus.FieldLogger) (map[string]string, error) {
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
			if log != nil {
				log.WithError(err).WithField("secret", name).Warn("could not read secret")
			}
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills credentials in cfg that are still empty. Values already set
// through the config file or environment win.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.Payment.SecretKey == "" {
		cfg.Payment.SecretKey = secrets[StripeSecretKey]
	}
	if cfg.Analysis.Token == "" {
		cfg.Analysis.Token = secrets[HuggingFaceToken]
	}
}
