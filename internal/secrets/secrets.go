// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials and contact details from a directory of
// plain-text files. Each file is one secret: the filename is the key name
// and the trimmed file contents are the value.
//
// Supported key files: mardi-contact (an e-mail or URL appended to the
// User-Agent, as the Wikimedia user-agent policy asks of bots).
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ContactKey names the secret holding the operator contact.
const ContactKey = "mardi-contact"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort. A nil logger
// discards the warnings.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
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
			logger.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// UserAgent appends the configured contact to base in the customary
// "name/version (contact)" form. Without a contact, base is returned as is.
func UserAgent(base string, secrets map[string]string) string {
	contact := secrets[ContactKey]
	if contact == "" || strings.Contains(base, "(") {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, contact)
}
