// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials for private checkpoint releases from a
// directory of plain-text files, one secret per file. The filename is the key
// and the trimmed contents are the value.
//
// Fetch tokens are looked up per host first (fetch-token.github.com), then
// from the shared fetch-token file.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

// FetchToken names the file holding the bearer token sent by fetch.
const FetchToken = "fetch-token"

// Load reads all regular files in dir. A missing directory yields an empty
// map. Dotfiles, empty files and unreadable files are skipped; files readable
// by group or others are used but logged.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if info, err := entry.Info(); err == nil && info.Mode().Perm()&0o077 != 0 {
			slog.Warn("secret file is readable by other users", "path", path, "mode", info.Mode().Perm())
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("could not read secret", "path", path, "error", err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Token returns the fetch token for host from dir, preferring
// fetch-token.<host> over fetch-token. It returns "" when neither is set.
func Token(dir, host string) (string, error) {
	s, err := Load(dir)
	if err != nil {
		return "", err
	}
	if host != "" {
		if v, ok := s[FetchToken+"."+strings.ToLower(host)]; ok {
			return v, nil
		}
	}
	return s[FetchToken], nil
}
