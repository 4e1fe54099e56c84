// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials kept out of the config file from a
// directory of plain-text files. The filename is the key and the trimmed
// contents are the value.
//
// Supported key files: proxies (one proxy URL per line, credentials inline).
package secrets

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/logging"
)

// ProxiesKey names the file holding additional primary proxies.
const ProxiesKey = "proxies"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are logged
// and skipped.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	log = logging.OrNop(log)

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
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Lines splits a multi-line secret into its non-blank lines, dropping
// '#' comments.
func Lines(value string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(value))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Proxies returns the proxy URLs listed in dir's proxies file, if any.
func Proxies(dir string, log *zap.Logger) ([]string, error) {
	s, err := Load(dir, log)
	if err != nil {
		return nil, err
	}
	return Lines(s[ProxiesKey]), nil
}
