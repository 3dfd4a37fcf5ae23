// Package config reads the NSCA CLI collaborators' configuration file
// format: newline-delimited key=value entries, "#"-prefixed comments,
// blank lines ignored.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/metricq/nscago/internal/wire"
)

// Config holds the two recognized configuration keys.
type Config struct {
	Password         string
	EncryptionMethod wire.EncryptionMethod
}

// InvalidConfigError is returned when a non-comment, non-blank line
// does not parse as key=value.
type InvalidConfigError struct {
	Line string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config line: %q", e.Line)
}

type reader struct {
	path string
}

func newReader(path string) *reader {
	return &reader{path: path}
}

func (r *reader) read() (*Config, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &InvalidConfigError{Line: line}
		}
		raw[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", r.path, err)
	}

	cfg := &Config{EncryptionMethod: wire.Plaintext}
	if v, ok := raw["password"]; ok {
		cfg.Password = v
	}
	if v, ok := raw["encryption_method"]; ok {
		method, err := parseMethod(v)
		if err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", r.path, err)
		}
		cfg.EncryptionMethod = method
	}
	return cfg, nil
}

func parseMethod(s string) (wire.EncryptionMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plaintext":
		return wire.Plaintext, nil
	case "blowfish":
		return wire.Blowfish, nil
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		switch wire.EncryptionMethod(n) {
		case wire.Plaintext, wire.Blowfish:
			return wire.EncryptionMethod(n), nil
		}
	}
	return 0, fmt.Errorf("unrecognized encryption_method %q", s)
}

// Read parses the config file at path.
func Read(path string) (*Config, error) {
	return newReader(path).read()
}
