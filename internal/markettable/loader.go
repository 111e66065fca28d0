package markettable

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var defaultYAML []byte

// Default returns the built-in table
func Default() (*Table, error) {
	return Parse(defaultYAML)
}

// Load reads the table at path, or the built-in table when path is empty
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read market table: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("market table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML table
// KnownFields(true): a typo in the file fails instead of silently using a default
func Parse(data []byte) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}

	if err := Validate(&t); err != nil {
		return nil, err
	}

	return &t, nil
}

// Hash returns the SHA256 of the table's canonical JSON
// encoding/json sorts map keys, so equal tables hash equally
func Hash(t *Table) (string, error) {
	jsonBytes, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Raw returns the built-in YAML
func Raw() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}
