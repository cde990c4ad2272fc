package pattern

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadBuiltin parses the embedded builtin pattern modules and registers their
// patterns and factors. Intended for process startup, after the builtin
// domains are registered; identical re-registration is a no-op.
func LoadBuiltin(reg *Registry) error {
	entries, err := fs.ReadDir(BuiltinFS(), "builtin")
	if err != nil {
		return fmt.Errorf("failed to read builtin pattern modules: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(BuiltinFS(), "builtin/"+entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read builtin pattern module %s: %w", entry.Name(), err)
		}
		if err := registerFile(reg, data, entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile parses a pattern module YAML file from disk and registers its
// patterns and factors.
func LoadFile(reg *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pattern module %s: %w", path, err)
	}
	return registerFile(reg, data, path)
}

func registerFile(reg *Registry, data []byte, source string) error {
	var file PatternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse pattern module %s: %w", source, err)
	}

	for _, def := range file.Patterns {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("pattern module %s: %w", source, err)
		}
	}
	for _, f := range file.Factors {
		if err := reg.RegisterFactor(f); err != nil {
			return fmt.Errorf("pattern module %s: %w", source, err)
		}
	}
	return nil
}
