package domain

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader parses domain module definitions from YAML.
type Loader interface {
	// LoadBuiltin parses the embedded builtin domain modules.
	LoadBuiltin() ([]Domain, error)

	// LoadFile parses domain modules from a YAML file on disk.
	LoadFile(path string) ([]Domain, error)

	// LoadDir parses every *.yaml file in a directory.
	LoadDir(dir string) ([]Domain, error)
}

// loader is the default Loader implementation.
type loader struct {
	builtin fs.FS
}

// NewLoader creates a Loader backed by the embedded builtin modules.
func NewLoader() Loader {
	return &loader{builtin: BuiltinFS()}
}

// LoadBuiltin parses the embedded builtin domain modules.
func (l *loader) LoadBuiltin() ([]Domain, error) {
	entries, err := fs.ReadDir(l.builtin, "builtin")
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin domain modules: %w", err)
	}

	var domains []Domain
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(l.builtin, "builtin/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read builtin module %s: %w", entry.Name(), err)
		}
		parsed, err := parseDomainFile(data, entry.Name())
		if err != nil {
			return nil, err
		}
		domains = append(domains, parsed...)
	}
	return domains, nil
}

// LoadFile parses domain modules from a YAML file on disk.
func (l *loader) LoadFile(path string) ([]Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain module %s: %w", path, err)
	}
	return parseDomainFile(data, path)
}

// LoadDir parses every *.yaml file in a directory.
func (l *loader) LoadDir(dir string) ([]Domain, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain module directory %s: %w", dir, err)
	}

	var domains []Domain
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		parsed, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		domains = append(domains, parsed...)
	}
	return domains, nil
}

// parseDomainFile unmarshals a DomainFile and validates every declared domain
// so malformed modules are rejected at load time, not at first use.
func parseDomainFile(data []byte, source string) ([]Domain, error) {
	var file DomainFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse domain module %s: %w", source, err)
	}
	if len(file.Domains) == 0 {
		return nil, fmt.Errorf("domain module %s declares no domains", source)
	}

	for i := range file.Domains {
		if err := ValidateDefinition(&file.Domains[i]); err != nil {
			return nil, fmt.Errorf("domain module %s: %w", source, err)
		}
	}
	return file.Domains, nil
}

// RegisterBuiltin loads the embedded builtin domain modules and registers them.
// Intended for process startup; identical re-registration is a no-op.
func RegisterBuiltin(reg Registry) error {
	domains, err := NewLoader().LoadBuiltin()
	if err != nil {
		return err
	}
	for _, d := range domains {
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("failed to register builtin domain %s: %w", d.Name, err)
		}
	}
	return nil
}
