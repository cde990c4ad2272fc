package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/util"
)

// Loader reads configuration files into validated Config values.
type Loader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

type viperLoader struct {
	validator Validator
}

// NewLoader creates a Loader backed by Viper.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

// Load reads the file at path, interpolates ${VAR} references from the
// environment, fills backend defaults and validates the result.
func (l *viperLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
			fmt.Sprintf("read config file %s", path), err)
	}

	// Interpolate on the raw settings map before unmarshaling so every
	// string field gets the same treatment, nested or not.
	settings, _ := interpolateEnvVars(v.AllSettings()).(map[string]any)

	merged := viper.New()
	if err := merged.MergeConfigMap(settings); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "merge config", err)
	}

	cfg := DefaultConfig()
	if err := merged.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "unmarshal config", err)
	}

	if err := expandPaths(cfg); err != nil {
		return nil, err
	}
	cfg.Graph.ApplyDefaults()
	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandPaths resolves ~ and environment references in every filesystem path
// the config carries.
func expandPaths(cfg *Config) error {
	fields := []*string{
		&cfg.Core.HomeDir,
		&cfg.Core.DataDir,
		&cfg.Graph.SQLite.Path,
	}
	if cfg.Graph.Shadow != nil {
		fields = append(fields, &cfg.Graph.Shadow.SQLite.Path)
	}
	for i := range cfg.Domains.Paths {
		fields = append(fields, &cfg.Domains.Paths[i])
	}
	for i := range cfg.Patterns.Paths {
		fields = append(fields, &cfg.Patterns.Paths[i])
	}
	for _, field := range fields {
		expanded, err := util.ExpandPath(*field)
		if err != nil {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "expand path", err)
		}
		*field = expanded
	}
	return nil
}

// LoadWithDefaults behaves like Load, except a missing file yields the
// default configuration instead of an error.
func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return l.Load(path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateEnvVars walks the settings tree replacing ${VAR} references in
// string values. Unset variables are left as-is so validation can flag them.
func interpolateEnvVars(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = interpolateEnvVars(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value)
		}
		return result
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}
