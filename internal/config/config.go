// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config binds fedsearch settings from a config file, the
// environment, and flags, and validates the backend list.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fedsearch/internal/federate"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// Name is the config file base name and the env prefix source.
const Name = "fedsearch"

// Defaults.
const (
	DefaultPageSize    = 10
	DefaultHTTPTimeout = 30 * time.Second
	DefaultMaxRetries  = 5
	DefaultUserAgent   = "fedsearch/0.1"
)

// Setup registers defaults, env binding (FEDSEARCH_SEARCH_PAGE_SIZE and so
// on), and the config search path on v. An explicit cfgFile replaces the
// search path.
func Setup(v *viper.Viper, fs afero.Fs, cfgFile string) {
	v.SetFs(fs)

	v.SetDefault("search.page_size", DefaultPageSize)
	v.SetDefault("search.degraded", false)
	v.SetDefault("search.session_timeout", "0s")
	v.SetDefault("search.search_fields", []string{})
	v.SetDefault("http.timeout", DefaultHTTPTimeout.String())
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.max_retries", DefaultMaxRetries)
	v.SetDefault("backends_file", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(strings.ToUpper(Name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read loads the config file into v and returns its path. A missing file on
// the search path is not an error; Read then returns "".
func Read(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: reading config: %v", federate.ErrConfiguration, err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config, appends descriptors from backends_file, fills
// defaults, and validates the result. All failures wrap
// federate.ErrConfiguration.
func Load(v *viper.Viper, fs afero.Fs) (types.Config, error) {
	var cfg types.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return types.Config{}, fmt.Errorf("%w: decoding config: %v", federate.ErrConfiguration, err)
	}

	if cfg.BackendsFile != "" {
		extra, err := ReadBackendsFile(fs, cfg.BackendsFile)
		if err != nil {
			return types.Config{}, err
		}
		cfg.Backends = append(cfg.Backends, extra...)
	}

	Normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// backendsFile is the wrapped descriptor file form.
type backendsFile struct {
	Backends []types.BackendDescriptor `json:"backends" yaml:"backends" toml:"backends"`
}

// ReadBackendsFile reads descriptors from a .yaml/.yml, .toml, or .json file.
// YAML and JSON accept a top-level list or a {backends: [...]} wrapper.
func ReadBackendsFile(fs afero.Fs, path string) ([]types.BackendDescriptor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading backends file: %v", federate.ErrConfiguration, err)
	}

	var f backendsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &f.Backends); err != nil {
			err = yaml.Unmarshal(data, &f)
		}
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".json":
		if err = json.Unmarshal(data, &f.Backends); err != nil {
			err = json.Unmarshal(data, &f)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported backends file format %q", federate.ErrConfiguration, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing backends file %s: %v", federate.ErrConfiguration, path, err)
	}
	return f.Backends, nil
}

// Normalize fills per-descriptor defaults and trims search fields.
func Normalize(cfg *types.Config) {
	for i := range cfg.Backends {
		d := &cfg.Backends[i]
		d.Name = strings.TrimSpace(d.Name)
		d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
		if d.Kind == "" {
			d.Kind = types.KindREST
		}
		if d.RateLimit > 0 && d.Burst <= 0 {
			d.Burst = 1
		}
	}
	fields := cfg.Search.SearchFields[:0]
	for _, f := range cfg.Search.SearchFields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	cfg.Search.SearchFields = fields
}

// Validate checks the backend list and search defaults. An out-of-range
// page size is an invalid request, whether it came from a flag or a file.
func Validate(cfg types.Config) error {
	if len(cfg.Backends) == 0 {
		return fmt.Errorf("%w: no backends configured", federate.ErrConfiguration)
	}

	seen := make(map[string]bool, len(cfg.Backends))
	for i, d := range cfg.Backends {
		if d.Name == "" {
			return fmt.Errorf("%w: backend %d has no name", federate.ErrConfiguration, i)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate backend name %q", federate.ErrConfiguration, d.Name)
		}
		seen[d.Name] = true
		if err := validateBackend(d); err != nil {
			return fmt.Errorf("%w: backend %s: %v", federate.ErrConfiguration, d.Name, err)
		}
	}

	if ps := cfg.Search.PageSize; ps < federate.MinPageSize || ps > federate.MaxPageSize {
		return fmt.Errorf("%w: search.page_size %d outside [%d, %d]",
			federate.ErrInvalidRequest, ps, federate.MinPageSize, federate.MaxPageSize)
	}
	if cfg.Search.SessionTimeout < 0 {
		return fmt.Errorf("%w: search.session_timeout is negative", federate.ErrConfiguration)
	}
	if cfg.HTTP.Timeout < 0 {
		return fmt.Errorf("%w: http.timeout is negative", federate.ErrConfiguration)
	}
	for _, f := range cfg.Search.SearchFields {
		if strings.Contains(f, ",") {
			return fmt.Errorf("%w: search field %q contains a comma", federate.ErrConfiguration, f)
		}
	}
	return nil
}

func validateBackend(d types.BackendDescriptor) error {
	if d.RateLimit < 0 {
		return fmt.Errorf("rate_limit is negative")
	}
	switch d.Kind {
	case types.KindREST:
		if d.Endpoint == "" {
			return fmt.Errorf("endpoint is required")
		}
		u, err := url.Parse(d.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("endpoint %q is not an http(s) URL", d.Endpoint)
		}
		if d.Collection == "" {
			return fmt.Errorf("collection is required")
		}
	case types.KindSQLite:
		if d.Endpoint == "" {
			return fmt.Errorf("endpoint (database path) is required")
		}
		if d.Collection == "" {
			return fmt.Errorf("collection is required")
		}
	case types.KindMemory:
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	return nil
}
