package types

import "time"

// HTTPConfig holds shared HTTP settings used by remote backend clients.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "fedsearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds defaults for a federated query session.
type SearchConfig struct {
	// PageSize is the default number of records per output page (default 10).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// SearchFields restricts matching to these document fields. Empty searches all.
	SearchFields []string `json:"search_fields" yaml:"search_fields" mapstructure:"search_fields"`

	// Degraded excludes a failing backend and keeps going instead of aborting.
	Degraded bool `json:"degraded" yaml:"degraded" mapstructure:"degraded"`

	// SessionTimeout bounds a whole paginate call. Zero means no limit.
	SessionTimeout time.Duration `json:"session_timeout" yaml:"session_timeout" mapstructure:"session_timeout"`
}

// Config is the fully decoded configuration for one process run.
type Config struct {
	HTTP   HTTPConfig   `json:"http" yaml:"http" mapstructure:"http"`
	Search SearchConfig `json:"search" yaml:"search" mapstructure:"search"`

	// BackendsFile optionally names an external descriptor file (yaml, toml, json).
	BackendsFile string `json:"backends_file,omitempty" yaml:"backends_file,omitempty" mapstructure:"backends_file"`

	// Backends is the ordered descriptor list. Order decides tie-breaks.
	Backends []BackendDescriptor `json:"backends" yaml:"backends" mapstructure:"backends"`
}

// FieldType names a schema field type for index creation.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldDouble FieldType = "double"
	FieldBool   FieldType = "bool"
)

// Field describes one document field in an index schema.
type Field struct {
	Name       string    `json:"name" yaml:"name" toml:"name"`
	Type       FieldType `json:"type" yaml:"type" toml:"type"`
	Key        bool      `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	Searchable bool      `json:"searchable,omitempty" yaml:"searchable,omitempty" toml:"searchable,omitempty"`
}

// Schema describes an index for the setup path.
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields" toml:"fields"`
}

// KeyField returns the name of the key field, or "id" when none is marked.
func (s Schema) KeyField() string {
	for _, f := range s.Fields {
		if f.Key {
			return f.Name
		}
	}
	return "id"
}

// SearchableFields returns the names of fields marked searchable.
func (s Schema) SearchableFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Searchable {
			names = append(names, f.Name)
		}
	}
	return names
}
