// Package config loads dictionary configuration from a JWCC
// (JSON-with-comments) file, standardizing it to plain JSON with
// tailscale/hujson before decoding.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/geowatson/cachedict"
)

// Attribute mirrors cachedict.AttributeSchema in its JSON-friendly form.
type Attribute struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	NullValue     string `json:"null_value"`
	Hierarchical  bool   `json:"hierarchical,omitempty"`
}

// SourceConfig selects and parameterizes a source/* adapter.
type SourceConfig struct {
	Kind string `json:"kind"` // "memory", "sqlite", "dynamo", "file"

	// SQLite
	DSN       string   `json:"dsn,omitempty"`
	Table     string   `json:"table,omitempty"`
	KeyColumn string   `json:"key_column,omitempty"`
	Columns   []string `json:"columns,omitempty"`

	// DynamoDB
	KeyAttribute string `json:"key_attribute,omitempty"`

	// file
	Path string `json:"path,omitempty"`
}

// Config is the full on-disk shape of a dictionary definition.
type Config struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
	LifetimeMinSec uint64   `json:"lifetime_min_sec"`
	LifetimeMaxSec uint64   `json:"lifetime_max_sec"`
	CacheSize  uint64       `json:"cache_size"`
	Source     SourceConfig `json:"source"`
	ResourceLimits struct {
		MaxConcurrentRefreshes int64   `json:"max_concurrent_refreshes,omitempty"`
		SourceQPS              float64 `json:"source_qps,omitempty"`
	} `json:"resource_limits,omitempty"`
}

var (
	errNameRequired      = errors.New("cachedict/config: \"name\" is required")
	errNoAttributes      = errors.New("cachedict/config: at least one attribute is required")
	errCacheSizeZero     = errors.New("cachedict/config: \"cache_size\" must be > 0")
	errLifetimeInverted  = errors.New("cachedict/config: \"lifetime_max_sec\" must be >= \"lifetime_min_sec\"")
	errUnknownKind       = errors.New("cachedict/config: unknown attribute kind")
)

// Load reads path, standardizes JWCC to JSON, and decodes + validates a
// Config.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cachedict/config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("cachedict/config: invalid JWCC in %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("cachedict/config: invalid JSON in %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Name == "" {
		return errNameRequired
	}
	if len(cfg.Attributes) == 0 {
		return errNoAttributes
	}
	if cfg.CacheSize == 0 {
		return errCacheSizeZero
	}
	if cfg.LifetimeMaxSec < cfg.LifetimeMinSec {
		return errLifetimeInverted
	}
	for _, a := range cfg.Attributes {
		if _, err := kindFromString(a.Kind); err != nil {
			return err
		}
	}
	return nil
}

func kindFromString(s string) (cachedict.Kind, error) {
	switch s {
	case "uint8":
		return cachedict.KindUint8, nil
	case "uint16":
		return cachedict.KindUint16, nil
	case "uint32":
		return cachedict.KindUint32, nil
	case "uint64":
		return cachedict.KindUint64, nil
	case "int8":
		return cachedict.KindInt8, nil
	case "int16":
		return cachedict.KindInt16, nil
	case "int32":
		return cachedict.KindInt32, nil
	case "int64":
		return cachedict.KindInt64, nil
	case "float32":
		return cachedict.KindFloat32, nil
	case "float64":
		return cachedict.KindFloat64, nil
	case "string":
		return cachedict.KindString, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownKind, s)
	}
}

// Schema converts the config's attribute list into the schema shape
// cachedict.New expects.
func (c Config) Schema() ([]cachedict.AttributeSchema, error) {
	schema := make([]cachedict.AttributeSchema, len(c.Attributes))
	for i, a := range c.Attributes {
		kind, err := kindFromString(a.Kind)
		if err != nil {
			return nil, err
		}
		schema[i] = cachedict.AttributeSchema{
			Name:         a.Name,
			Kind:         kind,
			NullValue:    a.NullValue,
			Hierarchical: a.Hierarchical,
		}
	}
	return schema, nil
}

// Lifetime converts the config's lifetime bounds.
func (c Config) Lifetime() cachedict.Lifetime {
	return cachedict.Lifetime{MinSec: c.LifetimeMinSec, MaxSec: c.LifetimeMaxSec}
}

// Limits converts the config's resource-limit block.
func (c Config) Limits() cachedict.ResourceLimits {
	return cachedict.ResourceLimits{
		MaxConcurrentRefreshes: c.ResourceLimits.MaxConcurrentRefreshes,
		SourceQPS:              c.ResourceLimits.SourceQPS,
	}
}
