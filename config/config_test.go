package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geowatson/cachedict"
	"github.com/geowatson/cachedict/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_ParsesJWCCWithComments(t *testing.T) {
	path := writeConfig(t, `{
  // this is a JWCC config, comments and trailing commas are fine
  "name": "users",
  "attributes": [
    { "name": "age", "kind": "uint32", "null_value": "0" },
    { "name": "name", "kind": "string", "null_value": "" },
  ],
  "lifetime_min_sec": 60,
  "lifetime_max_sec": 120,
  "cache_size": 1024,
  "source": { "kind": "memory", "columns": ["age", "name"] },
}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "users", cfg.Name)
	assert.Equal(t, uint64(1024), cfg.CacheSize)

	schema, err := cfg.Schema()
	require.NoError(t, err)

	want := []cachedict.AttributeSchema{
		{Name: "age", Kind: cachedict.KindUint32, NullValue: "0"},
		{Name: "name", Kind: cachedict.KindString, NullValue: ""},
	}
	if diff := cmp.Diff(want, schema); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, cfg.Lifetime())
}

func TestLoad_RejectsMissingName(t *testing.T) {
	path := writeConfig(t, `{
  "attributes": [{ "name": "age", "kind": "uint32", "null_value": "0" }],
  "cache_size": 16,
}`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownKind(t *testing.T) {
	path := writeConfig(t, `{
  "name": "bad",
  "attributes": [{ "name": "age", "kind": "bignum", "null_value": "0" }],
  "cache_size": 16,
}`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvertedLifetime(t *testing.T) {
	path := writeConfig(t, `{
  "name": "bad",
  "attributes": [{ "name": "age", "kind": "uint32", "null_value": "0" }],
  "lifetime_min_sec": 120,
  "lifetime_max_sec": 60,
  "cache_size": 16,
}`)
	_, err := config.Load(path)
	assert.Error(t, err)
}
