package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssot/internal/edit"
	"ssot/internal/model"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var c Config
	fs := pflag.NewFlagSet("ssot", pflag.ContinueOnError)
	c.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &c, c.Finish()
}

func TestDefaults(t *testing.T) {
	t.Setenv("SSOT_API_BASE", "http://api.test/api")
	c, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, c.Backend)
	assert.Equal(t, "http://api.test/api", c.APIBase)
	assert.Equal(t, ThemeDark, c.Theme)
	assert.Equal(t, rune(0), c.Delim())
	assert.Equal(t, time.Duration(0), c.HTTPTimeout)
	assert.Len(t, c.Families, 4)
}

func TestLocalNeedsDataDir(t *testing.T) {
	_, err := parse(t, "--backend", "local")
	assert.ErrorContains(t, err, "DataDir")

	c, err := parse(t, "--backend", "local", "--data-dir", t.TempDir(), "--follow", "--delimiter", "semicolon")
	require.NoError(t, err)
	assert.Equal(t, ';', c.Delim())
}

func TestRejections(t *testing.T) {
	cases := [][]string{
		{"--backend", "sql"},
		{"--theme", "neon"},
		{"--api-base", "not a url"},
		{"--export", "csv"},
		{"--export", "xml", "--out", "x.xml"},
		{"--delimiter", "ab"},
		{"--follow"},
		{"--http-timeout", "-1s"},
	}
	for _, args := range cases {
		_, err := parse(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestTablesFileOverridesOneFamily(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tables.yaml")
	doc := `tables:
  - resource: campaign
    facets:
      - {name: Radia ID, column: RADIA_ID}
      - {name: Status, column: STATUS}
    governed:
      CAMPAIGN_NAME:
        scope: BY_COMPOUND_KEY
        keys: [RADIA_ID, CAMPAIGN_NAME]
        readOnly: [RADIA_ID]
`
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))
	c, err := parse(t, "--tables", p)
	require.NoError(t, err)
	camp := c.Families[model.ResourceCampaign]
	require.Len(t, camp.Facets, 2)
	assert.Equal(t, "STATUS", camp.Facets[1].Column)
	assert.Equal(t, edit.ScopeByCompoundKey, camp.Governed["CAMPAIGN_NAME"].Scope)
	// untouched families keep their defaults
	assert.Contains(t, c.Families[model.ResourceTargeting].Governed, "PLACEMENTNAME")
}

func TestParseFamiliesErrors(t *testing.T) {
	bad := []string{
		"tables:\n  - resource: nope\n",
		"tables:\n  - resource: campaign\n  - resource: campaign\n",
		"tables:\n  - resource: campaign\n    colour: red\n",
		"tables:\n  - resource: campaign\n    facets:\n      - {name: X}\n",
		"tables:\n  - resource: campaign\n    governed:\n      A: {scope: BY_KEY, keys: [A]}\n",
	}
	for _, doc := range bad {
		_, err := ParseFamilies([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func parseServer(t *testing.T, args ...string) (*ServerConfig, error) {
	t.Helper()
	var c ServerConfig
	fs := pflag.NewFlagSet("ssotapi", pflag.ContinueOnError)
	c.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &c, c.Finish()
}

func TestServerConfig(t *testing.T) {
	c, err := parseServer(t)
	require.NoError(t, err)
	assert.Equal(t, ":3000", c.Addr)
	assert.Equal(t, 200, c.DemoRows)

	_, err = parseServer(t, "--addr", "localhost:8080", "--seed-dir", t.TempDir(), "--persist")
	assert.NoError(t, err)

	_, err = parseServer(t, "--persist")
	assert.ErrorContains(t, err, "Persist")
	_, err = parseServer(t, "--addr", "nope")
	assert.ErrorContains(t, err, "Addr")
	_, err = parseServer(t, "--demo-rows", "-1")
	assert.ErrorContains(t, err, "DemoRows")
}
