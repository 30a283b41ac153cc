package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"ssot/internal/cache"
	"ssot/internal/detect"
	"ssot/internal/edit"
	"ssot/internal/model"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

var validate = validator.New()

type Config struct {
	Backend          string `validate:"oneof=remote local"`
	APIBase          string `validate:"required_if=Backend remote,omitempty,url"`
	DataDir          string `validate:"required_if=Backend local"`
	Follow           bool
	TablesFile       string
	CacheDir         string
	NoCache          bool
	Theme            Theme `validate:"oneof=dark light"`
	Offline          bool
	OpenAIModel      string
	OpenAIBase       string `validate:"omitempty,url"`
	OpenAITimeoutSec int    `validate:"gte=0"`
	ExportFormat     string `validate:"omitempty,oneof=csv ndjson"`
	ExportOut        string `validate:"required_with=ExportFormat"`
	Delimiter        string
	HTTPTimeout      time.Duration `validate:"gte=0"`
	ShowVersion      bool

	// Resolved by Finish.
	Families map[model.ResourceType]edit.Family `validate:"-"`
	delim    rune
}

// BindFlags registers every option on fs with environment-backed defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Backend, "backend", getenvDefault("SSOT_BACKEND", BackendRemote), "table source: remote|local")
	fs.StringVar(&c.APIBase, "api-base", getenvDefault("SSOT_API_BASE", "http://localhost:3000/api"), "REST base URL for the remote backend")
	fs.StringVar(&c.DataDir, "data-dir", getenvDefault("SSOT_DATA_DIR", ""), "directory of <resource>.csv files for the local backend")
	fs.BoolVar(&c.Follow, "follow", false, "reload a local table when its file grows")
	fs.StringVar(&c.TablesFile, "tables", getenvDefault("SSOT_TABLES", ""), "YAML file overriding facets and governed columns")
	fs.StringVar(&c.CacheDir, "cache-dir", getenvDefault("SSOT_CACHE_DIR", cache.DefaultDir()), "snapshot cache directory")
	fs.BoolVar(&c.NoCache, "no-cache", false, "disable the snapshot cache (skip read/write)")
	fs.StringVar((*string)(&c.Theme), "theme", string(ThemeDark), "theme: dark|light")
	fs.BoolVar(&c.Offline, "offline", false, "disable OpenAI summaries")
	fs.StringVar(&c.OpenAIModel, "openai-model", getenvDefault("SSOT_OPENAI_MODEL", "gpt-5-mini"), "OpenAI model override")
	fs.StringVar(&c.OpenAIBase, "openai-base-url", getenvDefault("SSOT_OPENAI_BASE_URL", ""), "OpenAI base URL override")
	fs.IntVar(&c.OpenAITimeoutSec, "openai-timeout-sec", getenvDefaultInt("SSOT_OPENAI_TIMEOUT_SEC", 120), "OpenAI request timeout in seconds")
	fs.StringVar(&c.ExportFormat, "export", "", "export format for the export command: csv|ndjson")
	fs.StringVar(&c.ExportOut, "out", "", "output path for export")
	fs.StringVar(&c.Delimiter, "delimiter", getenvDefault("SSOT_DELIMITER", "auto"), "CSV delimiter: auto|comma|semicolon|tab|pipe|<char>")
	fs.DurationVar(&c.HTTPTimeout, "http-timeout", getenvDefaultDuration("SSOT_HTTP_TIMEOUT", 0), "HTTP request timeout (0 = none)")
	fs.BoolVar(&c.ShowVersion, "version", false, "print version and exit")
}

// Finish validates the parsed options and resolves the delimiter and table
// families.
func (c *Config) Finish() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid option %s (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	d, ok := detect.ParseDelimiter(c.Delimiter)
	if !ok {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	c.delim = d
	if c.Follow && c.Backend != BackendLocal {
		return errors.New("--follow requires --backend local")
	}
	fams, err := LoadFamilies(c.TablesFile)
	if err != nil {
		return err
	}
	c.Families = fams
	return nil
}

// Delim is the parsed delimiter; 0 means sniff.
func (c *Config) Delim() rune { return c.delim }

func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvDefaultInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvDefaultDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := time.ParseDuration(v); err == nil {
			return n
		}
	}
	return d
}

func (c *Config) OpenAIKey() string { return os.Getenv("OPENAI_API_KEY") }

func (c *Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAITimeoutSec) * time.Second
}

func (c *Config) String() string {
	src := c.APIBase
	if c.Backend == BackendLocal {
		src = c.DataDir
	}
	return fmt.Sprintf("backend=%s source=%s follow=%v theme=%s offline=%v cache=%v", c.Backend, src, c.Follow, c.Theme, c.Offline, !c.NoCache)
}
