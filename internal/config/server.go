package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// ServerConfig configures the reference table API.
type ServerConfig struct {
	Addr     string `validate:"required,hostname_port"`
	SeedDir  string
	DemoRows int `validate:"gte=0"`
	Seed     int64
	Persist  bool `validate:"excluded_without=SeedDir"`
}

func (c *ServerConfig) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", getenvDefault("SSOT_API_ADDR", ":3000"), "listen address")
	fs.StringVar(&c.SeedDir, "seed-dir", getenvDefault("SSOT_SEED_DIR", ""), "directory of <resource>.csv files to serve")
	fs.IntVar(&c.DemoRows, "demo-rows", getenvDefaultInt("SSOT_DEMO_ROWS", 200), "targeting rows to generate for tables without a file")
	fs.Int64Var(&c.Seed, "seed", 1, "demo data seed")
	fs.BoolVar(&c.Persist, "persist", false, "write updates back to --seed-dir")
}

func (c *ServerConfig) Finish() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid option %s (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}
