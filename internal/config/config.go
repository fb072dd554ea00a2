package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// DefaultFile is looked up in the project root; its absence is fine.
const DefaultFile = "devstack.toml"

// Config carries the tool's own knobs. Everything has a working default so
// the file is optional; it exists for repos whose layout diverges from the
// standard backend/frontend tree.
type Config struct {
	Root            string   `mapstructure:"root"`              // project root
	StateFile       string   `mapstructure:"state_file"`        // setup-state store path
	LogDir          string   `mapstructure:"log_dir"`           // per-service + self logs
	ComposeBin      string   `mapstructure:"compose_bin"`       // orchestrator binary
	EnvFile         string   `mapstructure:"env_file"`          // synchronized environment file
	RequiredEnvKeys []string `mapstructure:"required_env_keys"` // non-empty before manual start
	RegenCommand    string   `mapstructure:"regen_command"`     // external regeneration procedure
	FrontendURL     string   `mapstructure:"frontend_url"`      // printed after start
}

func Default() Config {
	return Config{
		Root:            ".",
		StateFile:       ".setup_progress",
		LogDir:          os.TempDir(),
		ComposeBin:      "docker",
		EnvFile:         "backend/.env",
		RequiredEnvKeys: []string{"SUPABASE_ANON_KEY"},
		RegenCommand:    "python3 setup.py --regenerate-env",
		FrontendURL:     "http://localhost:3000",
	}
}

// Load reads the optional TOML override file on top of defaults. A missing
// file yields defaults; a malformed file is a real error, since the operator
// wrote it on purpose.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("stat config: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
