package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	defaultPath = "~/.tranquil"
	defaultAPI  = "http://localhost:8000/api"
)

// Config describes where client state lives and which API it talks to.
type Config interface {
	BasePath() string
	APIBaseURL() string
	Debug() bool
	Location() *time.Location
}

// LoadConfig resolves configuration from .env, the .tranquil config file, the
// TRANQUIL_* environment and any flags bound into viper by the caller.
func LoadConfig() (Config, error) {
	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("store: read .env: %w", err)
	}

	viper.SetDefault("path", defaultPath)
	viper.SetDefault("api", defaultAPI)
	viper.SetDefault("debug", false)
	viper.SetDefault("timezone", "Local")
	viper.SetConfigName(".tranquil") // .yaml is implicit
	viper.SetEnvPrefix("TRANQUIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if override := os.Getenv("TRANQUIL_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath("./")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(viper.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	loc, err := loadLocation(viper.GetString("timezone"))
	if err != nil {
		return nil, err
	}

	return &fileConfig{
		Path:     path,
		API:      strings.TrimRight(viper.GetString("api"), "/"),
		Verbose:  viper.GetBool("debug"),
		location: loc,
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("store: timezone %q: %w", name, err)
	}
	return loc, nil
}

type fileConfig struct {
	Path    string `json:"path"`
	API     string `json:"api"`
	Verbose bool   `json:"debug"`

	location *time.Location
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) APIBaseURL() string {
	return f.API
}

func (f *fileConfig) Debug() bool {
	return f.Verbose
}

func (f *fileConfig) Location() *time.Location {
	if f.location == nil {
		return time.Local
	}
	return f.location
}

// StaticConfig is a Config with fixed values, used by tests and embedders that
// do not want viper involved.
type StaticConfig struct {
	Path    string
	API     string
	Verbose bool
	Zone    *time.Location
}

func (s StaticConfig) BasePath() string   { return s.Path }
func (s StaticConfig) APIBaseURL() string { return s.API }
func (s StaticConfig) Debug() bool        { return s.Verbose }

func (s StaticConfig) Location() *time.Location {
	if s.Zone == nil {
		return time.Local
	}
	return s.Zone
}
