package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "events.log"
)

type Configuration struct {
	configFs afero.Fs

	Expansion  Expansion  `json:"expansion"`
	Playground Playground `json:"playground"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Expansion holds the limits of the expansion engine.
type Expansion struct {
	Glob          bool `json:"glob"`
	MaxBraceWords int  `json:"max_brace_words" validate:"gte=1"`
	MaxDepth      int  `json:"max_depth" validate:"gte=1,lte=4096"`
	PoolSize      int  `json:"pool_size" validate:"gte=0,lte=1024"`
}

type Playground struct {
	Prompt             string `json:"prompt" validate:"required"`
	ContinuationPrompt string `json:"continuation_prompt" validate:"required"`
	HistoryFile        string `json:"history_file"`
	CommandTimeout     int    `json:"command_timeout" validate:"gte=0"` // Seconds, 0 disables the limit.
	Home               string `json:"home"`
}

// Timeout returns the command substitution time limit, zero if unlimited.
func (p *Playground) Timeout() time.Duration {
	return time.Duration(p.CommandTimeout) * time.Second
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewMemMapFs()
	}
	return c.configFs
}

// OpenAppLog opens the event log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// HistoryPath returns the playground history file, empty if history is
// disabled. Relative paths are resolved against the configuration directory.
func (c *Configuration) HistoryPath() string {
	name := c.Playground.HistoryFile
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if bp, ok := c.configFs.(*afero.BasePathFs); ok {
		if real, err := bp.RealPath(name); err == nil {
			return real
		}
	}
	return name
}

// Default returns the built-in configuration, it isn't backed by a
// directory.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
