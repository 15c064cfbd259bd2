// Package config loads viewgen.yaml, the per-directory settings that tell the
// compiler how the target toolkit is shaped.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the generation directory.
const FileName = "viewgen.yaml"

// Config is the decoded configuration file. Zero values mean "use the
// default".
type Config struct {
	OutputSuffix string  `yaml:"output_suffix"`
	Receiver     string  `yaml:"receiver"`
	Cache        string  `yaml:"cache"`
	ResolveTypes bool    `yaml:"resolve_types"`
	Goimports    *bool   `yaml:"goimports"`
	Jobs         int     `yaml:"jobs"`
	Toolkit      Toolkit `yaml:"toolkit"`
}

// Toolkit describes the call shapes of the widget toolkit. A name containing
// a '.' is a package function that takes the widget as its first argument;
// any other name is a method on the widget.
type Toolkit struct {
	ContainerAdd   string   `yaml:"container_add"`
	HandlerType    string   `yaml:"handler_type"`
	BlockHandler   string   `yaml:"block_handler"`
	UnblockHandler string   `yaml:"unblock_handler"`
	Switcher       Switcher `yaml:"switcher"`
}

// Switcher is the container that shows one branch of a conditional widget
// at a time.
type Switcher struct {
	New        string `yaml:"new"`
	Type       string `yaml:"type"`
	Add        string `yaml:"add"`
	Select     string `yaml:"select"`
	Transition string `yaml:"transition"`
}

// Default returns the built-in configuration.
func Default() *Config {
	goimports := true
	return &Config{
		OutputSuffix: "_view.go",
		Receiver:     "widgets",
		Goimports:    &goimports,
		Jobs:         4,
		Toolkit: Toolkit{
			ContainerAdd:   "ContainerAdd",
			HandlerType:    "uint",
			BlockHandler:   "HandlerBlock",
			UnblockHandler: "HandlerUnblock",
			Switcher: Switcher{
				New:        "NewStack()",
				Type:       "*Stack",
				Add:        "AddNamed",
				Select:     "SetVisibleChildName",
				Transition: "SetTransitionType",
			},
		},
	}
}

// Parse decodes a configuration file and fills in defaults. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.fill(Default())
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the configuration at path. If path is empty, dir/viewgen.yaml is
// used when it exists and the defaults otherwise.
func Load(path, dir string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// UseGoimports reports whether generated files are passed through goimports.
func (c *Config) UseGoimports() bool { return c.Goimports == nil || *c.Goimports }

func (c *Config) fill(d *Config) {
	setDefault(&c.OutputSuffix, d.OutputSuffix)
	setDefault(&c.Receiver, d.Receiver)
	if c.Goimports == nil {
		c.Goimports = d.Goimports
	}
	if c.Jobs <= 0 {
		c.Jobs = d.Jobs
	}
	t, dt := &c.Toolkit, d.Toolkit
	setDefault(&t.ContainerAdd, dt.ContainerAdd)
	setDefault(&t.HandlerType, dt.HandlerType)
	setDefault(&t.BlockHandler, dt.BlockHandler)
	setDefault(&t.UnblockHandler, dt.UnblockHandler)
	setDefault(&t.Switcher.New, dt.Switcher.New)
	setDefault(&t.Switcher.Type, dt.Switcher.Type)
	setDefault(&t.Switcher.Add, dt.Switcher.Add)
	setDefault(&t.Switcher.Select, dt.Switcher.Select)
	setDefault(&t.Switcher.Transition, dt.Switcher.Transition)
}

func setDefault(s *string, def string) {
	if *s == "" {
		*s = def
	}
}

func (c *Config) validate() error {
	if filepath.Ext(c.OutputSuffix) != ".go" {
		return fmt.Errorf("output_suffix %q must end in .go", c.OutputSuffix)
	}
	if !token.IsIdentifier(c.Receiver) {
		return fmt.Errorf("receiver %q is not a Go identifier", c.Receiver)
	}
	return nil
}
