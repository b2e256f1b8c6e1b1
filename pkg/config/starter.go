package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrExists is returned when a starter config would overwrite a file.
var ErrExists = errors.New("config file already exists")

const starterHeader = `# breadcrumbs configuration
#
# Every setting can be overridden with a BREADCRUMBS_ environment variable,
# for example BREADCRUMBS_SERVER_ADDR=0.0.0.0:7428. BREADCRUMBS_SOURCES
# replaces the source list with a comma-separated list of paths or URLs.

`

// starterDoc mirrors Config with durations as strings so the written
// file reads "250ms" instead of nanoseconds.
type starterDoc struct {
	Sources []starterSource `yaml:"sources"`
	Server  struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Watch struct {
		Enabled  bool   `yaml:"enabled"`
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
	HTTP struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"http"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Webhooks []starterWebhook `yaml:"webhooks"`
}

type starterSource struct {
	Path   string `yaml:"path,omitempty"`
	URL    string `yaml:"url,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type starterWebhook struct {
	Name    string `yaml:"name,omitempty"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token,omitempty"`
	Trigger string `yaml:"trigger"`
	Timeout string `yaml:"timeout"`
}

// Starter returns the document written by WriteStarter: the defaults with
// a single CSV source.
func Starter() *Config {
	cfg := DefaultConfig()
	cfg.Sources = []SourceConfig{{Path: "agent_logs.csv"}}
	return cfg
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	doc := starterDoc{}
	for _, s := range cfg.Sources {
		doc.Sources = append(doc.Sources, starterSource(s))
	}
	doc.Server.Addr = cfg.Server.Addr
	doc.Watch.Enabled = cfg.Watch.Enabled
	doc.Watch.Debounce = cfg.Watch.Debounce.String()
	doc.HTTP.Timeout = cfg.HTTP.Timeout.String()
	doc.Logging.Level = cfg.Logging.Level
	doc.Logging.Format = cfg.Logging.Format
	for _, wh := range cfg.Webhooks {
		doc.Webhooks = append(doc.Webhooks, starterWebhook{
			Name:    wh.Name,
			URL:     wh.URL,
			Token:   wh.Token,
			Trigger: string(wh.Trigger),
			Timeout: wh.Timeout.String(),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteStarter writes the starter config to path. An existing file is
// only replaced when force is set.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}

	body, err := Marshal(Starter())
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	data := append([]byte(starterHeader), body...)
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- config is not secret by default
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
