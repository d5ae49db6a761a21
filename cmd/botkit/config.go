package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/en9inerd/botkit"
)

// fileConfig is the YAML configuration of the demo bot. ${VAR} references
// are expanded from the environment before parsing.
type fileConfig struct {
	APIURL   string  `yaml:"api_url"`
	StateDir string  `yaml:"state_dir"`
	Mode     string  `yaml:"mode"`
	Verbose  bool    `yaml:"verbose"`
	Workers  int     `yaml:"workers"`
	Admins   []int64 `yaml:"admins"`

	// Storage is "memory" (JSON snapshot in StateDir) or "bolt".
	Storage string `yaml:"storage"`

	Polling struct {
		Timeout            int  `yaml:"timeout"`
		DropPendingUpdates bool `yaml:"drop_pending_updates"`
	} `yaml:"polling"`

	Webhook struct {
		Listen      string `yaml:"listen"`
		Path        string `yaml:"path"`
		URL         string `yaml:"url"`
		Secret      string `yaml:"secret"`
		MetricsPath string `yaml:"metrics_path"`
	} `yaml:"webhook"`

	Profile struct {
		Name             string `yaml:"name"`
		ShortDescription string `yaml:"short_description"`
		Description      string `yaml:"description"`
	} `yaml:"profile"`

	ConversationTimeout time.Duration `yaml:"conversation_timeout"`
}

// loadConfig reads .env when present, then the YAML file at path. An empty
// path yields the zero config.
func loadConfig(path string) (*fileConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

func token() (string, error) {
	t := os.Getenv("BOTKIT_TOKEN")
	if t == "" {
		return "", errors.New("BOTKIT_TOKEN is not set (environment or .env)")
	}
	return t, nil
}

// openPersistence opens the store selected by cfg.Storage.
func (cfg *fileConfig) openPersistence() (botkit.Persistence, error) {
	dir := cfg.StateDir
	if dir == "" {
		dir = "./botkit-state"
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	switch cfg.Storage {
	case "", "memory":
		return botkit.NewMemoryPersistence(filepath.Join(dir, "data.json"))
	case "bolt":
		return botkit.OpenBolt(filepath.Join(dir, "botkit.db"))
	}
	return nil, fmt.Errorf("config: unknown storage %q", cfg.Storage)
}

// botConfig converts the file config into a botkit.Config.
func (cfg *fileConfig) botConfig(tok string) botkit.Config {
	c := botkit.Config{
		Token:    tok,
		APIURL:   cfg.APIURL,
		StateDir: cfg.StateDir,
		Mode:     cfg.Mode,
		Verbose:  cfg.Verbose,
		Workers:  cfg.Workers,
		Polling: botkit.PollingConfig{
			Timeout:            cfg.Polling.Timeout,
			DropPendingUpdates: cfg.Polling.DropPendingUpdates,
		},
		Webhook: botkit.WebhookConfig{
			ListenAddr:  cfg.Webhook.Listen,
			Path:        cfg.Webhook.Path,
			URL:         cfg.Webhook.URL,
			SecretToken: cfg.Webhook.Secret,
			MetricsPath: cfg.Webhook.MetricsPath,
		},
		Defaults:     &botkit.Defaults{ParseMode: botkit.ParseModeHTML},
		SyncCommands: true,
		MessageQueue: &botkit.MessageQueueConfig{},
	}
	if p := cfg.Profile; p.Name != "" || p.ShortDescription != "" || p.Description != "" {
		c.BotInfo = &botkit.BotInfo{
			Name:             p.Name,
			ShortDescription: p.ShortDescription,
			Description:      p.Description,
		}
	}
	return c
}
