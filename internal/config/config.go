// Package config manages application configuration from various sources.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ServerConfig describes how to launch the completion language server.
type ServerConfig struct {
	// Command is the argv used to spawn the server process. The server is
	// expected to speak JSON-RPC 2.0 over stdio.
	Command []string `json:"command,omitempty"`
}

// CompletionConfig tunes the completion overlay behavior.
type CompletionConfig struct {
	// Cyclic makes Next/Previous wrap around instead of clamping at the ends.
	Cyclic       bool `json:"cyclic,omitempty"`
	TabSize      int  `json:"tabSize,omitempty"`
	IndentSize   int  `json:"indentSize,omitempty"`
	InsertSpaces bool `json:"insertSpaces,omitempty"`
}

// EditorConfig identifies the host editor to the language server.
type EditorConfig struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Config is the main configuration structure for the application.
type Config struct {
	WorkingDir string           `json:"wd,omitempty"`
	Debug      bool             `json:"debug,omitempty"`
	Server     ServerConfig     `json:"server"`
	Completion CompletionConfig `json:"completion"`
	Editor     EditorConfig     `json:"editor"`
}

const (
	appName         = "wingman"
	defaultTabSize  = 4
	defaultLogLevel = "info"
)

// Global configuration instance
var cfg *Config

// Load initializes the configuration from environment variables and config
// files. If debug is true, the log level is set to debug.
func Load(workingDir string, debug bool) (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		WorkingDir: workingDir,
	}

	configureViper()
	setDefaults(debug)

	if err := readConfig(viper.ReadInConfig()); err != nil {
		return cfg, err
	}

	mergeLocalConfig(workingDir)

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultLevel := slog.LevelInfo
	if cfg.Debug {
		defaultLevel = slog.LevelDebug
	}
	slog.SetLogLoggerLevel(defaultLevel)

	return cfg, nil
}

// Watch re-applies the configuration whenever the config file changes on
// disk, so settings like completion.cyclic take effect without a restart.
func Watch() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if cfg == nil {
			return
		}
		if err := viper.Unmarshal(cfg); err != nil {
			slog.Warn("Failed to reload config", "file", e.Name, "error", err)
			return
		}
		slog.Debug("Config reloaded", "file", e.Name, "op", e.Op.String())
	})
	viper.WatchConfig()
}

func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.AutomaticEnv()
}

func setDefaults(debug bool) {
	viper.SetDefault("server.command", []string{"copilot-language-server", "--stdio"})
	viper.SetDefault("completion.cyclic", false)
	viper.SetDefault("completion.tabSize", defaultTabSize)
	// The host has no separate indent-size concept; the original plugin
	// always reports 1.
	viper.SetDefault("completion.indentSize", 1)
	viper.SetDefault("completion.insertSpaces", false)
	viper.SetDefault("editor.name", appName)
	viper.SetDefault("editor.version", "")

	if debug {
		viper.SetDefault("debug", true)
		viper.Set("log.level", "debug")
	} else {
		viper.SetDefault("debug", false)
		viper.SetDefault("log.level", defaultLogLevel)
	}
}

func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// mergeLocalConfig loads and merges configuration from the working directory.
func mergeLocalConfig(workingDir string) {
	local := viper.New()
	local.SetConfigName(fmt.Sprintf(".%s", appName))
	local.SetConfigType("json")
	local.AddConfigPath(workingDir)

	if err := local.ReadInConfig(); err == nil {
		viper.MergeConfigMap(local.AllSettings())
	}
}

// Get returns the current configuration.
// It's safe to call this function multiple times.
func Get() *Config {
	return cfg
}

// WorkingDirectory returns the current working directory from the configuration.
func WorkingDirectory() string {
	if cfg == nil {
		panic("config not loaded")
	}
	return cfg.WorkingDir
}
