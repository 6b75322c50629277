package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the connection and paging settings of a feeds session.
type Config struct {
	APIURL          string
	WSURL           string
	APIKey          string
	UserID          string
	UserToken       string
	PageSize        int
	CommentPageSize int
	DedupeWindow    int
}

const (
	defaultConfigPath      = "~/.config/feeds/config.toml"
	defaultAPIURL          = "https://feeds.stream-io-api.com"
	defaultWSURL           = "wss://feeds.stream-io-api.com/api/v2/connect"
	defaultPageSize        = 20
	defaultCommentPageSize = 10
	defaultDedupeWindow    = 1024
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		WSURL:           defaultWSURL,
		PageSize:        defaultPageSize,
		CommentPageSize: defaultCommentPageSize,
		DedupeWindow:    defaultDedupeWindow,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL          string `toml:"api_url"`
		WSURL           string `toml:"ws_url"`
		APIKey          string `toml:"api_key"`
		UserID          string `toml:"user_id"`
		UserToken       string `toml:"user_token"`
		PageSize        int    `toml:"page_size"`
		CommentPageSize int    `toml:"comment_page_size"`
		DedupeWindow    int    `toml:"dedupe_window"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIURL = orDefault(raw.APIURL, defaultAPIURL)
	cfg.WSURL = orDefault(raw.WSURL, defaultWSURL)
	cfg.APIKey = strings.TrimSpace(raw.APIKey)
	cfg.UserID = strings.TrimSpace(raw.UserID)
	cfg.UserToken = strings.TrimSpace(raw.UserToken)
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.CommentPageSize > 0 {
		cfg.CommentPageSize = raw.CommentPageSize
	}
	if raw.DedupeWindow > 0 {
		cfg.DedupeWindow = raw.DedupeWindow
	}

	return cfg, nil
}

// Validate reports the settings a session cannot start without.
func (c Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.UserID == "" {
		missing = append(missing, "user_id")
	}
	if c.UserToken == "" {
		missing = append(missing, "user_token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
