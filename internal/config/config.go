package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/runger/termpick/internal/keymap"
	"github.com/runger/termpick/internal/screen"
)

// Config represents the termpick configuration.
type Config struct {
	Screen    ScreenConfig        `yaml:"screen"`
	Selection SelectionConfig     `yaml:"selection"`
	Keys      map[string][]string `yaml:"keys,omitempty"` // Action name -> key specs
	Log       LogConfig           `yaml:"log"`
}

// ScreenConfig holds the drawing surface settings.
type ScreenConfig struct {
	Width  int    `yaml:"width"`  // Grid width (0 = terminal width)
	Height int    `yaml:"height"` // Grid height (0 = terminal height - 1)
	Title  string `yaml:"title"`  // Drawn in the top border
	Border string `yaml:"border"` // normal, rounded, thick, double, hidden
	Cursor string `yaml:"cursor"` // Single-rune selection marker
}

// SelectionConfig holds selection prompt settings.
type SelectionConfig struct {
	ItemsOnScreen int  `yaml:"items_on_screen"` // Visible choices (0 = fit to screen)
	Wrap          bool `yaml:"wrap"`            // Up on the first item moves to the last
	SearchWorkers int  `yaml:"search_workers"`  // Parallel filter workers (0 = GOMAXPROCS)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (overrides default)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Screen: ScreenConfig{
			Border: "normal",
			Cursor: ">",
		},
		Selection: SelectionConfig{
			ItemsOnScreen: 0, // Fit to screen, capped at 20
			Wrap:          false,
			SearchWorkers: 0,
		},
		Log: LogConfig{
			Level: "warn",
			File:  "", // Use default from paths
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get retrieves a configuration value by dot-separated key.
// For example: "selection.wrap" or "keys.search".
func (c *Config) Get(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "screen":
		return c.getScreenField(field)
	case "selection":
		return c.getSelectionField(field)
	case "keys":
		return strings.Join(c.Keys[field], ","), nil
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key. Key bindings take a
// comma-separated list of key specs; an empty value restores the default.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "screen":
		return c.setScreenField(field, value)
	case "selection":
		return c.setSelectionField(field, value)
	case "keys":
		return c.setKeysField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) getScreenField(field string) (string, error) {
	switch field {
	case "width":
		return strconv.Itoa(c.Screen.Width), nil
	case "height":
		return strconv.Itoa(c.Screen.Height), nil
	case "title":
		return c.Screen.Title, nil
	case "border":
		return c.Screen.Border, nil
	case "cursor":
		return c.Screen.Cursor, nil
	default:
		return "", fmt.Errorf("unknown field: screen.%s", field)
	}
}

func (c *Config) setScreenField(field, value string) error {
	switch field {
	case "width", "height":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field, err)
		}
		if v < 0 {
			return fmt.Errorf("invalid %s: must be non-negative", field)
		}
		if field == "width" {
			c.Screen.Width = v
		} else {
			c.Screen.Height = v
		}
	case "title":
		c.Screen.Title = value
	case "border":
		if _, ok := screen.BorderByName(value); !ok {
			return fmt.Errorf("invalid border: %s (must be one of %s)", value, strings.Join(screen.BorderNames(), ", "))
		}
		c.Screen.Border = value
	case "cursor":
		if utf8.RuneCountInString(value) != 1 {
			return fmt.Errorf("invalid cursor: %q (must be a single character)", value)
		}
		c.Screen.Cursor = value
	default:
		return fmt.Errorf("unknown field: screen.%s", field)
	}
	return nil
}

func (c *Config) getSelectionField(field string) (string, error) {
	switch field {
	case "items_on_screen":
		return strconv.Itoa(c.Selection.ItemsOnScreen), nil
	case "wrap":
		return strconv.FormatBool(c.Selection.Wrap), nil
	case "search_workers":
		return strconv.Itoa(c.Selection.SearchWorkers), nil
	default:
		return "", fmt.Errorf("unknown field: selection.%s", field)
	}
}

func (c *Config) setSelectionField(field, value string) error {
	switch field {
	case "items_on_screen":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for items_on_screen: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid items_on_screen: must be non-negative")
		}
		c.Selection.ItemsOnScreen = v
	case "wrap":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for wrap: %w", err)
		}
		c.Selection.Wrap = v
	case "search_workers":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for search_workers: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid search_workers: must be non-negative")
		}
		c.Selection.SearchWorkers = v
	default:
		return fmt.Errorf("unknown field: selection.%s", field)
	}
	return nil
}

func (c *Config) setKeysField(action, value string) error {
	if action == "" {
		return errors.New("missing action name")
	}
	if strings.TrimSpace(value) == "" {
		delete(c.Keys, action)
		return nil
	}
	var specs []string
	for _, spec := range strings.Split(value, ",") {
		specs = append(specs, strings.TrimSpace(spec))
	}
	if _, err := keymap.ParseSpecs(specs); err != nil {
		return fmt.Errorf("invalid keys for %s: %w", action, err)
	}
	if c.Keys == nil {
		c.Keys = make(map[string][]string)
	}
	c.Keys[action] = specs
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Screen.Width < 0 {
		return errors.New("screen.width must be >= 0")
	}

	if c.Screen.Height < 0 {
		return errors.New("screen.height must be >= 0")
	}

	if _, ok := screen.BorderByName(c.Screen.Border); !ok {
		return fmt.Errorf("screen.border must be one of %s (got: %s)", strings.Join(screen.BorderNames(), ", "), c.Screen.Border)
	}

	if utf8.RuneCountInString(c.Screen.Cursor) != 1 {
		return fmt.Errorf("screen.cursor must be a single character (got: %q)", c.Screen.Cursor)
	}

	if c.Selection.ItemsOnScreen < 0 {
		return errors.New("selection.items_on_screen must be >= 0")
	}

	if c.Selection.SearchWorkers < 0 {
		return errors.New("selection.search_workers must be >= 0")
	}

	for action, specs := range c.Keys {
		if _, err := keymap.ParseSpecs(specs); err != nil {
			return fmt.Errorf("keys.%s: %w", action, err)
		}
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TERMPICK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("TERMPICK_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("TERMPICK_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// ListKeys returns the user-facing configuration keys, including one
// keys.<action> entry per action that currently has an override.
func (c *Config) ListKeys() []string {
	keys := []string{
		"screen.width",
		"screen.height",
		"screen.title",
		"screen.border",
		"screen.cursor",
		"selection.items_on_screen",
		"selection.wrap",
		"selection.search_workers",
		"log.level",
		"log.file",
	}
	actions := make([]string, 0, len(c.Keys))
	for action := range c.Keys {
		actions = append(actions, "keys."+action)
	}
	sort.Strings(actions)
	return append(keys, actions...)
}

// LogFile returns the configured log file, falling back to the default path.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return DefaultPaths().LogFile()
}

// Theme builds the screen theme described by the config.
func (c *Config) Theme() screen.Theme {
	theme := screen.DefaultTheme()
	if b, ok := screen.BorderByName(c.Screen.Border); ok {
		theme.Border = b
	}
	if r, _ := utf8.DecodeRuneInString(c.Screen.Cursor); r != utf8.RuneError {
		theme.Cursor = r
	}
	return theme
}
