package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/termpick/internal/config"
	"github.com/runger/termpick/internal/prompt"
)

var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	Short:   "Get or set configuration values",
	GroupID: groupSetup,
	Long: `Get or set termpick configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/termpick/config.yaml (XDG compliant).

Keys are in the format: section.key
Sections: screen, selection, keys, log

Key bindings take a comma-separated list of keys; an empty value
restores the built-in binding.

Examples:
  termpick config                            # List all keys
  termpick config selection.wrap true        # Wrap around at the ends
  termpick config screen.border rounded      # Rounded frame
  termpick config keys.search ctrl+s,ctrl+k  # Search with Ctrl-s or Ctrl-k
  termpick config keys.search ""             # Back to Ctrl-f`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		return listConfig(out, cfg)
	case 1:
		return getConfig(out, cfg, args[0])
	case 2:
		return setConfig(out, cfg, args[0], args[1])
	}

	return nil
}

func listConfig(out io.Writer, cfg *config.Config) error {
	colors := newPalette(out)
	fmt.Fprintln(out, colors.bold("Configuration Keys"))
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintln(out)

	var failedKeys []string
	for _, key := range cfg.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}

		displayValue := value
		if displayValue == "" {
			displayValue = colors.dim("(not set)")
		}

		fmt.Fprintf(out, "  %s = %s\n", colors.cyan(key), displayValue)
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(out, "\n%s Failed to retrieve keys: %s\n", colors.yellow("Warning:"), strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Bindable actions: %s\n", strings.Join(prompt.Actions(), ", "))
	fmt.Fprintf(out, "Config file: %s\n", configFile())

	return nil
}

func getConfig(out io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintln(out, newPalette(out).dim("(not set)"))
	} else {
		fmt.Fprintln(out, value)
	}

	return nil
}

func setConfig(out io.Writer, cfg *config.Config, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := prompt.ValidateKeys(cfg.Keys); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path := configFile()
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s = %s\n", newPalette(out).cyan(key), value)
	fmt.Fprintf(out, "Saved to: %s\n", path)

	return nil
}
