package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/pinvokegen/config"
	"github.com/teranos/pinvokegen/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pinvokegen configuration",
	Long: `Display and manage pinvokegen configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (PINVOKEGEN_* prefix)
3. Project config (./pinvokegen.toml, searched upward)
4. User config (~/.pinvokegen/config.toml)
5. Default values

Examples:
  pinvokegen config show                  # Show current configuration
  pinvokegen config show --format json    # Show configuration as JSON
  pinvokegen config validate              # Validate current configuration
  pinvokegen config init -n Acme.Interop  # Create pinvokegen.toml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged configuration from all sources",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runConfigWhere,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create pinvokegen.toml in the current directory",
	Long: `Write a pinvokegen.toml holding the default configuration.

An existing file is only replaced with --force; the previous contents are
kept as rotating .back1/.back2/.back3 backups.`,
	RunE: runConfigInit,
}

var (
	configFormat    string
	configInitForce bool
	configInitNS    string
	configInitLib   string
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing pinvokegen.toml")
	configInitCmd.Flags().StringVarP(&configInitNS, "namespace", "n", "", "Namespace of the generated bindings")
	configInitCmd.Flags().StringVarP(&configInitLib, "library", "l", "", "Native library the bindings import from")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

// renderConfig marshals cfg in one of the supported formats
func renderConfig(cfg *config.Config, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to JSON")
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to YAML")
		}
		return "# pinvokegen configuration\n" + string(data), nil

	case "toml":
		data, err := config.Marshal(cfg)
		if err != nil {
			return "", err
		}
		return "# pinvokegen configuration\n" + string(data), nil
	}
	return "", errors.NewInvalidArgumentError("unsupported format: %s (supported: toml, json, yaml)", format)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	out, err := renderConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	pterm.Info.Println("Configuration sources, lowest precedence first:")
	for _, path := range config.ConfigPaths() {
		status := pterm.Red("missing")
		if _, err := os.Stat(path); err == nil {
			status = pterm.Green("found")
		}
		pterm.Printf("  %s  %s\n", path, status)
	}
	pterm.Printf("  %s  %s\n", config.EnvPrefix+"_*", pterm.LightCyan("environment"))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to determine working directory")
	}
	path := filepath.Join(wd, config.ProjectConfigName)

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return errors.WithHint(
			errors.Newf("%s already exists", path),
			"pass --force to overwrite it",
		)
	}

	cfg := config.Default()
	cfg.Output.Namespace = configInitNS
	cfg.Output.LibraryPath = configInitLib
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	if cfg.Output.Namespace == "" {
		pterm.Warning.Println("output.namespace is empty; set it before generating")
	}
	return nil
}
