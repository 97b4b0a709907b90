package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/labsense/internal/model"
)

// secretEnv lists the conventional variables accepted for each secret, after
// the LABSENSE_* form
var secretEnv = map[string][]string{
	"parse.pdf_license_key":     {"UNIPDF_LICENSE_KEY"},
	"speech.api_key":            {"OPENAI_API_KEY"},
	"messaging.access_token":    {"WHATSAPP_ACCESS_TOKEN"},
	"messaging.phone_number_id": {"WHATSAPP_PHONE_NUMBER_ID"},
	"cache.redis_password":      {"REDIS_PASSWORD"},
}

// llmKeyEnv is the provider specific API key variable
var llmKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// setDefaults registers every default so AutomaticEnv can override nested keys
func setDefaults(v *viper.Viper) {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	for key, value := range flatten("", tree) {
		v.SetDefault(key, value)
	}
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			for ck, cv := range flatten(key, child) {
				out[ck] = cv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func bindSecretEnv(v *viper.Viper) {
	for key, names := range secretEnv {
		envs := append([]string{"LABSENSE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	_ = v.BindEnv("llm.api_key", "LABSENSE_LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", "LABSENSE_LLM_BASE_URL", "OLLAMA_BASE_URL")
}

// loadConfig merges defaults, the config file and the environment
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		if env, ok := llmKeyEnv[strings.ToLower(cfg.LLM.Provider)]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}
	return cfg, nil
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage labsense configuration",
	Long: `Manage labsense configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LABSENSE_*)
3. Config file (~/.labsense/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file and environment. Secrets are never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Println(string(yamlData))

		fmt.Println("Secrets:")
		fmt.Printf("  llm api key:            %s\n", presence(cfg.LLM.APIKey))
		fmt.Printf("  speech api key:         %s\n", presence(cfg.Speech.APIKey))
		fmt.Printf("  whatsapp access token:  %s\n", presence(cfg.Messaging.AccessToken))
		fmt.Printf("  pdf license key:        %s\n", presence(cfg.Parse.PDFLicenseKey))
		fmt.Println()
		fmt.Println("═══════════════════════════════════════════════════════════")

		return nil
	},
}

func presence(secret string) string {
	if secret == "" {
		return "not set"
	}
	return "set"
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.labsense/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".labsense", "config.yaml")
		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  labsense config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n\n", configPath)

		return nil
	},
}

// writeDefaultConfig writes the commented default configuration. An existing
// file is never overwritten.
func writeDefaultConfig(configPath string) (err error) {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'labsense config show' to view it, or delete it first to recreate", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# labsense configuration\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (LABSENSE_*)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")
	printf("%s", yamlData)
	printf("\n# Secrets (use environment variables, they are never written here):\n")
	printf("#   export OPENAI_API_KEY=sk-...            # openai speech or llm translation\n")
	printf("#   export ANTHROPIC_API_KEY=sk-ant-...     # llm translation\n")
	printf("#   export GEMINI_API_KEY=...               # llm translation\n")
	printf("#   export WHATSAPP_ACCESS_TOKEN=...\n")
	printf("#   export WHATSAPP_PHONE_NUMBER_ID=...\n")
	printf("#   export UNIPDF_LICENSE_KEY=...           # PDF reports\n")

	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
