package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/labsense/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
	logger    = zerolog.Nop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "labsense",
	Short: "labsense - Plain-language explanations of lab reports (non-diagnostic)",
	Long: `labsense reads a lab report, compares every value with the reference
range printed next to it, and explains the results in plain language.

It can translate the explanation (Marathi by default) with numbers and units
protected, read it aloud, and send it to the patient over WhatsApp.

labsense does not diagnose. It only restates what the report prints.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := viper.GetString("log.level")
		if verbose {
			level = "debug"
		}
		logger = logging.Init(logging.Options{
			Level:   level,
			Format:  viper.GetString("log.format"),
			Service: "labsense",
		})
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("labsense v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.labsense/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".labsense"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// LABSENSE_TRANSLATION_BACKEND overrides translation.backend
	viper.SetEnvPrefix("LABSENSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindSecretEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config %s: %v\n", cfgFile, err)
		}
	}
}
