package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pharmaclaims/substantia/internal/logging"
	"github.com/pharmaclaims/substantia/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "substantia",
	Short: "Substantia - MLR-ready pharmaceutical claims from authoritative sources",
	Long: `Substantia turns a free-text question about a drug into MLR-ready claims.

It searches FDA drug labels (OpenFDA), peer-reviewed literature (PubMed/PMC)
and trial registrations (ClinicalTrials.gov), generates claims only from
full-text sources, and validates every number and citation against the text
it came from.

Substantia prepares evidence for Medical-Legal-Regulatory review; it does
not replace it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logCfg := model.LogConfig{Level: viper.GetString("log.level")}
		if logCfg.Level == "" {
			logCfg.Level = "warn"
		}
		if verbose {
			logCfg.Level = "debug"
			logCfg.Development = true
		}
		return logging.Init(logCfg)
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
	Long:  `Display the version number and build information for Substantia.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("substantia v0.2.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.substantia/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.substantia")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SUBSTANTIA_*
	viper.SetEnvPrefix("SUBSTANTIA")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
