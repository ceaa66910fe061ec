package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "turing",
	Short: "Single-tape Turing machine toolkit",
	Long:  "Turing builds, runs and serves deterministic single-tape Turing machines defined in a small line grammar or as YAML/JSON files.",
}

// Execute runs the root command, exiting nonzero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().Int("max-steps", 0, "Step bound for executions (0 means unbounded)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress run summaries")

	_ = viper.BindPFlag("max_steps", rootCmd.PersistentFlags().Lookup("max-steps"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".turing")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("TURING")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
