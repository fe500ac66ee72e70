package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kestrel-tools/xfiledump/internal/config"
	"github.com/kestrel-tools/xfiledump/internal/logger"
)

var cfgFile string

// version is set at build time via -ldflags; defaults for dev builds.
var version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "xfiledump",
	Short: "Inspect and dump IW-engine Fastfile (XFile) containers",
	Long: `xfiledump decompresses and decodes IW-engine Fastfile containers
(the .ff payloads shipped by Treyarch's T5-era titles), walking the shared
pointer graph and asset table to produce a structured dump of every asset
the container carries.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		logFormat, _ := cmd.Flags().GetString("log-format")

		if cmd.Flags().Changed("debug") {
			config.Instance.Debug = debug
		}
		if cmd.Flags().Changed("log-format") {
			config.Instance.LogFormat = logFormat
		}

		if cmd.Flags().Changed("config") && cfgFile != "" {
			if err := config.Initialize(cfgFile); err != nil {
				logger.LogError("error loading config file", err, map[string]interface{}{
					"config_file": cfgFile,
				})
			}
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.LogError("command execution failed", err, nil)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")
	rootCmd.PersistentFlags().Bool("debug", config.Instance.Debug, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", config.Instance.LogFormat, "log format: json or human")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(decodeCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("xfiledump " + version)
	},
}
