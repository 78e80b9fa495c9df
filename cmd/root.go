// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/codit04/TechMCP/internal/config"
	"github.com/codit04/TechMCP/internal/observability"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
// Running it with no subcommand starts the server, which is the common case
// when an MCP client launches the binary.
var rootCmd = &cobra.Command{
	Use:     "techmcp",
	Short:   "TechMCP serves PSG Tech e-campus data over the Model Context Protocol.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1. Initialize configuration loading (Viper)
		if err := initializeConfig(); err != nil {
			basicLogger, _ := zap.NewDevelopment()
			basicLogger.Error("Failed to initialize configuration", zap.Error(err))
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		// 2. Unmarshal and validate, then store globally
		if err := config.Load(viper.GetViper()); err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "techmcp"}, false)
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg := config.Get()

		// 3. Initialize the logger. Over stdio the MCP protocol owns
		// stdout, so console logs move to stderr.
		observability.InitializeLogger(cfg.Logger, cfg.Server.Transport == config.TransportStdio)
		logger := observability.GetLogger()
		logger.Info("Starting TechMCP",
			zap.String("version", Version),
			zap.String("transport", cfg.Server.Transport))

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It accepts a context passed from main.go for graceful
// shutdown.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			if ctx.Err() == nil {
				logger.Error("Command execution failed", zap.Error(err))
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeConfig reads in the config file and ENV variables if set.
func initializeConfig() error {
	// A local .env is the usual place for credentials during development.
	// Missing file is fine.
	_ = godotenv.Load()

	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TECHMCP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials are expected from the environment far more often than
	// from the config file, so bind them explicitly.
	_ = viper.BindEnv("portal.roll_number", "TECHMCP_PORTAL_ROLL_NUMBER", "STUDZONE_ROLL_NUMBER")
	_ = viper.BindEnv("portal.password", "TECHMCP_PORTAL_PASSWORD", "STUDZONE_PASSWORD")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, proceed with defaults and environment
		// variables.
	}
	return nil
}
