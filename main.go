package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blogem/entrylog/config"
	"github.com/blogem/entrylog/logging"
)

// settings is shared by every command; flags are bound onto it in init
var settings = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   "entrylog",
	Short: "Entrance event log service",
	Long: `entrylog records who came through the door: residents, guests,
deliveries and burglars. Without a subcommand it starts the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return config.LoadEnvFile(envFile)
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file to load")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("store", "", "Store connection string (mongodb://, mongodb+srv://, sqlite://)")

	settings.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	settings.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	settings.BindPFlag(config.KeyStoreURI, rootCmd.PersistentFlags().Lookup("store"))

	// Server flags, persistent because the bare root command serves as well
	rootCmd.PersistentFlags().IntP("port", "p", 5000, "HTTP listen port")
	rootCmd.PersistentFlags().Duration("shutdown-timeout", 10*time.Second, "Time allowed for in-flight requests on shutdown")

	settings.BindPFlag(config.KeyPort, rootCmd.PersistentFlags().Lookup("port"))
	settings.BindPFlag(config.KeyShutdownTimeout, rootCmd.PersistentFlags().Lookup("shutdown-timeout"))

	rootCmd.AddCommand(serveCmd, migrateCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger from the current settings
func newLogger(v *viper.Viper) (logging.Logger, error) {
	log, err := logging.New(os.Stderr, v.GetString(config.KeyLogFormat), v.GetString(config.KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
