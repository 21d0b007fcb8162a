package commands

import (
	"fmt"
	"os"

	"storefront/internal/config"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront - products, orders and an authenticating API gateway",
	Long: `Storefront runs a small commerce backend made of independent services:

  gateway       authenticates callers, rate limits and proxies /api/* routes
  products      product catalogue
  orders        orders priced from the product catalogue
  web           server-rendered frontend talking to the gateway
  all           every server above in one process
  order-events  logs order lifecycle events from RabbitMQ

Configuration comes from the environment, an optional .env file and an
optional config file passed with --config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, json, toml or env)")
}
