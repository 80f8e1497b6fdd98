package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextgen-sip/console/internal/config"
)

var cfgFile string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "sipconsole",
		Short: "Operator console for the XSIP carrier platform",
		Long:  "sipconsole — Live web dashboard and admin CLI for the NextGen carrier platform. Polls the carrier admin API and issues subscriber mutations. Single binary.",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "sipconsole.yaml", "config file path")

	root.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newStatusCmd(),
		newSubscribersCmd(),
		newAuditCmd(),
		newVersionCmd(),
	)

	return root
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Defaults()
			if err := cfg.Save(cfgFile); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", cfgFile)
			return nil
		},
	}
}

// loadConfig reads the config file, falling back to defaults when the
// file is absent.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Defaults()
	}
	return cfg
}
