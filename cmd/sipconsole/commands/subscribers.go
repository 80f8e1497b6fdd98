package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/render"
)

func newSubscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscribers",
		Aliases: []string{"subs"},
		Short:   "Manage subscriber accounts",
	}
	cmd.AddCommand(
		newSubscribersListCmd(),
		newSubscribersCreateCmd(),
		newSubscribersDeleteCmd(),
		newSubscribersBalanceCmd(),
	)
	return cmd
}

func newSubscribersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriber accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			client := carrier.NewClient(cfg.Carrier.APIURL, nil)

			subs, err := client.Subscribers(cmd.Context())
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Println("no subscribers")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tBALANCE\tTIER\tTENANT")
			for _, s := range subs {
				fmt.Fprintf(w, "%s\t%s\t$%s\t%s\t%s\n",
					s.ID, s.Username, render.Currency(s.Balance), s.TierLabel(), s.TenantID)
			}
			return w.Flush()
		},
	}
}

func newSubscribersCreateCmd() *cobra.Command {
	var username, tenant string
	var balance float64
	var level int

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Register a new subscriber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			client := carrier.NewClient(cfg.Carrier.APIURL, nil)

			if username == "" {
				username = args[0]
			}
			if tenant == "" {
				tenant = cfg.Carrier.DefaultTenant
			}

			fmt.Print("Password (empty to skip): ")
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}

			created, err := client.CreateSubscriber(cmd.Context(), carrier.Subscriber{
				ID:       args[0],
				TenantID: tenant,
				Username: username,
				Password: string(pw),
				Balance:  balance,
				Level:    level,
			})
			if err != nil {
				color.Red("create failed: %v", err)
				return err
			}

			color.Green("subscriber %s (%s) created", created.Username, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "display name (default: the id)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (default: from config)")
	cmd.Flags().Float64Var(&balance, "balance", 0, "initial balance")
	cmd.Flags().IntVar(&level, "level", carrier.LevelUser, "tier: 0 user, 1 reseller, 2 admin")
	return cmd
}

func newSubscribersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a subscriber account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				color.Yellow("refusing to delete %s without --yes", args[0])
				return fmt.Errorf("deletion requires --yes")
			}

			cfg := loadConfig()
			client := carrier.NewClient(cfg.Carrier.APIURL, nil)

			if err := client.DeleteSubscriber(cmd.Context(), args[0]); err != nil {
				color.Red("delete failed: %v", err)
				return err
			}
			color.Green("subscriber %s removed", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func newSubscribersBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <id> <amount>",
		Short: "Set a subscriber balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount %q is not a number", args[1])
			}

			cfg := loadConfig()
			client := carrier.NewClient(cfg.Carrier.APIURL, nil)

			if err := client.AdjustBalance(cmd.Context(), args[0], amount); err != nil {
				color.Red("balance update failed: %v", err)
				return err
			}
			color.Green("balance for %s set to $%s", args[0], render.Currency(amount))
			return nil
		},
	}
}
