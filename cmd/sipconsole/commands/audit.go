package commands

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextgen-sip/console/internal/audit"
)

func newAuditCmd() *cobra.Command {
	var action, subscriber string
	var failed bool
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the local admin-action trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
			store, err := audit.NewStore(cfg.Audit.DBPath, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Query(audit.QueryOpts{
				Action:       audit.Action(action),
				SubscriberID: subscriber,
				Failed:       failed,
				Limit:        limit,
			})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no recorded actions")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACTION\tSUBSCRIBER\tDETAIL\tOUTCOME")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp, e.Action, e.SubscriberID, e.Detail, e.Outcome)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "filter by action (create_subscriber, delete_subscriber, adjust_balance)")
	cmd.Flags().StringVar(&subscriber, "subscriber", "", "filter by subscriber id")
	cmd.Flags().BoolVar(&failed, "failed", false, "only actions the carrier rejected")
	cmd.Flags().IntVar(&limit, "limit", 0, "max entries (default 50)")
	return cmd
}
