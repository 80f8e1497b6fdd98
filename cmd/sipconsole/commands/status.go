package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/render"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(1, 3)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show carrier platform status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			client := carrier.NewClient(cfg.Carrier.APIURL, nil)

			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching stats from %s: %w", cfg.Carrier.APIURL, err)
			}

			health := warnStyle.Render(stats.SystemStatus)
			if stats.SystemStatus == "operational" {
				health = okStyle.Render("healthy")
			}

			var b strings.Builder
			b.WriteString(titleStyle.Render("carrier platform") + "\n\n")
			row := func(label, value string) {
				b.WriteString(labelStyle.Render(label) + value + "\n")
			}
			row("Status", health)
			row("Active calls", fmt.Sprintf("%d", stats.ActiveCalls))
			row("Subscribers", fmt.Sprintf("%d", stats.TotalUsers))
			if stats.Version != "" {
				row("Version", stats.Version)
			}

			// Platform parameters are best-effort; older backends lack
			// the endpoint.
			if pc, err := client.Config(cmd.Context()); err == nil {
				b.WriteString("\n")
				row("Transport", pc.SIPProtocol)
				row("Capacity", render.GroupThousands(pc.MaxConcurrentCalls)+" calls")
				row("Billing rate", fmt.Sprintf("$%g/s", pc.BillingRate))
			}

			fmt.Println(panelStyle.Render(strings.TrimRight(b.String(), "\n")))
			return nil
		},
	}
}
