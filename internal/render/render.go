// Package render turns carrier snapshots into HTML fragments. Every
// function is a pure full-replace of its target container: rendering the
// same snapshot twice yields byte-identical output, and every
// server-supplied string passes through Escape before insertion.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/view"
)

// Fragment targets, shared with the websocket push protocol.
const (
	TargetKPIs        = "kpi-grid"
	TargetSubscribers = "sub-tbody"
	TargetSubCount    = "sub-count"
	TargetCalls       = "call-tbody"
	TargetCallCount   = "call-count"
	TargetConfig      = "config-panel"
	TargetNetwork     = "network-panel"
	TargetActivity    = "activity-log"
)

// Escape converts arbitrary text into markup-safe text.
func Escape(s string) string {
	return html.EscapeString(s)
}

// KPIGrid renders the overview KPI cells from a stats snapshot.
func KPIGrid(stats *carrier.StatsSnapshot) string {
	activeCalls, totalUsers := "0", "0"
	status, version := "—", "—"
	if stats != nil {
		activeCalls = fmt.Sprintf("%d", stats.ActiveCalls)
		totalUsers = fmt.Sprintf("%d", stats.TotalUsers)
		status = systemStatusLabel(stats.SystemStatus)
		if stats.Version != "" {
			version = Escape(stats.Version)
		}
	}

	var b strings.Builder
	kpi := func(id, label, value string) {
		fmt.Fprintf(&b, `<div class="kpi"><div class="kpi-label">%s</div><div class="kpi-value" id="%s">%s</div></div>`,
			label, id, value)
	}
	kpi("kpi-calls", "Active Calls", activeCalls)
	kpi("kpi-users", "Subscribers", totalUsers)
	kpi("kpi-status", "System Status", status)
	kpi("kpi-version", "Version", version)
	return b.String()
}

func systemStatusLabel(status string) string {
	if status == "" {
		return "—"
	}
	if status == "operational" {
		return "Healthy"
	}
	return Escape(status)
}

// SubscriberRows renders the subscriber table body as a full replace.
// An empty collection gets a single empty-state row spanning all columns.
func SubscriberRows(subs []carrier.Subscriber) string {
	if len(subs) == 0 {
		return `<tr><td colspan="6" class="empty-state">No subscribers yet. Add the first one to get started.</td></tr>`
	}

	var b strings.Builder
	for _, u := range subs {
		name := u.Username
		if name == "" {
			name = u.ID
		}
		tier := strings.ToLower(u.TierLabel())
		b.WriteString("<tr>")
		fmt.Fprintf(&b, `<td><strong>%s</strong></td>`, Escape(name))
		fmt.Fprintf(&b, `<td>%s</td>`, Escape(u.ID))
		fmt.Fprintf(&b, `<td class="mono">sip:%s@server</td>`, Escape(u.ID))
		fmt.Fprintf(&b, `<td class="balance %s">$%s</td>`, BalanceClass(u.Balance), Currency(u.Balance))
		fmt.Fprintf(&b, `<td><span class="tier tier-%s">%s</span></td>`, tier, u.TierLabel())
		// Row actions carry the identity in data attributes; the page
		// script delegates clicks instead of parsing inline handlers.
		fmt.Fprintf(&b, `<td><button class="btn-sm" data-action="balance" data-id="%s" data-balance="%s">Balance</button> `,
			Escape(u.ID), Currency(u.Balance))
		fmt.Fprintf(&b, `<button class="btn-sm danger" data-action="delete" data-id="%s">Delete</button></td>`,
			Escape(u.ID))
		b.WriteString("</tr>")
	}
	return b.String()
}

// CallRows renders the active call table body. Elapsed durations are
// computed against now, never stored.
func CallRows(calls []carrier.CallSession, now time.Time) string {
	if len(calls) == 0 {
		return `<tr><td colspan="6" class="empty-state">No active calls at this time</td></tr>`
	}

	var b strings.Builder
	for _, c := range calls {
		tenant := c.TenantID
		if tenant == "" {
			tenant = "default"
		}
		b.WriteString("<tr>")
		fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(c.From))
		fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(c.To))
		fmt.Fprintf(&b, `<td><span class="state">%s</span></td>`, Escape(c.State))
		fmt.Fprintf(&b, `<td>%s</td>`, CallDuration(c.StartTime, now))
		fmt.Fprintf(&b, `<td>$%s</td>`, Rate(c.Rate))
		fmt.Fprintf(&b, `<td>%s</td>`, Escape(tenant))
		b.WriteString("</tr>")
	}
	return b.String()
}

// ConfigPanel renders the settings page parameter list.
func ConfigPanel(cfg *carrier.PlatformConfig) string {
	proto, maxCalls, rate, ttl, fw := "TCP", 100000, 0.01, "1h", 5
	if cfg != nil {
		if cfg.SIPProtocol != "" {
			proto = cfg.SIPProtocol
		}
		if cfg.MaxConcurrentCalls != 0 {
			maxCalls = cfg.MaxConcurrentCalls
		}
		if cfg.BillingRate != 0 {
			rate = cfg.BillingRate
		}
		if cfg.RegistrationTTL != "" {
			ttl = cfg.RegistrationTTL
		}
		if cfg.FirewallThreshold != 0 {
			fw = cfg.FirewallThreshold
		}
	}

	var b strings.Builder
	row := func(id, label, value string) {
		fmt.Fprintf(&b, `<div class="cfg-row"><span class="cfg-label">%s</span><span class="cfg-value" id="%s">%s</span></div>`,
			label, id, value)
	}
	row("cfg-proto", "SIP Protocol", Escape(proto))
	row("cfg-max", "Max Concurrent Calls", GroupThousands(maxCalls))
	row("cfg-rate", "Billing Rate", fmt.Sprintf("$%g", rate))
	row("cfg-ttl", "Registration TTL", Escape(ttl))
	row("cfg-fw", "Firewall Threshold", fmt.Sprintf("%d attempts", fw))
	return b.String()
}

// NetworkPanel renders the network page summary. Capacity is the only
// figure that gets the K abbreviation; exact counts never do.
func NetworkPanel(cfg *carrier.PlatformConfig) string {
	proto, maxCalls := "TCP", 100000
	if cfg != nil {
		if cfg.SIPProtocol != "" {
			proto = cfg.SIPProtocol
		}
		if cfg.MaxConcurrentCalls != 0 {
			maxCalls = cfg.MaxConcurrentCalls
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="net-row"><span class="net-label">Transport</span><span class="net-value" id="net-proto">%s</span></div>`,
		Escape(proto))
	fmt.Fprintf(&b, `<div class="net-row"><span class="net-label">Capacity</span><span class="net-value" id="net-cap">%s</span></div>`,
		AbbrevThousands(maxCalls))
	return b.String()
}

// ActivityItems renders the activity feed, newest first.
func ActivityItems(entries []view.ActivityEntry) string {
	if len(entries) == 0 {
		return `<li class="empty-state">No recent activity</li>`
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, `<li>%s — %s</li>`, e.Time.Format("15:04:05"), Escape(e.Message))
	}
	return b.String()
}
