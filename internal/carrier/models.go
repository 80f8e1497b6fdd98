package carrier

import "time"

// Subscriber tiers. Level is an ordinal privilege class.
const (
	LevelUser     = 0
	LevelReseller = 1
	LevelAdmin    = 2
)

// Subscriber is a VoIP subscriber account. The ID doubles as the SIP
// username. Password is write-only: it is sent on create and never
// returned by the API or rendered anywhere.
type Subscriber struct {
	ID       string  `json:"id"`
	TenantID string  `json:"tenant_id"`
	Username string  `json:"username"`
	Password string  `json:"password,omitempty"`
	Balance  float64 `json:"balance"`
	Level    int     `json:"level"` // 0: User, 1: Reseller, 2: Admin
}

// TierLabel returns the display name for the subscriber's level.
func (s Subscriber) TierLabel() string {
	switch s.Level {
	case LevelAdmin:
		return "Admin"
	case LevelReseller:
		return "Reseller"
	default:
		return "User"
	}
}

// CallSession is a call currently in progress on the platform.
type CallSession struct {
	SessionID string    `json:"session_id,omitempty"`
	TenantID  string    `json:"tenant_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	State     string    `json:"state"`
	StartTime time.Time `json:"start_time"`
	Rate      float64   `json:"rate"` // Price per second
}

// StatsSnapshot holds the scalar KPIs returned by GET /stats.
type StatsSnapshot struct {
	ActiveCalls  int    `json:"active_calls"`
	TotalUsers   int    `json:"total_users"`
	SystemStatus string `json:"system_status"`
	Version      string `json:"version"`
}

// PlatformConfig is the read-only configuration snapshot from GET /config.
type PlatformConfig struct {
	SIPProtocol        string  `json:"sip_protocol"`
	MaxConcurrentCalls int     `json:"max_concurrent_calls"`
	BillingRate        float64 `json:"billing_rate"`
	RegistrationTTL    string  `json:"registration_ttl"`
	FirewallThreshold  int     `json:"firewall_threshold"`
}
