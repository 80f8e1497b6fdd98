// Package view holds the console's explicit view state: the active page,
// modal open flags, the bounded activity feed, and the last-good snapshot
// of each carrier resource. All of it is owned here so it can be tested
// without a browser attached.
package view

import "sync"

// Page identifies one console page. Exactly one page is active at a time.
type Page string

const (
	PageOverview    Page = "overview"
	PageSubscribers Page = "subscribers"
	PageCalls       Page = "calls"
	PageCDR         Page = "cdr"
	PageSecurity    Page = "security"
	PageNetwork     Page = "network"
	PageSettings    Page = "settings"
)

// Resource names a carrier API resource a page may need refreshed.
type Resource string

const (
	ResourceNone        Resource = ""
	ResourceStats       Resource = "stats"
	ResourceSubscribers Resource = "subscribers"
	ResourceCalls       Resource = "calls"
	ResourceConfig      Resource = "config"
)

// PageInfo is the static title/subtitle pair for a page.
type PageInfo struct {
	Title    string
	Subtitle string
}

var pageInfos = map[Page]PageInfo{
	PageOverview:    {"System Overview", "Real-time carrier network monitoring"},
	PageSubscribers: {"Subscribers", "Manage subscriber accounts and billing"},
	PageCalls:       {"Live Calls", "Active call sessions across the network"},
	PageCDR:         {"Call Records", "Historical call detail records"},
	PageSecurity:    {"Security", "Firewall rules and threat protection"},
	PageNetwork:     {"Network", "Topology, protocols and client setup"},
	PageSettings:    {"Settings", "System configuration parameters"},
}

// refreshFor maps pages to the resource fetched on navigation into them.
// Stats and calls are also refreshed by the poller regardless of page.
var refreshFor = map[Page]Resource{
	PageSubscribers: ResourceSubscribers,
	PageCalls:       ResourceCalls,
	PageSettings:    ResourceConfig,
}

// Pages lists every page in display order.
func Pages() []Page {
	return []Page{
		PageOverview, PageSubscribers, PageCalls, PageCDR,
		PageSecurity, PageNetwork, PageSettings,
	}
}

// Known reports whether p names a real page.
func Known(p Page) bool {
	_, ok := pageInfos[p]
	return ok
}

// Info returns the static title/subtitle for a page. Unknown pages get
// empty strings, mirroring the lookup-miss behavior of the UI.
func Info(p Page) PageInfo {
	return pageInfos[p]
}

// Navigator is the mutually-exclusive page selection state machine.
type Navigator struct {
	mu     sync.Mutex
	active Page
	epoch  uint64
}

// NewNavigator starts on the overview page, matching the page marked
// active in the static markup.
func NewNavigator() *Navigator {
	return &Navigator{active: PageOverview}
}

// Navigate activates target and returns the resource that page wants
// refreshed, if any. Every call bumps the nav epoch, including repeat
// navigation to the current page, so the enter transition replays.
func (n *Navigator) Navigate(target Page) Resource {
	if !Known(target) {
		return ResourceNone
	}
	n.mu.Lock()
	n.active = target
	n.epoch++
	n.mu.Unlock()
	return refreshFor[target]
}

// Active returns the current page.
func (n *Navigator) Active() Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// Epoch returns the navigation counter. Renderers stamp it on the page
// wrapper so repeated navigation to the same page replays animations.
func (n *Navigator) Epoch() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.epoch
}
