package relay

// Well-known context names. Page realms and bridges are per-tab; the
// coordinator and panel are singletons.
const (
	Coordinator = "coordinator"
	Panel       = "panel"
)

// PageContext names the page realm of a tab.
func PageContext(tabID string) string { return "page:" + tabID }

// TabContext names the bridge attached to a tab.
func TabContext(tabID string) string { return "tab:" + tabID }
