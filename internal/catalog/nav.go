package catalog

import "strings"

// EstimatePrefix is the path prefix of the estimate pages.
const EstimatePrefix = "/estimate"

type NavLink struct {
	Href   string `json:"href"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type NavGroup struct {
	Label  string    `json:"label"`
	Active bool      `json:"active"`
	Links  []NavLink `json:"links"`
}

// Nav is the sidebar and user menu for one page.
type Nav struct {
	Main     []NavLink `json:"main"`
	Estimate NavGroup  `json:"estimate"`
	UserMenu []NavLink `json:"userMenu"`
}

func mainLinks() []NavLink {
	return []NavLink{
		{Href: "/dashboard", Label: "Dashboard"},
		{Href: "/rewards", Label: "Rewards"},
	}
}

func estimateLinks() []NavLink {
	return []NavLink{
		{Href: "/estimate/e-waste", Label: "E-Waste"},
		{Href: "/estimate/metal-scrap", Label: "Metal Scrap"},
	}
}

func userMenuLinks() []NavLink {
	return []NavLink{
		{Href: "/profile", Label: "Profile"},
		{Href: "/login", Label: "Log out"},
	}
}

// Navigation builds the navigation for path, marking the link whose href
// equals path active. The estimate group is active on any /estimate page.
func Navigation(path string) Nav {
	path = normalizePath(path)
	nav := Nav{
		Main: markActive(mainLinks(), path),
		Estimate: NavGroup{
			Label:  "Estimate Scrap",
			Active: path == EstimatePrefix || strings.HasPrefix(path, EstimatePrefix+"/"),
			Links:  markActive(estimateLinks(), path),
		},
		UserMenu: markActive(userMenuLinks(), path),
	}
	return nav
}

func markActive(links []NavLink, path string) []NavLink {
	for i := range links {
		links[i].Active = links[i].Href == path
	}
	return links
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
