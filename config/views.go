package config

// View represents one kiosk screen
type View struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// DefaultZoom is used when the feed does not carry a map zoom level.
const DefaultZoom = 16

// SupportedViews is the list of screens the kiosk can show
var SupportedViews = []View{
	{Path: "/", Name: "info"},
	{Path: "/map", Name: "map"},
	{Path: "/homes", Name: "homes"},
	{Path: "/info", Name: "info"},
}

// GetViewPaths returns the list of supported view paths
func GetViewPaths() []string {
	paths := make([]string, len(SupportedViews))
	for i, view := range SupportedViews {
		paths[i] = view.Path
	}
	return paths
}

// GetViewByPath returns a view by its path
func GetViewByPath(path string) *View {
	for _, view := range SupportedViews {
		if view.Path == path {
			return &view
		}
	}
	return nil
}
