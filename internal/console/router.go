package console

import "strings"

// Routes.
const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
	RouteUsers     = "/users"
	RouteChats     = "/chats"
)

var protected = map[string]string{
	RouteDashboard: RouteDashboard,
	RouteUsers:     RouteUsers,
	RouteChats:     RouteChats,
	"/chat":        RouteChats,
}

// Route resolves path to the screen to show. Protected screens need a
// signed-in operator; unknown paths go to the login screen, and a
// signed-in operator asking for login lands on the dashboard.
func Route(path string, signedIn bool) string {
	path = "/" + strings.Trim(strings.TrimSpace(strings.ToLower(path)), "/")
	if path == RouteLogin || path == "/" {
		if signedIn {
			return RouteDashboard
		}
		return RouteLogin
	}
	target, ok := protected[path]
	if !ok || !signedIn {
		return RouteLogin
	}
	return target
}
