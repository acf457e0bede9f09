package guard

import "strings"

const (
	DefaultLoginPath   = "/login"
	DefaultLandingPath = "/oportunidades"
)

// Routes holds the navigation targets and the public allow-list.
type Routes struct {
	Login   string
	Landing string
	Public  []string
}

// NewRoutes fills the defaults and makes sure the login path is always public.
func NewRoutes(login, landing string, public []string) Routes {
	if login == "" {
		login = DefaultLoginPath
	}
	if landing == "" {
		landing = DefaultLandingPath
	}
	routes := Routes{Login: login, Landing: landing, Public: []string{login}}
	for _, p := range public {
		if p != "" && p != login {
			routes.Public = append(routes.Public, p)
		}
	}
	return routes
}

// IsPublic matches location against the allow-list by path prefix on segment boundaries,
// so "/login" covers "/login/reset" but not "/loginx".
func (r Routes) IsPublic(location string) bool {
	location = stripQuery(location)
	for _, prefix := range r.Public {
		if hasSegmentPrefix(location, prefix) {
			return true
		}
	}
	return false
}

func stripQuery(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i]
	}
	return location
}

func hasSegmentPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return strings.HasPrefix(path, prefix+"/")
}
