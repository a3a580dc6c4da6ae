package tui

import (
	"net/url"
	"strings"
)

type screen int

const (
	screenLanding screen = iota
	screenLogin
	screenSignup
	screenCategories
	screenTasks
)

const (
	pathLanding    = "/"
	pathLogin      = "/login"
	pathSignup     = "/signup"
	pathCategories = "/categories"
	pathTasks      = "/tasks/"
)

type route struct {
	screen     screen
	categoryID string
}

// parseRoute maps a path to a screen. Anything unknown lands on "/".
func parseRoute(path string) route {
	trimmed := strings.TrimSpace(path)
	if trimmed != "/" {
		trimmed = strings.TrimRight(trimmed, "/")
	}

	switch trimmed {
	case pathLanding:
		return route{screen: screenLanding}
	case pathLogin:
		return route{screen: screenLogin}
	case pathSignup:
		return route{screen: screenSignup}
	case pathCategories:
		return route{screen: screenCategories}
	}

	if rest, ok := strings.CutPrefix(trimmed, pathTasks); ok && rest != "" && !strings.Contains(rest, "/") {
		if id, err := url.PathUnescape(rest); err == nil && id != "" {
			return route{screen: screenTasks, categoryID: id}
		}
	}
	return route{screen: screenLanding}
}

func tasksPath(categoryID string) string {
	return pathTasks + url.PathEscape(categoryID)
}

func (r route) path() string {
	switch r.screen {
	case screenLogin:
		return pathLogin
	case screenSignup:
		return pathSignup
	case screenCategories:
		return pathCategories
	case screenTasks:
		return tasksPath(r.categoryID)
	default:
		return pathLanding
	}
}

func (r route) title() string {
	switch r.screen {
	case screenLogin:
		return "Log in"
	case screenSignup:
		return "Sign up"
	case screenCategories:
		return "Categories"
	case screenTasks:
		return "Tasks"
	default:
		return "Welcome"
	}
}
