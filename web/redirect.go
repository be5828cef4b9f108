package web

import (
	"net/url"
	"strings"
)

// sanitizeReturnToPath keeps return_to values on this site. Anything that is
// not a plain local path becomes "/".
func sanitizeReturnToPath(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}

	if strings.HasPrefix(returnTo, "/\\") {
		return "/"
	}

	u, err := url.Parse(returnTo)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}

	return returnTo
}
