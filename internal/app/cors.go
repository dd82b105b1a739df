package app

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var corsAllowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type", "x-idempotence"}

// corsConfig allows any origin unless an allow-list is configured.
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:              []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:              corsAllowHeaders,
		OptionsResponseStatusCode: http.StatusOK,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	patterns := allowedOrigins
	cfg.AllowOriginFunc = func(origin string) bool {
		host := extractOriginHost(origin)
		for _, pattern := range patterns {
			if pattern == "*" || matchOriginPattern(pattern, host) {
				return true
			}
		}
		return false
	}
	return cfg
}

// preflight answers OPTIONS requests that carry no Origin header, which
// the CORS middleware lets through.
func preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", strings.Join(corsAllowHeaders, ", "))
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.String(http.StatusOK, "ok")
}

// extractOriginHost returns the "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOriginPattern reports whether host matches the given wildcard pattern.
func matchOriginPattern(pattern, host string) bool {
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:]
		return strings.HasSuffix(host, suffix)
	}
	if strings.HasSuffix(pattern, ":*") {
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(host, prefix)
	}
	return false
}
