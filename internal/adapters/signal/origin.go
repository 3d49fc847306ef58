package signal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// newOriginChecker accepts any origin when the list is empty or contains "*".
// Requests without an Origin header come from non-browser clients and pass.
func newOriginChecker(origins []string) func(*http.Request) bool {
	allowed, allowAll := normalizeOrigins(origins)
	return func(r *http.Request) bool {
		header := r.Header.Get("Origin")
		if allowAll || header == "" {
			return true
		}
		origin, ok := normalizeOrigin(header)
		if ok {
			if _, ok := allowed[origin]; ok {
				return true
			}
		}
		log.Warn().Str("module", "signal").Str("origin", header).Msg("blocked websocket from disallowed origin")
		return false
	}
}

func normalizeOrigins(origins []string) (map[string]struct{}, bool) {
	allowed := make(map[string]struct{}, len(origins))
	if len(origins) == 0 {
		return allowed, true
	}
	for _, o := range origins {
		trimmed := strings.TrimSpace(o)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			return allowed, true
		}
		n, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn().Str("module", "signal").Str("origin", o).Msg("ignoring invalid origin in configuration")
			continue
		}
		allowed[n] = struct{}{}
	}
	return allowed, false
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
