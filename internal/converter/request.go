package converter

import (
	"net/url"
	"strings"

	"github.com/yuwei031/SubForge/internal/app/model"
)

// NormalizeBackend canonicalizes a user-supplied backend base URL: whitespace
// trimmed, any query string dropped, one trailing slash removed, and one
// trailing /sub removed so the endpoint path is never appended twice.
// Normalizing an already normalized URL is a no-op, which matters because
// refresh re-runs it on the value captured at generation time.
func NormalizeBackend(backend string) string {
	clean := strings.TrimSpace(backend)

	if i := strings.Index(clean, "?"); i != -1 {
		clean = clean[:i]
	}
	clean = strings.TrimSuffix(clean, "/")
	clean = strings.TrimSuffix(clean, "/sub")

	return clean
}

// BuildRequestURL assembles the full subconverter request. It is pure and
// never fails; malformed input is passed through for the backend to judge.
//
// Custom params are applied last and may overwrite anything set before them,
// including target and url. That is a deliberate escape hatch, not an error.
func BuildRequestURL(p model.GenerateParams) string {
	query := url.Values{}
	query.Set("target", p.Target)
	query.Set("url", strings.Join(p.URLs, "|"))

	if p.ConfigURL != "" {
		query.Set("config", p.ConfigURL)
	}
	if p.Exclude != "" {
		query.Set("exclude", p.Exclude)
	}
	if p.Include != "" {
		query.Set("include", p.Include)
	}

	if adv := p.Advanced; adv != nil {
		if adv.Emoji {
			query.Set("emoji", "true")
		}
		if adv.UDP {
			query.Set("udp", "true")
		}
		if adv.TFO {
			query.Set("tfo", "true")
		}
		if adv.SCV {
			query.Set("scv", "true")
		}
		if adv.Expand {
			query.Set("expand", "true")
		}
	}

	for key, value := range p.CustomParams {
		if key != "" && value != "" {
			query.Set(key, value)
		}
	}

	return NormalizeBackend(p.BackendURL) + "/sub?" + query.Encode()
}
