package converter

import (
	"net/url"
	"strings"
	"testing"

	"github.com/yuwei031/SubForge/internal/app/model"
)

func TestNormalizeBackend(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://h", "http://h"},
		{"http://h/", "http://h"},
		{"http://h/sub", "http://h"},
		{"http://h/sub/", "http://h"},
		{"http://h?x=1", "http://h"},
		{"  http://h/sub?target=clash  ", "http://h"},
		{"https://conv.example.com/sub", "https://conv.example.com"},
	}

	for _, tc := range cases {
		if got := NormalizeBackend(tc.in); got != tc.want {
			t.Errorf("NormalizeBackend(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeBackend_Idempotent(t *testing.T) {
	inputs := []string{"http://h/", "http://h/sub/", "http://h?x=1", "https://a.example.com/sub?a=b"}
	for _, in := range inputs {
		once := NormalizeBackend(in)
		twice := NormalizeBackend(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestBuildRequestURL_JoinsAndEncodes(t *testing.T) {
	raw := BuildRequestURL(model.GenerateParams{
		BackendURL: "http://conv.example.com/sub/",
		Target:     "clash",
		URLs:       []string{"https://a", "https://b"},
	})

	if !strings.HasPrefix(raw, "http://conv.example.com/sub?") {
		t.Fatalf("unexpected base: %s", raw)
	}
	if !strings.Contains(raw, "url=https%3A%2F%2Fa%7Chttps%3A%2F%2Fb") {
		t.Errorf("joined urls not encoded as expected: %s", raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("built URL does not parse: %v", err)
	}
	q := parsed.Query()
	if q.Get("target") != "clash" {
		t.Errorf("target = %q, want clash", q.Get("target"))
	}
	if q.Get("url") != "https://a|https://b" {
		t.Errorf("url = %q", q.Get("url"))
	}
}

func TestBuildRequestURL_OptionalParams(t *testing.T) {
	raw := BuildRequestURL(model.GenerateParams{
		BackendURL: "http://h",
		Target:     "surge",
		URLs:       []string{"https://a"},
		ConfigURL:  "https://rules.example.com/cfg.ini",
		Exclude:    "expired",
		Include:    "HK|SG",
	})

	q := mustQuery(t, raw)
	if q.Get("config") != "https://rules.example.com/cfg.ini" {
		t.Errorf("config = %q", q.Get("config"))
	}
	if q.Get("exclude") != "expired" {
		t.Errorf("exclude = %q", q.Get("exclude"))
	}
	if q.Get("include") != "HK|SG" {
		t.Errorf("include = %q", q.Get("include"))
	}
}

func TestBuildRequestURL_AdvancedFlags(t *testing.T) {
	raw := BuildRequestURL(model.GenerateParams{
		BackendURL: "http://h",
		Target:     "v2ray",
		URLs:       []string{"https://a"},
		Advanced:   &model.AdvancedParams{Emoji: true, UDP: true},
	})

	q := mustQuery(t, raw)
	if q.Get("emoji") != "true" || q.Get("udp") != "true" {
		t.Errorf("enabled flags missing: %s", raw)
	}
	// Off is encoded by absence, never by "false".
	for _, off := range []string{"tfo", "scv", "expand"} {
		if q.Has(off) {
			t.Errorf("flag %q should be absent when false", off)
		}
	}
}

func TestBuildRequestURL_CustomParamsOverride(t *testing.T) {
	raw := BuildRequestURL(model.GenerateParams{
		BackendURL:   "http://h",
		Target:       "clash",
		URLs:         []string{"https://a"},
		CustomParams: map[string]string{"target": "v2ray", "sort": "true", "empty": ""},
	})

	q := mustQuery(t, raw)
	if q.Get("target") != "v2ray" {
		t.Errorf("custom target should override explicit argument, got %q", q.Get("target"))
	}
	if q.Get("sort") != "true" {
		t.Errorf("custom param missing: %s", raw)
	}
	if q.Has("empty") {
		t.Errorf("empty-valued custom params must be dropped: %s", raw)
	}
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("built URL does not parse: %v", err)
	}
	return parsed.Query()
}
