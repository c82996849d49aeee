package util

import (
	"strings"
	"testing"
)

func TestRandomID_LengthAndAlphabet(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := RandomID(21)
		if len(id) != 21 {
			t.Fatalf("len = %d", len(id))
		}
		for _, c := range id {
			if !strings.ContainsRune(idAlphabet, c) {
				t.Fatalf("unexpected character %q in %q", c, id)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewObjectKey_Extension(t *testing.T) {
	if key := NewObjectKey("clash"); !strings.HasSuffix(key, ".yaml") {
		t.Errorf("clash key = %q, want .yaml suffix", key)
	}
	for _, target := range []string{"v2ray", "surge&ver=4", "ss", "mixed"} {
		if key := NewObjectKey(target); !strings.HasSuffix(key, ".txt") {
			t.Errorf("%s key = %q, want .txt suffix", target, key)
		}
	}
}

func TestContentDisposition(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"config.yaml", "attachment; filename*=UTF-8''config.yaml"},
		{"my config.yaml", "attachment; filename*=UTF-8''my%20config.yaml"},
		{"配置.yaml", "attachment; filename*=UTF-8''%E9%85%8D%E7%BD%AE.yaml"},
	}
	for _, tc := range cases {
		if got := ContentDisposition(tc.name); got != tc.want {
			t.Errorf("ContentDisposition(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
