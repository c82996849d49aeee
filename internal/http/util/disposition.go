package util

import (
	"fmt"
	"strings"
)

// ContentDisposition renders an attachment header with the display name
// percent-encoded per RFC 5987, so clients save non-ASCII names correctly
// instead of falling back to the internal object key.
func ContentDisposition(displayName string) string {
	return fmt.Sprintf("attachment; filename*=UTF-8''%s", encodeRFC5987(displayName))
}

// encodeRFC5987 percent-encodes everything outside the attr-char set of
// RFC 5987 §3.2.1.
func encodeRFC5987(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
