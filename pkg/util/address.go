package util

import "strings"

// NormalizeAddress lowercases a 0x-prefixed address so cache keys and lookups
// are case-insensitive. Non-hex inputs pass through trimmed.
func NormalizeAddress(s string) string {
    s = strings.TrimSpace(s)
    if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
        return "0x" + strings.ToLower(s[2:])
    }
    return s
}

// IsHexAddress reports whether s looks like a 0x-prefixed 20-byte address.
func IsHexAddress(s string) bool {
    if len(s) != 42 || (s[0] != '0' || (s[1] != 'x' && s[1] != 'X')) {
        return false
    }
    for _, c := range s[2:] {
        switch {
        case c >= '0' && c <= '9':
        case c >= 'a' && c <= 'f':
        case c >= 'A' && c <= 'F':
        default:
            return false
        }
    }
    return true
}
