// internal/common/cache/keys.go
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// maxReadableKey bounds the readable form; longer keys are hashed.
const maxReadableKey = 160

// DeriveKey builds a deterministic key from a namespace and named parts.
// Empty parts are dropped, values are trimmed, and parts are ordered by name.
// Case is kept: catalog filters match slugs case-sensitively, so two values
// differing only in case may count differently.
func DeriveKey(namespace string, parts map[string]string) string {
	names := make([]string, 0, len(parts))
	for name, v := range parts {
		if strings.TrimSpace(v) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(namespace)
	for _, name := range names {
		b.WriteString(":")
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(strings.TrimSpace(parts[name]))
	}
	if len(names) == 0 {
		b.WriteString(":all")
	}

	key := b.String()
	if len(key) <= maxReadableKey {
		return key
	}
	sum := sha1.Sum([]byte(key))
	return namespace + ":h=" + hex.EncodeToString(sum[:])
}
