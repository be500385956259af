package slug

import (
	"strings"

	"github.com/google/uuid"
)

// Make builds a URL-safe profile slug from a display name: lowercased,
// whitespace collapsed to single dashes, with a 6-character random suffix to
// keep slugs unique across users sharing a name.
func Make(username string) string {
	base := strings.ToLower(strings.TrimSpace(username))
	base = strings.Join(strings.Fields(base), "-")
	suffix := uuid.NewString()[:6]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
