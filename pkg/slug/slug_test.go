package slug_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionguard/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^jane-doe-[0-9a-f-]{6}$`)

	got := slug.Make("Jane Doe")
	assert.Regexp(t, pattern, got)

	assert.NotEqual(t, slug.Make("Jane Doe"), slug.Make("Jane Doe"), "suffix keeps slugs unique")

	assert.Regexp(t, `^jane-marie-doe-`, slug.Make("  Jane   Marie Doe "))

	assert.Len(t, slug.Make(""), 6)
}
