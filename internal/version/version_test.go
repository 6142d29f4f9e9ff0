package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, part := range []string{"kbase", Version, Commit} {
		if !strings.Contains(s, part) {
			t.Errorf("%q missing %q", s, part)
		}
	}
}
