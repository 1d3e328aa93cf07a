package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v0.3.0", "abc123", "2026-01-02"
	want := "version: v0.3.0\ncommit: abc123\nbuilt: 2026-01-02"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} v0.3.0\n") {
		t.Errorf("Template() = %q", got)
	}
}
