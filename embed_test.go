package portfolio

import (
	"io/fs"
	"strings"
	"testing"
)

func TestStaticConfigLoopbackRule(t *testing.T) {
	b, err := fs.ReadFile(StaticFS, "static/js/config.js")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	js := string(b)

	// The browser resolver must treat the whole 127.0.0.0/8 range, ::1 and mapped addresses as loopback,
	// like endpoint.IsLoopback does.
	for _, want := range []string{
		"isLoopbackHost(window.location.hostname)",
		`/^127(\.\d{1,3}){3}$/`,
		"host === '::1'",
		"::ffff:",
		"toLowerCase()",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("config.js does not contain %q", want)
		}
	}
	if strings.Contains(js, "host === '127.0.0.1'") {
		t.Error("config.js still matches only 127.0.0.1")
	}
}
