package endpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MegaGrindStone/portfolio-chat/internal/endpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleConfig() endpoint.Config {
	return endpoint.Config{
		BaseURL:   "https://example.com",
		Endpoints: map[string]string{"CHAT": "/api/chat"},
	}
}

func TestResolverURL(t *testing.T) {
	tests := []struct {
		name string
		host string
		key  string
		want string
	}{
		{name: "mapped name", host: "example.com", key: "CHAT", want: "https://example.com/api/chat"},
		{name: "unmapped name passes through", host: "example.com", key: "FOO", want: "https://example.comFOO"},
		{name: "unmapped path", host: "example.com", key: "/api/other", want: "https://example.com/api/other"},
		{name: "localhost", host: "localhost", key: "CHAT", want: "http://localhost:8000/api/chat"},
		{name: "ipv4 loopback", host: "127.0.0.1", key: "CHAT", want: "http://localhost:8000/api/chat"},
		{name: "loopback unmapped", host: "127.0.0.1", key: "FOO", want: "http://localhost:8000FOO"},
		{name: "no host", host: "", key: "CHAT", want: "https://example.com/api/chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := endpoint.New(exampleConfig(), tt.host, nil)
			assert.Equal(t, tt.want, r.URL(tt.key))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	r := endpoint.New(endpoint.DefaultConfig(), "portfolio.example", nil)

	assert.Equal(t, "/api/chat", r.URL(endpoint.Chat))
	assert.Equal(t, "/api/health", r.URL(endpoint.Health))
	assert.False(t, r.Local())
}

func TestOverrides(t *testing.T) {
	base := "https://api.example.org"

	t.Run("base url only keeps table", func(t *testing.T) {
		r := endpoint.New(exampleConfig(), "example.com", &endpoint.Overrides{BaseURL: &base})
		assert.Equal(t, "https://api.example.org/api/chat", r.URL("CHAT"))
	})

	t.Run("endpoints replace the whole table", func(t *testing.T) {
		cfg := endpoint.DefaultConfig()
		r := endpoint.New(cfg, "example.com", &endpoint.Overrides{
			Endpoints: map[string]string{"CHAT": "/v2/chat"},
		})

		assert.Equal(t, "/v2/chat", r.URL(endpoint.Chat))
		// HEALTH is gone from the replaced table and falls through literally.
		assert.Equal(t, "HEALTH", r.URL(endpoint.Health))
		assert.Equal(t, map[string]string{"CHAT": "/v2/chat"}, r.Config().Endpoints)
	})

	t.Run("empty base url override is applied", func(t *testing.T) {
		empty := ""
		r := endpoint.New(exampleConfig(), "example.com", &endpoint.Overrides{BaseURL: &empty})
		assert.Equal(t, "/api/chat", r.URL("CHAT"))
	})
}

func TestResolverDoesNotShareTable(t *testing.T) {
	cfg := exampleConfig()
	r := endpoint.New(cfg, "example.com", nil)

	cfg.Endpoints["CHAT"] = "/changed"
	got := r.Config()
	got.Endpoints["CHAT"] = "/changed-again"

	assert.Equal(t, "https://example.com/api/chat", r.URL("CHAT"))
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"localhost:3000", true},
		{"127.0.0.1", true},
		{"127.0.0.2", true},
		{"::1", true},
		{"[::1]:8000", true},
		{"0:0:0:0:0:0:0:1", true},
		{"127.255.255.255", true},
		{"[::ffff:127.0.0.1]", true},
		{"::ffff:7f00:2", true},
		{"128.0.0.1", false},
		{"::2", false},
		{"example.com", false},
		{"10.0.0.1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, endpoint.IsLoopback(tt.host))
		})
	}
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "localhost", endpoint.HostOf("http://localhost:8000"))
	assert.Equal(t, "example.com", endpoint.HostOf("https://example.com/portfolio"))
	assert.Equal(t, "", endpoint.HostOf(""))
	assert.Equal(t, "", endpoint.HostOf("://bad"))
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.toml")
	content := `base_url = "https://api.example.org"

[endpoints]
CHAT = "/v2/chat"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ov, err := endpoint.LoadOverrides(path)
	require.NoError(t, err)
	require.NotNil(t, ov.BaseURL)
	assert.Equal(t, "https://api.example.org", *ov.BaseURL)
	assert.Equal(t, map[string]string{"CHAT": "/v2/chat"}, ov.Endpoints)

	t.Run("missing file", func(t *testing.T) {
		_, err := endpoint.LoadOverrides(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})

	t.Run("absent keys stay nil", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "empty.toml")
		require.NoError(t, os.WriteFile(p, []byte("# nothing\n"), 0o600))
		ov, err := endpoint.LoadOverrides(p)
		require.NoError(t, err)
		assert.Nil(t, ov.BaseURL)
		assert.Nil(t, ov.Endpoints)
	})
}
