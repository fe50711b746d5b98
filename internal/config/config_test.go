package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itzenzy2/PersonalChatBot/internal/capability"
	"github.com/itzenzy2/PersonalChatBot/internal/provider"
)

// isolate runs the test in an empty directory with no ambient config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, ".state"))
	for _, key := range []string{
		EnvConfigPath, EnvGeminiKey, EnvGitHubToken, EnvGeminiBaseURL, EnvGitHubBaseURL,
		EnvHost, EnvPort, EnvLogLevel, EnvProviderTimeout,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.EnableCORS)
	assert.True(t, cfg.Server.Events)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, provider.DefaultTimeout, cfg.ProviderTimeout.Std())
	assert.Equal(t, provider.DefaultGitHubBaseURL, cfg.GitHub.BaseURL)
	assert.Equal(t, provider.DefaultGitHubAPIVersion, cfg.GitHub.APIVersion)
	assert.Empty(t, cfg.Gemini.APIKey)
	assert.Empty(t, cfg.GitHub.Token)
	assert.Equal(t, filepath.Join(dir, ".state", "chatrelay", "log"), cfg.Log.Dir)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadJSONCWithInterpolation(t *testing.T) {
	dir := isolate(t)
	t.Setenv("MY_GEMINI_KEY", "gem-from-env")
	writeFile(t, filepath.Join(dir, "secrets", "github"), "ghp_from_file\n")

	path := writeFile(t, filepath.Join(dir, "relay.jsonc"), `{
		// credentials
		"gemini": { "apiKey": "{env:MY_GEMINI_KEY}" },
		"github": { "token": "{file:secrets/github}" },
		"server": { "port": 9090, "readTimeout": 10 },
		"providerTimeout": "45s",
		"log": { "level": "debug", "pretty": true },
		"capabilities": {
			"defaultModel": "gemini-2.0-flash",
			"webSearch": { "current": ["gemini-2.5-pro", "gemini-2.5-flash"] }
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gem-from-env", cfg.Gemini.APIKey)
	assert.Equal(t, "ghp_from_file", cfg.GitHub.Token)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.EnableCORS, "unset fields keep defaults")
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 45*time.Second, cfg.ProviderTimeout.Std())

	table, err := cfg.CapabilityTable()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", table.DefaultModel())
	assert.Equal(t, capability.ToolCurrent, table.Resolve("gemini-2.5-flash").ToolShape)
	assert.Equal(t, capability.ToolLegacy, table.Resolve("gemini-1.5-flash").ToolShape)

	logCfg := cfg.Logging()
	assert.Equal(t, "debug", logCfg.Level.String())
	assert.True(t, logCfg.Pretty)
}

func TestLoadYAML(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GH", "ghp_yaml")

	path := writeFile(t, filepath.Join(dir, "relay.yaml"), `
github:
  token: "{env:GH}"
  baseUrl: https://models.example.test
server:
  host: 127.0.0.1
  port: 7000
providerTimeout: 2m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ghp_yaml", cfg.GitHub.Token)
	assert.Equal(t, "https://models.example.test", cfg.GitHub.BaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr())
	assert.Equal(t, 2*time.Minute, cfg.ProviderTimeout.Std())

	gh := cfg.GitHubAdapter()
	assert.Equal(t, "ghp_yaml", gh.Token)
	assert.Equal(t, 2*time.Minute, gh.HTTP.Timeout)
}

func TestLoadDiscoversFileInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "chatrelay.json"), `{"server": {"port": 8181}}`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestLoadFromConfigEnv(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "elsewhere", "relay.json"), `{"server": {"port": 8282}}`)
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8282, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "GEMINI_API_KEY=from-dotenv\nGITHUB_TOKEN=dotenv-token\n")
	t.Setenv(EnvGitHubToken, "from-environment")

	cfg, err := Load("")
	t.Cleanup(func() { os.Unsetenv(EnvGeminiKey) })
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Gemini.APIKey)
	assert.Equal(t, "from-environment", cfg.GitHub.Token, "real environment wins over .env")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "relay.json"), `{
		"gemini": {"apiKey": "file-key"},
		"server": {"port": 9000}
	}`)
	t.Setenv(EnvGeminiKey, "env-key")
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvProviderTimeout, "5s")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvGeminiBaseURL, "http://localhost:1234/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout.Std())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "http://localhost:1234/", cfg.GeminiAdapter().BaseURL)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) string
	}{
		{
			name: "explicit file missing",
			setup: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "missing.json")
			},
		},
		{
			name: "invalid JSON",
			setup: func(t *testing.T, dir string) string {
				return writeFile(t, filepath.Join(dir, "bad.json"), `{"server": `)
			},
		},
		{
			name: "invalid duration",
			setup: func(t *testing.T, dir string) string {
				return writeFile(t, filepath.Join(dir, "bad.json"), `{"providerTimeout": "soon"}`)
			},
		},
		{
			name: "invalid port env",
			setup: func(t *testing.T, dir string) string {
				t.Setenv(EnvPort, "eighty")
				return ""
			},
		},
		{
			name: "non-positive timeout",
			setup: func(t *testing.T, dir string) string {
				return writeFile(t, filepath.Join(dir, "zero.json"), `{"providerTimeout": 0}`)
			},
		},
		{
			name: "port out of range",
			setup: func(t *testing.T, dir string) string {
				return writeFile(t, filepath.Join(dir, "port.yaml"), "server:\n  port: 70000\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			_, err := Load(tt.setup(t, dir))
			assert.Error(t, err)
		})
	}
}

func TestInterpolateKeepsUnknownFile(t *testing.T) {
	out := interpolate([]byte(`{"k": "{file:nope.txt}"}`), t.TempDir())
	assert.Equal(t, `{"k": "{file:nope.txt}"}`, string(out))
}

func TestInterpolateEscapesFileContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "prompt.txt"), "line \"one\"\nline\ttwo\n")

	out := interpolate([]byte(`"{file:prompt.txt}"`), dir)
	assert.Equal(t, `"line \"one\"\nline\ttwo"`, string(out))
}

func TestCapabilityTableRejectsBadOverride(t *testing.T) {
	cfg := Default()
	cfg.Capabilities.DefaultModel = "acme/model"
	_, err := cfg.CapabilityTable()
	assert.Error(t, err)
}
