package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/itzenzy2/PersonalChatBot/internal/capability"
	"github.com/itzenzy2/PersonalChatBot/internal/logging"
	"github.com/itzenzy2/PersonalChatBot/internal/provider"
)

// Environment variables read by Load.
const (
	EnvConfigPath      = "CHATRELAY_CONFIG"
	EnvGeminiKey       = "GEMINI_API_KEY"
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvGeminiBaseURL   = "GEMINI_BASE_URL"
	EnvGitHubBaseURL   = "GITHUB_MODELS_BASE_URL"
	EnvHost            = "CHATRELAY_HOST"
	EnvPort            = "CHATRELAY_PORT"
	EnvLogLevel        = "CHATRELAY_LOG_LEVEL"
	EnvProviderTimeout = "CHATRELAY_PROVIDER_TIMEOUT"
)

// Config is the relay configuration.
type Config struct {
	Server          ServerConfig `json:"server" yaml:"server"`
	Gemini          GeminiConfig `json:"gemini" yaml:"gemini"`
	GitHub          GitHubConfig `json:"github" yaml:"github"`
	ProviderTimeout Duration     `json:"providerTimeout" yaml:"providerTimeout"`
	Log             LogConfig    `json:"log" yaml:"log"`
	// Capabilities overrides the built-in capability table.
	Capabilities capability.Config `json:"capabilities" yaml:"capabilities"`
}

type ServerConfig struct {
	Host         string   `json:"host" yaml:"host"`
	Port         int      `json:"port" yaml:"port"`
	EnableCORS   bool     `json:"enableCors" yaml:"enableCors"`
	ReadTimeout  Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout Duration `json:"writeTimeout" yaml:"writeTimeout"`

	// Events enables the GET /events activity stream.
	Events bool `json:"events" yaml:"events"`
}

type GeminiConfig struct {
	APIKey  string `json:"apiKey" yaml:"apiKey"`
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`
}

type GitHubConfig struct {
	Token      string `json:"token" yaml:"token"`
	BaseURL    string `json:"baseUrl" yaml:"baseUrl"`
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
	File   bool   `json:"file" yaml:"file"`
	Dir    string `json:"dir" yaml:"dir"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			EnableCORS:  true,
			Events:      true,
			ReadTimeout: Duration(30 * time.Second),
		},
		GitHub: GitHubConfig{
			BaseURL:    provider.DefaultGitHubBaseURL,
			APIVersion: provider.DefaultGitHubAPIVersion,
		},
		ProviderTimeout: Duration(provider.DefaultTimeout),
		Log: LogConfig{
			Level: "info",
			Dir:   GetPaths().LogDir(),
		},
	}
}

// Load builds the configuration from, in increasing priority:
//  1. built-in defaults
//  2. a .env file in the working directory (never overriding the environment)
//  3. the config file at path, or CHATRELAY_CONFIG, or the first discovered one
//  4. environment variables
//
// An explicitly named file must exist; discovered files are optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	explicit := path
	if explicit == "" {
		explicit = os.Getenv(EnvConfigPath)
	}
	if explicit != "" {
		if err := loadConfigFile(explicit, cfg); err != nil {
			return nil, err
		}
	} else {
		for _, candidate := range SearchPaths() {
			err := loadConfigFile(candidate, cfg)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			break
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile decodes one file onto cfg. The format follows the
// extension: .yaml/.yml as YAML, anything else as JSON with comments.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	baseDir := filepath.Dir(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data = interpolate(data, baseDir)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		data = interpolate(jsonc.ToJSON(data), baseDir)
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	logging.Debug().Str("path", path).Msg("config file loaded")
	return nil
}

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// interpolate expands {env:VAR} and {file:path} placeholders. File
// contents are escaped for use inside a double-quoted string.
func interpolate(data []byte, baseDir string) []byte {
	str := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]
		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match
		}

		// Secrets written by editors end with a newline.
		escaped := strings.TrimRight(string(content), "\r\n")
		escaped = strings.ReplaceAll(escaped, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")
		return escaped
	})

	return []byte(str)
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Gemini.APIKey, EnvGeminiKey)
	setString(&cfg.GitHub.Token, EnvGitHubToken)
	setString(&cfg.Gemini.BaseURL, EnvGeminiBaseURL)
	setString(&cfg.GitHub.BaseURL, EnvGitHubBaseURL)
	setString(&cfg.Server.Host, EnvHost)
	setString(&cfg.Log.Level, EnvLogLevel)

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvProviderTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProviderTimeout, err)
		}
		cfg.ProviderTimeout = Duration(d)
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("providerTimeout must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CapabilityTable builds the capability table with the configured overrides
// applied on top of the built-in data.
func (c *Config) CapabilityTable() (*capability.Table, error) {
	return capability.New(capability.DefaultConfig().Merge(c.Capabilities))
}

// GeminiAdapter returns the adapter settings for the Gemini family.
func (c *Config) GeminiAdapter() provider.GeminiConfig {
	return provider.GeminiConfig{
		APIKey:  c.Gemini.APIKey,
		BaseURL: c.Gemini.BaseURL,
		HTTP:    provider.HTTPOptions{Timeout: c.ProviderTimeout.Std()},
	}
}

// GitHubAdapter returns the adapter settings for the GitHub Models family.
func (c *Config) GitHubAdapter() provider.GitHubConfig {
	return provider.GitHubConfig{
		Token:      c.GitHub.Token,
		BaseURL:    c.GitHub.BaseURL,
		APIVersion: c.GitHub.APIVersion,
		HTTP:       provider.HTTPOptions{Timeout: c.ProviderTimeout.Std()},
	}
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	cfg.LogToFile = c.Log.File
	if c.Log.Dir != "" {
		cfg.LogDir = c.Log.Dir
	}
	return cfg
}

// Duration is a time.Duration that decodes from "90s"-style strings or from
// a number of seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(val * float64(time.Second))
	case int:
		*d = Duration(time.Duration(val) * time.Second)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}
