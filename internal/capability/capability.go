// Package capability maps a model selector to its provider family and the
// features the relay may use with it. Tables are immutable once built and
// safe for concurrent use.
package capability

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// Provider is a provider family sharing one wire protocol.
type Provider string

const (
	Gemini       Provider = "gemini"
	GitHubModels Provider = "github"
)

// ToolShape is the structural form of the web-search tool a model accepts.
type ToolShape string

const (
	ToolNone    ToolShape = "none"
	ToolLegacy  ToolShape = "legacy"
	ToolCurrent ToolShape = "current"
)

// Entry is the routing and capability facts for one selector.
type Entry struct {
	Provider          Provider  `json:"provider"`
	Model             string    `json:"model"`
	SupportsWebSearch bool      `json:"supportsWebSearch"`
	ToolShape         ToolShape `json:"toolShape"`
	// SupportsFileParts reports whether non-text parts reach the provider.
	SupportsFileParts bool `json:"supportsFileParts"`
	// NativeSystemRole selects the system-prompt strategy: a real system
	// message when true, the synthetic user/assistant pair otherwise.
	NativeSystemRole bool `json:"nativeSystemRole"`
}

// FamilyConfig holds per-family switches.
type FamilyConfig struct {
	FileParts        *bool `json:"fileParts,omitempty" yaml:"fileParts,omitempty"`
	NativeSystemRole *bool `json:"nativeSystemRole,omitempty" yaml:"nativeSystemRole,omitempty"`
}

// WebSearchConfig lists the Gemini identifiers per tool shape.
type WebSearchConfig struct {
	Legacy  []string `json:"legacy,omitempty" yaml:"legacy,omitempty"`
	Current []string `json:"current,omitempty" yaml:"current,omitempty"`
}

// Config is the data form of a table. Zero-valued fields in an override
// keep the value they are merged onto.
type Config struct {
	DefaultModel   string                    `json:"defaultModel,omitempty" yaml:"defaultModel,omitempty"`
	GitHubPrefixes []string                  `json:"githubPrefixes,omitempty" yaml:"githubPrefixes,omitempty"`
	WebSearch      *WebSearchConfig          `json:"webSearch,omitempty" yaml:"webSearch,omitempty"`
	Families       map[Provider]FamilyConfig `json:"families,omitempty" yaml:"families,omitempty"`
}

//go:embed defaults.jsonc
var defaultsJSONC []byte

// DefaultConfig returns the built-in table data.
func DefaultConfig() Config {
	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(defaultsJSONC), &cfg); err != nil {
		panic(fmt.Sprintf("capability: malformed built-in defaults: %v", err))
	}
	return cfg
}

// Merge overlays override onto c and returns the result.
func (c Config) Merge(override Config) Config {
	out := c
	if override.DefaultModel != "" {
		out.DefaultModel = override.DefaultModel
	}
	if override.GitHubPrefixes != nil {
		out.GitHubPrefixes = override.GitHubPrefixes
	}
	if override.WebSearch != nil {
		ws := WebSearchConfig{}
		if c.WebSearch != nil {
			ws = *c.WebSearch
		}
		if override.WebSearch.Legacy != nil {
			ws.Legacy = override.WebSearch.Legacy
		}
		if override.WebSearch.Current != nil {
			ws.Current = override.WebSearch.Current
		}
		out.WebSearch = &ws
	}
	if override.Families != nil {
		out.Families = make(map[Provider]FamilyConfig, len(c.Families))
		for k, v := range c.Families {
			out.Families[k] = v
		}
		for k, v := range override.Families {
			f := out.Families[k]
			if v.FileParts != nil {
				f.FileParts = v.FileParts
			}
			if v.NativeSystemRole != nil {
				f.NativeSystemRole = v.NativeSystemRole
			}
			out.Families[k] = f
		}
	}
	return out
}

type family struct {
	fileParts        bool
	nativeSystemRole bool
}

// Table resolves model selectors. Build one with New or Default.
type Table struct {
	defaultModel string
	prefixes     []string
	webSearch    map[string]ToolShape
	families     map[Provider]family
}

// New builds a table from cfg.
func New(cfg Config) (*Table, error) {
	defaultModel := strings.TrimSpace(cfg.DefaultModel)
	if defaultModel == "" {
		return nil, fmt.Errorf("capability: default model is required")
	}
	if strings.Contains(defaultModel, "/") {
		return nil, fmt.Errorf("capability: default model %q must be a Gemini identifier", defaultModel)
	}

	t := &Table{
		defaultModel: defaultModel,
		webSearch:    make(map[string]ToolShape),
		families:     make(map[Provider]family),
	}

	for _, p := range cfg.GitHubPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			t.prefixes = append(t.prefixes, p)
		}
	}

	if cfg.WebSearch != nil {
		for _, id := range cfg.WebSearch.Legacy {
			t.webSearch[id] = ToolLegacy
		}
		// Current wins when an identifier is listed twice.
		for _, id := range cfg.WebSearch.Current {
			t.webSearch[id] = ToolCurrent
		}
	}

	for name, f := range cfg.Families {
		if name != Gemini && name != GitHubModels {
			return nil, fmt.Errorf("capability: unknown provider family %q", name)
		}
		t.families[name] = family{
			fileParts:        f.FileParts != nil && *f.FileParts,
			nativeSystemRole: f.NativeSystemRole != nil && *f.NativeSystemRole,
		}
	}

	return t, nil
}

var defaultTable = mustDefault()

func mustDefault() *Table {
	t, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the table built from the embedded defaults.
func Default() *Table {
	return defaultTable
}

// DefaultModel returns the identifier used when a request names no model.
func (t *Table) DefaultModel() string {
	return t.defaultModel
}

// Resolve maps a selector to its entry. It performs no I/O.
func (t *Table) Resolve(selector string) Entry {
	selector = strings.TrimSpace(selector)

	for _, p := range t.prefixes {
		if strings.HasPrefix(selector, p) {
			return t.githubEntry(strings.TrimPrefix(selector, p))
		}
	}
	if strings.Contains(selector, "/") {
		return t.githubEntry(selector)
	}

	model := selector
	if model == "" {
		model = t.defaultModel
	}
	shape, ok := t.webSearch[model]
	if !ok {
		shape = ToolNone
	}
	f := t.families[Gemini]
	return Entry{
		Provider:          Gemini,
		Model:             model,
		SupportsWebSearch: shape != ToolNone,
		ToolShape:         shape,
		SupportsFileParts: f.fileParts,
		NativeSystemRole:  f.nativeSystemRole,
	}
}

func (t *Table) githubEntry(model string) Entry {
	f := t.families[GitHubModels]
	return Entry{
		Provider:          GitHubModels,
		Model:             model,
		SupportsWebSearch: false,
		ToolShape:         ToolNone,
		SupportsFileParts: f.fileParts,
		NativeSystemRole:  f.nativeSystemRole,
	}
}

// WebSearchModels returns the resolved entries of every identifier on a
// web-search list, sorted by model.
func (t *Table) WebSearchModels() []Entry {
	ids := make([]string, 0, len(t.webSearch))
	for id := range t.webSearch {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, t.Resolve(id))
	}
	return entries
}
