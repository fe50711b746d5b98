package capability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "gemini-1.5-flash", cfg.DefaultModel)
	assert.Equal(t, []string{"github:"}, cfg.GitHubPrefixes)
	require.NotNil(t, cfg.WebSearch)
	assert.ElementsMatch(t, []string{"gemini-1.5-pro", "gemini-1.5-flash"}, cfg.WebSearch.Legacy)
	assert.ElementsMatch(t, []string{"gemini-2.5-pro"}, cfg.WebSearch.Current)
	require.Contains(t, cfg.Families, Gemini)
	require.Contains(t, cfg.Families, GitHubModels)
}

func TestResolve(t *testing.T) {
	table := Default()

	tests := []struct {
		selector string
		want     Entry
	}{
		{"", Entry{Provider: Gemini, Model: "gemini-1.5-flash", SupportsWebSearch: true, ToolShape: ToolLegacy, SupportsFileParts: true}},
		{"   ", Entry{Provider: Gemini, Model: "gemini-1.5-flash", SupportsWebSearch: true, ToolShape: ToolLegacy, SupportsFileParts: true}},
		{"gemini-1.5-flash", Entry{Provider: Gemini, Model: "gemini-1.5-flash", SupportsWebSearch: true, ToolShape: ToolLegacy, SupportsFileParts: true}},
		{"gemini-1.5-pro", Entry{Provider: Gemini, Model: "gemini-1.5-pro", SupportsWebSearch: true, ToolShape: ToolLegacy, SupportsFileParts: true}},
		{"gemini-2.5-pro", Entry{Provider: Gemini, Model: "gemini-2.5-pro", SupportsWebSearch: true, ToolShape: ToolCurrent, SupportsFileParts: true}},
		{"gemini-2.0-flash", Entry{Provider: Gemini, Model: "gemini-2.0-flash", ToolShape: ToolNone, SupportsFileParts: true}},
		{"gemini-1.0-pro", Entry{Provider: Gemini, Model: "gemini-1.0-pro", ToolShape: ToolNone, SupportsFileParts: true}},
		{"org/small-model", Entry{Provider: GitHubModels, Model: "org/small-model", ToolShape: ToolNone, NativeSystemRole: true}},
		{"acme/chat-small", Entry{Provider: GitHubModels, Model: "acme/chat-small", ToolShape: ToolNone, NativeSystemRole: true}},
		{"microsoft/phi-4-mini-instruct", Entry{Provider: GitHubModels, Model: "microsoft/phi-4-mini-instruct", ToolShape: ToolNone, NativeSystemRole: true}},
		{"github:gpt-4o-mini", Entry{Provider: GitHubModels, Model: "gpt-4o-mini", ToolShape: ToolNone, NativeSystemRole: true}},
		{"github:gemini-2.5-pro", Entry{Provider: GitHubModels, Model: "gemini-2.5-pro", ToolShape: ToolNone, NativeSystemRole: true}},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Resolve(tt.selector))
		})
	}
}

func TestResolve_WebSearchOnlyOnAllowLists(t *testing.T) {
	table := Default()
	for _, sel := range []string{"gemini-2.0-flash", "gemini-pro", "x/gemini-2.5-pro", "openai/gpt-4o", "unknown"} {
		e := table.Resolve(sel)
		assert.False(t, e.SupportsWebSearch, sel)
		assert.Equal(t, ToolNone, e.ToolShape, sel)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	table := Default()
	selectors := []string{"", "gemini-2.5-pro", "org/x", "github:y", "something-else"}

	var wg sync.WaitGroup
	for _, sel := range selectors {
		first := table.Resolve(sel)
		wg.Add(1)
		go func(sel string, first Entry) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.Equal(t, first, table.Resolve(sel))
			}
		}(sel, first)
	}
	wg.Wait()
}

func TestNew_OverlappingListsPreferCurrent(t *testing.T) {
	table, err := New(Config{
		DefaultModel: "gemini-2.0-flash",
		WebSearch: &WebSearchConfig{
			Legacy:  []string{"gemini-2.0-flash"},
			Current: []string{"gemini-2.0-flash"},
		},
	})
	require.NoError(t, err)

	e := table.Resolve("")
	assert.Equal(t, "gemini-2.0-flash", e.Model)
	assert.Equal(t, ToolCurrent, e.ToolShape)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{DefaultModel: "org/model"})
	assert.Error(t, err)

	_, err = New(Config{DefaultModel: "gemini-1.5-flash", Families: map[Provider]FamilyConfig{"bedrock": {}}})
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	merged := base.Merge(Config{
		DefaultModel: "gemini-2.5-pro",
		WebSearch:    &WebSearchConfig{Current: []string{"gemini-2.5-pro", "gemini-2.5-flash"}},
		Families:     map[Provider]FamilyConfig{GitHubModels: {FileParts: boolPtr(true)}},
	})

	assert.Equal(t, "gemini-2.5-pro", merged.DefaultModel)
	assert.Equal(t, base.WebSearch.Legacy, merged.WebSearch.Legacy)
	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, merged.WebSearch.Current)
	require.NotNil(t, merged.Families[GitHubModels].FileParts)
	assert.True(t, *merged.Families[GitHubModels].FileParts)
	assert.True(t, *merged.Families[GitHubModels].NativeSystemRole)

	// base untouched
	assert.Equal(t, "gemini-1.5-flash", base.DefaultModel)
	assert.False(t, *base.Families[GitHubModels].FileParts)

	table, err := New(merged)
	require.NoError(t, err)
	assert.Equal(t, ToolCurrent, table.Resolve("gemini-2.5-flash").ToolShape)
	assert.True(t, table.Resolve("org/x").SupportsFileParts)
}

func TestWebSearchModels(t *testing.T) {
	entries := Default().WebSearchModels()
	require.Len(t, entries, 3)
	assert.Equal(t, "gemini-1.5-flash", entries[0].Model)
	assert.Equal(t, "gemini-1.5-pro", entries[1].Model)
	assert.Equal(t, "gemini-2.5-pro", entries[2].Model)
}
