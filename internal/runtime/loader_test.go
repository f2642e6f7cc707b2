package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/productbuilder/internal/project"
)

func sample(id string, active bool) *project.Project {
	return &project.Project{
		ID:     id,
		Active: active,
		Meta:   project.Meta{Title: "Demo", Version: "1.0.0"},
		Templates: []project.Template{
			{Name: "demo_box", Body: "<div/>", Type: project.TemplateTypeTemplate},
		},
		Plugins: []project.Plugin{
			{HookName: "init_startup", Code: "boot();"},
			{HookName: "global_start", Code: "a();"},
			{HookName: "global_start", Code: "b();"},
		},
		PhraseGroups: []project.PhraseGroup{
			{Key: "demo", Phrases: []project.Phrase{{VarName: id + "_hello", Text: "Hello"}}},
		},
		OptionGroups: []project.OptionGroup{{VarName: "g", Title: "G", Options: []project.Option{
			{VarName: id + "_on", Title: "On", DefaultValue: project.StringPtr("1")},
			{VarName: id + "_off", Title: "Off"},
		}}},
		Tasks: []project.Task{{VarName: "cleanup", Title: "Cleanup"}},
		Navigation: []project.Tab{{Name: "demo", Text: "Demo", URL: "demo.php", Links: []project.Link{
			{Name: "x", Text: "X", Parent: "demo"},
		}}},
	}
}

func TestLoadRoutesInitStartupSeparately(t *testing.T) {
	sink := NewMemorySink()
	l := NewLoader(sink)
	l.Load(sample("demo", true), Plugins)

	require.Equal(t, "\nboot();\n", l.InitCode())
	_, ok := sink.Hooks[InitStartupHook]
	require.False(t, ok)
	require.Equal(t, "\na();\n\nb();\n", sink.Hooks["global_start"])
	require.Empty(t, sink.Templates)
}

func TestLoadAllFlags(t *testing.T) {
	sink := NewMemorySink()
	l := NewLoader(sink, WithNavIDBase(100))
	l.Load(sample("demo", true), All)

	require.Equal(t, "<div/>", sink.Templates["demo_box"])
	require.Equal(t, "Hello", sink.Phrases["demo_hello"])
	require.Equal(t, "Cleanup", sink.Phrases["task_cleanup_title"])
	require.Equal(t, "On", sink.Phrases["setting_demo_on_title"])
	require.Equal(t, "Demo", sink.Phrases["vb_navigation_tab_demo_text"])
	require.Equal(t, "1", sink.Options["demo_on"])
	require.Equal(t, "", sink.Options["demo_off"])

	require.True(t, sink.HookContains(NavigationArrayHook, "$result['vbtab_demo'] = array (\n"))
	require.True(t, sink.HookContains(NavigationArrayHook, "'navid' => 101,"))
	require.True(t, sink.HookContains(NavigationArrayHook, "'navid' => 102,"))
	require.True(t, sink.HookContains(NavigationArrayHook, "'productid' => 'demo',"))
}

func TestLoadAllSkipsInactive(t *testing.T) {
	sink := NewMemorySink()
	l := NewLoader(sink)
	l.LoadAll([]*project.Project{sample("b", true), sample("off", false), sample("a", true)})

	require.Equal(t, []string{"b", "a"}, l.Loaded())
	require.Contains(t, sink.Phrases, "b_hello")
	require.NotContains(t, sink.Phrases, "off_hello")
	require.Equal(t, "\nboot();\n\nboot();\n", l.InitCode())
}
