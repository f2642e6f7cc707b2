package builder

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/productbuilder/internal/project"
)

func TestMergePhraseGroups(t *testing.T) {
	derived := []DerivedGroup{
		{Key: "cron", Title: "Scheduled Tasks", Phrases: []DerivedPhrase{{VarName: "task_a_title", Text: "A"}}},
		{Key: "global", Phrases: []DerivedPhrase{{VarName: "vb_navigation_tab_x_text", Text: "X"}}},
	}
	authored := []project.PhraseGroup{
		{Key: "cron", Title: "", Phrases: []project.Phrase{{VarName: "task_a_title", Text: "A2"}, {VarName: "extra", Text: "E"}}},
		{Key: "demo", Title: "Demo", Phrases: []project.Phrase{{VarName: "demo_hi", Text: "Hi"}}},
		{Key: "global", Title: "Global Phrases"},
	}

	got := MergePhraseGroups(derived, authored)
	require.Equal(t, []PhraseGroup{
		{Key: "cron", Title: "Scheduled Tasks", Phrases: []DerivedPhrase{{VarName: "task_a_title", Text: "A2"}, {VarName: "extra", Text: "E"}}},
		{Key: "global", Title: "Global Phrases", Phrases: []DerivedPhrase{{VarName: "vb_navigation_tab_x_text", Text: "X"}}},
		{Key: "demo", Title: "Demo", Phrases: []DerivedPhrase{{VarName: "demo_hi", Text: "Hi"}}},
	}, got)
}

func TestPhrasesSectionTitlesAndSkips(t *testing.T) {
	p := &project.Project{
		Meta: project.Meta{Version: "1.0", Author: "alice"},
		PhraseGroups: []project.PhraseGroup{
			{Key: "mystery", Phrases: []project.Phrase{{VarName: "lost", Text: "?"}}},
			{Key: "demo", Title: "Demo", Phrases: []project.Phrase{{VarName: "demo_hi", Text: "Hi <b>"}}},
		},
	}
	var logs bytes.Buffer
	sc := newSectionContext(p, nil)
	sc.logger = slog.New(slog.NewTextHandler(&logs, nil))
	sc.phrases.Add("global", "vb_navigation_tab_demo_text", "Demo")

	out := render(t, sc, processPhrases)

	want := "<phrases>\n" +
		"\t<phrasetype name=\"GLOBAL\" fieldname=\"global\">\n" +
		"\t\t<phrase name=\"vb_navigation_tab_demo_text\" username=\"alice\" version=\"1.0\" date=\"1700000000\"><![CDATA[Demo]]></phrase>\n" +
		"\t</phrasetype>\n" +
		"\t<phrasetype name=\"Demo\" fieldname=\"demo\">\n" +
		"\t\t<phrase name=\"demo_hi\" username=\"alice\" version=\"1.0\" date=\"1700000000\"><![CDATA[Hi <b>]]></phrase>\n" +
		"\t</phrasetype>\n" +
		"</phrases>\n"
	require.Equal(t, want, out)
	require.NotContains(t, out, `name=""`)
	require.Contains(t, logs.String(), "Skipping phrase group without title")
	require.Equal(t, []string{"Added phrase vb_navigation_tab_demo_text", "Added phrase demo_hi"}, sc.log.Lines())
}

func TestDerivedPhrasesTitleOnce(t *testing.T) {
	d := NewDerivedPhrases()
	d.SetTitle("cron", "Scheduled Tasks")
	d.SetTitle("cron", "Other")
	d.Add("cron", "a", "1")
	d.Add("cron", "a", "2")
	d.Add("cron", "b", "3")

	groups := d.Groups()
	require.Len(t, groups, 1)
	require.Equal(t, "Scheduled Tasks", groups[0].Title)
	require.Equal(t, []DerivedPhrase{{VarName: "a", Text: "2"}, {VarName: "b", Text: "3"}}, groups[0].Phrases)
	require.Equal(t, 2, d.Count("cron"))
	require.Zero(t, d.Count("missing"))
}

func TestDerivedFilesDeduplicates(t *testing.T) {
	f := NewDerivedFiles()
	f.Add("/a")
	f.Add("/b")
	f.Add("/a")
	require.Equal(t, []string{"/a", "/b"}, f.List())
}

func TestStripBuildComments(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no marker unchanged", "  echo 1;  \n", "  echo 1;  \n"},
		{"sole block", "#if devonly\necho 1;\n#endif", ""},
		{"block in middle", "a();\n#if x\nb();\n#endif\nc();", "a();\n\nc();"},
		{"first block only", "#if a\n1\n#endif\nkeep();\n#if b\n2\n#endif", "\nkeep();\n#if b\n2\n#endif"},
		{"marker not at line start", "echo '#if';", "echo '#if';"},
		{"unterminated block", "#if x\necho 1;", "#if x\necho 1;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StripBuildComments(tc.in))
		})
	}

	stripped := StripBuildComments("a();\n#if x\nb();\n#endif")
	require.Equal(t, stripped, StripBuildComments(stripped))
}

func TestHostGroupTitle(t *testing.T) {
	title, ok := HostGroupTitle("global")
	require.True(t, ok)
	require.Equal(t, "GLOBAL", title)
	_, ok = HostGroupTitle("demo")
	require.False(t, ok)
}
