package builder

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/productbuilder/internal/checksum"
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/metrics"
	"git.home.luguber.info/inful/productbuilder/internal/project"
)

type fixture struct {
	root    string
	project *project.Project
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "demo.php", "<?php\r\necho 'demo';\r\n")
	writeFile(t, root, "includes/demo/functions.php", "<?php function demo() {}")
	writeFile(t, root, "includes/demo/.svn/entries", "svn")
	writeFile(t, root, "images/demo/logo.png", "\x89PNG\r\n")
	writeFile(t, root, "cleanup.php", "<?php // cron")

	p := &project.Project{
		ID:     "demo",
		Active: true,
		Meta: project.Meta{
			Title:       "Demo Product",
			Description: "A demo",
			Version:     "1.0.0",
			URL:         "https://example.com",
			VersionURL:  "https://example.com/version",
			Author:      "alice",
		},
		BuildPath:    filepath.Join(t.TempDir(), "build"),
		Files:        []string{"demo.php", "includes/demo", "images/demo/logo.png"},
		Dependencies: project.Dependencies{{Type: "vbulletin", MinVersion: "4.0.0", MaxVersion: "4.2.99"}},
		Codes:        []project.Code{{Version: "1.0.0", Install: "install();"}},
		Templates:    []project.Template{{Name: "demo_box", Body: "<div>\r\n</div>", Type: project.TemplateTypeTemplate}},
		Plugins: []project.Plugin{
			{Title: "Demo - global_start", HookName: "global_start", Code: "demo();", Active: true, ExecutionOrder: 5},
			{Title: "Dev", HookName: "init_startup", Code: "#if devonly\necho 1;\n#endif", Active: true, ExecutionOrder: 5},
		},
		OptionGroups: []project.OptionGroup{optionGroup("demo", 1)},
		Tasks: []project.Task{{
			VarName: "cleanup", Title: "Cleanup", Description: "Removes old data", LogText: "Cleaned",
			Filename: "/cleanup.php", Weekday: "*", Day: "*", Hour: "3", Minutes: "0",
		}},
		Navigation: []project.Tab{{Name: "demo", Text: "Demo", Scripts: "demo", URL: "demo.php"}},
		PhraseGroups: []project.PhraseGroup{
			{Key: "demo", Title: "Demo", Phrases: []project.Phrase{{VarName: "demo_hello", Text: "Héllo"}}},
		},
	}
	return fixture{root: root, project: p}
}

func newTestBuilder(root string, opts ...Option) *Builder {
	base := []Option{
		WithRoot(root),
		WithRegistry(StaticRegistry{}),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string { return "build-1" }),
	}
	return New(append(base, opts...)...)
}

func TestBuildProducesDocumentStagingAndManifests(t *testing.T) {
	fx := newFixture(t)
	res, err := newTestBuilder(fx.root).Build(context.Background(), fx.project)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, "build-1", res.BuildID)

	require.Equal(t, filepath.Join(fx.project.BuildPath, "product-demo.xml"), res.DocumentPath)
	raw, err := os.ReadFile(res.DocumentPath)
	require.NoError(t, err)
	doc := string(raw)

	require.True(t, strings.HasPrefix(doc, "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\r\n\r\n<product productid=\"demo\" active=\"1\">\n"))
	require.Contains(t, doc, "\t<title>Demo Product</title>\n\t<description>A demo</description>\n\t<version>1.0.0</version>\n")
	require.Contains(t, doc, "\t<versioncheckurl>https://example.com/version</versioncheckurl>\n")
	// Latin-1 output.
	require.Contains(t, doc, "H\xe9llo")

	order := []string{"<dependencies>", "<codes>", "<templates>", "<plugins>", "<options>", "<cronentries>", "<navigation>", "<phrases>", "<stylevardfns>"}
	last := -1
	for _, tag := range order {
		i := strings.Index(doc, tag)
		require.Greater(t, i, last, tag)
		last = i
	}
	require.True(t, strings.HasSuffix(doc, "\t<stylevardfns>\n\t</stylevardfns>\n</product>\n"))
	require.Equal(t, 1, strings.Count(doc, "<plugin "))

	require.Equal(t, []string{
		"demo.php",
		"includes/demo/functions.php",
		"images/demo/logo.png",
		"cleanup.php",
	}, res.StagedFiles)
	upload := filepath.Join(fx.project.BuildPath, "upload")
	_, err = os.Stat(filepath.Join(upload, "includes", "demo", ".svn"))
	require.True(t, os.IsNotExist(err))

	require.NotNil(t, res.Manifest)
	require.Equal(t, 4, res.Manifest.Flat.Count())
	require.Equal(t, []checksum.NamedHash{{Name: "global_start", Hash: checksum.HashInline("demo();")}}, res.Manifest.Extended.Plugins)
	require.Equal(t, []checksum.NamedHash{{Name: "demo_box", Hash: checksum.HashInline("<div>\n</div>")}}, res.Manifest.Extended.Templates)
	require.Equal(t, filepath.Join(fx.root, "includes", "md5_sums_demo.php"), res.Manifest.FlatPath)
	for _, name := range []string{"md5_sums_demo.php", "md5_sums_demo.extended.php"} {
		_, err := os.Stat(filepath.Join(upload, "includes", name))
		require.NoError(t, err, name)
	}

	lines := res.Log.Lines()
	require.Equal(t, "Building project demo", lines[0])
	require.Contains(t, lines, "Added scheduled task entitled Cleanup")
	require.Contains(t, lines, "Created Product XML Successfully at "+res.DocumentPath)
	require.Contains(t, lines, "Copied file includes/demo/functions.php")
	require.Contains(t, lines, "Created project checksum file")
	require.Equal(t, "Project Demo Product Built Successfully!", lines[len(lines)-1])
	require.False(t, res.Log.Contains("Added plugin on init_startup"))
}

func TestBuildIsReproducible(t *testing.T) {
	fx := newFixture(t)
	b := newTestBuilder(fx.root)

	first, err := b.Build(context.Background(), fx.project)
	require.NoError(t, err)
	doc1, err := os.ReadFile(first.DocumentPath)
	require.NoError(t, err)
	ext1, err := os.ReadFile(first.Manifest.ExtendedPath)
	require.NoError(t, err)

	second, err := b.Build(context.Background(), fx.project)
	require.NoError(t, err)
	doc2, err := os.ReadFile(second.DocumentPath)
	require.NoError(t, err)
	ext2, err := os.ReadFile(second.Manifest.ExtendedPath)
	require.NoError(t, err)

	require.Equal(t, doc1, doc2)
	require.Equal(t, ext1, ext2)
	require.Equal(t, first.Log.Lines(), second.Log.Lines())
}

func TestBuildWithoutFilesSkipsStaging(t *testing.T) {
	fx := newFixture(t)
	fx.project.Files = nil
	fx.project.Tasks = nil

	res, err := newTestBuilder(fx.root).Build(context.Background(), fx.project)
	require.NoError(t, err)
	require.Nil(t, res.Manifest)
	require.Empty(t, res.StagedFiles)
	_, err = os.Stat(filepath.Join(fx.project.BuildPath, "upload"))
	require.True(t, os.IsNotExist(err))
	require.False(t, res.Log.Contains("Created project checksum file"))
}

func TestBuildStagingErrorBeforeDocument(t *testing.T) {
	fx := newFixture(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	fx.project.BuildPath = filepath.Join(blocker, "build")

	res, err := newTestBuilder(fx.root).Build(context.Background(), fx.project)
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryStaging))
	require.Equal(t, StatusFailed, res.Status)
	require.Empty(t, res.DocumentPath)
	require.Empty(t, res.Log.Lines())
}

func TestBuildMissingFileKeepsPartialLog(t *testing.T) {
	fx := newFixture(t)
	fx.project.Files = append(fx.project.Files, "missing.php")

	res, err := newTestBuilder(fx.root).Build(context.Background(), fx.project)
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryIO))
	require.NotEmpty(t, res.DocumentPath)
	require.True(t, res.Log.Contains("Created Product XML Successfully"))
	require.False(t, res.Log.Contains("Project Demo Product Built"))
}

func TestBuildInvalidProject(t *testing.T) {
	fx := newFixture(t)
	fx.project.ID = "Not Valid"

	_, err := newTestBuilder(fx.root).Build(context.Background(), fx.project)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestBuildCanceled(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestBuilder(fx.root).Build(ctx, fx.project)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCanceled, res.Status)
	require.Empty(t, res.DocumentPath)
}

func TestBuildRecordsMetrics(t *testing.T) {
	fx := newFixture(t)
	rec := &countingRecorder{sections: map[string]int{}}

	_, err := newTestBuilder(fx.root, WithRecorder(rec)).Build(context.Background(), fx.project)
	require.NoError(t, err)
	require.Len(t, rec.sections, len(sectionKinds()))
	require.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	require.Equal(t, 4, rec.staged)
}

func TestBuildDefaultBuildPath(t *testing.T) {
	fx := newFixture(t)
	fx.project.BuildPath = ""
	fx.project.Dir = t.TempDir()

	res, err := newTestBuilder(fx.root).Build(context.Background(), fx.project)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(fx.project.Dir, "build", "product-demo.xml"), res.DocumentPath)

	fx.project.Dir = ""
	_, err = newTestBuilder(fx.root).Build(context.Background(), fx.project)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

type countingRecorder struct {
	metrics.NoopRecorder
	sections map[string]int
	outcomes []metrics.BuildOutcomeLabel
	staged   int
}

func (r *countingRecorder) ObserveSectionDuration(section string, _ time.Duration) {
	r.sections[section]++
}

func (r *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.outcomes = append(r.outcomes, o)
}

func (r *countingRecorder) AddFilesStaged(n int) { r.staged += n }
