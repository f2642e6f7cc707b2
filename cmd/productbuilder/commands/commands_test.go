package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/hostdb"
	"git.home.luguber.info/inful/productbuilder/internal/project"
)

type workspace struct {
	dir string
	cli *CLI
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newWorkspace(t *testing.T, withDB bool) workspace {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := "root: " + filepath.Join(dir, "src") + "\n" +
		"projects_dir: " + filepath.Join(dir, "projects") + "\n" +
		"logging:\n  level: error\n"
	if withDB {
		cfg += "database: " + filepath.Join(dir, "host.db") + "\n"
	}
	writeFile(t, filepath.Join(dir, "productbuilder.yaml"), cfg)
	writeFile(t, filepath.Join(dir, "src", "demo.php"), "<?php echo 'demo';")

	p := &project.Project{
		ID:     "demo",
		Active: true,
		Meta:   project.Meta{Title: "Demo", Version: "1.0.0"},
		Files:  []string{"demo.php"},
		PhraseGroups: []project.PhraseGroup{
			{Key: "demo", Title: "Demo", Phrases: []project.Phrase{{VarName: "demo_hello", Text: "Hello"}}},
		},
	}
	require.NoError(t, project.WriteTree(p, filepath.Join(dir, "projects", "demo")))

	return workspace{dir: dir, cli: &CLI{Config: filepath.Join(dir, "productbuilder.yaml")}}
}

func TestInitWritesConfigOnce(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cli := &CLI{Config: filepath.Join(dir, "productbuilder.yaml")}
	var out bytes.Buffer

	require.NoError(t, (&InitCmd{}).Run(&Global{Out: &out}, cli))
	require.Contains(t, out.String(), "Configuration written to")
	require.FileExists(t, cli.Config)

	err := (&InitCmd{}).Run(&Global{Out: &out}, cli)
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))

	require.NoError(t, (&InitCmd{Force: true}).Run(&Global{Out: &out}, cli))
}

func TestBuildByIDRecordsHistory(t *testing.T) {
	ws := newWorkspace(t, true)
	var out bytes.Buffer

	require.NoError(t, (&BuildCmd{Projects: []string{"demo"}}).Run(&Global{Out: &out}, ws.cli))
	require.Contains(t, out.String(), "Building project demo")
	require.Contains(t, out.String(), "Project Demo Built Successfully!")
	require.FileExists(t, filepath.Join(ws.dir, "projects", "demo", "build", "product-demo.xml"))
	require.FileExists(t, filepath.Join(ws.dir, "projects", "demo", "build", "upload", "demo.php"))

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 10}).Run(&Global{Out: &out}, ws.cli))
	require.Contains(t, out.String(), "BUILD ID")
	require.Contains(t, out.String(), "demo")
	require.Contains(t, out.String(), "success")
}

func TestBuildAllByDirectory(t *testing.T) {
	ws := newWorkspace(t, false)
	var out bytes.Buffer

	require.NoError(t, (&BuildCmd{All: true}).Run(&Global{Out: &out}, ws.cli))
	require.Contains(t, out.String(), "Project Demo Built Successfully!")

	out.Reset()
	require.NoError(t, (&BuildCmd{Projects: []string{filepath.Join(ws.dir, "projects", "demo")}}).Run(&Global{Out: &out}, ws.cli))
	require.Contains(t, out.String(), "Project Demo Built Successfully!")
}

func TestBuildWithoutProjects(t *testing.T) {
	ws := newWorkspace(t, false)
	err := (&BuildCmd{}).Run(&Global{Out: &bytes.Buffer{}}, ws.cli)
	require.Error(t, err)
	require.Equal(t, foundationerrors.ExitUsage, foundationerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCommandsRequiringDatabase(t *testing.T) {
	ws := newWorkspace(t, false)
	g := &Global{Out: &bytes.Buffer{}}

	for name, run := range map[string]func() error{
		"port":    func() error { return (&PortCmd{ID: "demo"}).Run(g, ws.cli) },
		"history": func() error { return (&HistoryCmd{}).Run(g, ws.cli) },
		"from-db": func() error { return (&BuildCmd{FromDB: "demo"}).Run(g, ws.cli) },
	} {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
		})
	}
}

func TestPortFromDatabase(t *testing.T) {
	ws := newWorkspace(t, true)

	db, err := hostdb.Open(filepath.Join(ws.dir, "host.db"))
	require.NoError(t, err)
	require.NoError(t, db.Install(t.Context(), &hostdb.ProductData{
		Product:     hostdb.Product{ID: "ported", Title: "Ported", Version: "2.0.0", Active: true},
		PhraseTypes: []hostdb.PhraseType{{FieldName: "ported", Title: "Ported", Product: "ported"}},
		Phrases:     []hostdb.Phrase{{VarName: "ported_hi", FieldName: "ported", Text: "Hi"}},
	}))
	require.NoError(t, db.Close())

	var out bytes.Buffer
	require.NoError(t, (&PortCmd{ID: "ported"}).Run(&Global{Out: &out}, ws.cli))
	require.Contains(t, out.String(), "Ported product ported (Ported)")

	p, err := project.LoadTree(filepath.Join(ws.dir, "projects", "ported"))
	require.NoError(t, err)
	require.Equal(t, "2.0.0", p.Meta.Version)
	require.Len(t, p.PhraseGroups, 1)

	missing := (&PortCmd{ID: "nope"}).Run(&Global{Out: &out}, ws.cli)
	require.Error(t, missing)
	require.Equal(t, foundationerrors.ExitNotFound, foundationerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(missing))
}

func TestChecksumAfterBuild(t *testing.T) {
	ws := newWorkspace(t, false)
	g := &Global{Out: &bytes.Buffer{}}
	require.NoError(t, (&BuildCmd{Projects: []string{"demo"}}).Run(g, ws.cli))

	var out bytes.Buffer
	require.NoError(t, (&ChecksumCmd{Project: "demo"}).Run(&Global{Out: &out}, ws.cli))
	require.Contains(t, out.String(), filepath.Join(ws.dir, "src", "includes", "md5_sums_demo.php"))
}

func TestRuntimeSummary(t *testing.T) {
	ws := newWorkspace(t, false)

	var out bytes.Buffer
	require.NoError(t, (&RuntimeCmd{}).Run(&Global{Out: &out}, ws.cli))
	require.Contains(t, out.String(), "Loaded: [demo]")
	require.Contains(t, out.String(), "Phrases: 1")

	out.Reset()
	require.NoError(t, (&RuntimeCmd{Projects: []string{"demo"}, Hook: "global_start"}).Run(&Global{Out: &out}, ws.cli))
	require.Empty(t, out.String())
}

func TestWatchIgnoresBuildOutput(t *testing.T) {
	ws := newWorkspace(t, false)
	e, err := openEnv(ws.cli)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.close() })

	dirs, ignore, err := e.watchTargets([]string{"demo"})
	require.NoError(t, err)
	projectDir := filepath.Join(ws.dir, "projects", "demo")
	require.Equal(t, []string{projectDir}, dirs)
	require.Contains(t, ignore, filepath.Join(projectDir, "build"))
	require.Contains(t, ignore, filepath.Join(ws.dir, "src", "includes"))
}

func TestBuildFromDatabaseUsesTemporaryTree(t *testing.T) {
	ws := newWorkspace(t, true)
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	db, err := hostdb.Open(filepath.Join(ws.dir, "host.db"))
	require.NoError(t, err)
	require.NoError(t, db.Install(t.Context(), &hostdb.ProductData{
		Product: hostdb.Product{ID: "ported", Title: "Ported", Version: "2.0.0", Active: true},
		Plugins: []hostdb.Plugin{{Title: "Start", HookName: "global_start", Code: "go();", Active: true, ExecutionOrder: 5}},
	}))
	require.NoError(t, db.Close())

	out := filepath.Join(ws.dir, "out")
	var buf bytes.Buffer
	require.NoError(t, (&BuildCmd{FromDB: "ported", Out: out}).Run(&Global{Out: &buf}, ws.cli))
	require.Contains(t, buf.String(), "Project Ported Built Successfully!")

	doc, err := os.ReadFile(filepath.Join(out, "product-ported.xml"))
	require.NoError(t, err)
	require.Contains(t, string(doc), "<hookname>global_start</hookname>")

	require.NoDirExists(t, filepath.Join(ws.dir, "projects", "ported"))
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries)
}
