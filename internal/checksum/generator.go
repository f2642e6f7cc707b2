package checksum

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/productbuilder/internal/files"
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/phpexport"
	"git.home.luguber.info/inful/productbuilder/internal/project"
)

// DefaultWorkers is the hashing concurrency used when none is configured.
const DefaultWorkers = 4

// Input describes one product's staged output.
type Input struct {
	ProductID string
	Version   string
	// UploadDir is the staging root the relative Files live under.
	UploadDir string
	// Files are slash-separated paths relative to UploadDir.
	Files     []string
	Plugins   []project.HookCode
	Templates []project.Template
	Time      time.Time
}

// Result lists the manifests and where they were written.
type Result struct {
	Flat         FlatManifest
	Extended     ExtendedManifest
	FlatPath     string
	ExtendedPath string
	// Staged are the manifest copies inside UploadDir, relative to it.
	Staged []string
}

// Generator hashes staged trees and writes manifest files.
type Generator struct {
	includesDir string
	workers     int
}

// NewGenerator writes manifests to includesDir, hashing with the given
// number of workers.
func NewGenerator(includesDir string, workers int) *Generator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Generator{includesDir: includesDir, workers: workers}
}

// FlatName returns the file name of the flat manifest for id.
func FlatName(id string) string { return "md5_sums_" + id + ".php" }

// ExtendedName returns the file name of the extended manifest for id.
func ExtendedName(id string) string { return "md5_sums_" + id + ".extended.php" }

// Manifests computes both manifests without writing anything.
func (g *Generator) Manifests(ctx context.Context, in Input) (FlatManifest, ExtendedManifest, error) {
	flat, err := g.hashTree(ctx, in.UploadDir, in.Files)
	if err != nil {
		return nil, ExtendedManifest{}, err
	}
	ext := ExtendedManifest{Files: flat}
	for _, hc := range in.Plugins {
		ext.Plugins = append(ext.Plugins, NamedHash{Name: hc.Hook, Hash: HashInline(hc.Code)})
	}
	for _, t := range in.Templates {
		ext.Templates = append(ext.Templates, NamedHash{Name: t.Name, Hash: HashInline(t.Body)})
	}
	return flat, ext, nil
}

// Build computes the manifests, writes them to the includes directory and
// copies both into UploadDir/includes.
func (g *Generator) Build(ctx context.Context, in Input) (*Result, error) {
	flat, ext, err := g.Manifests(ctx, in)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Flat:         flat,
		Extended:     ext,
		FlatPath:     filepath.Join(g.includesDir, FlatName(in.ProductID)),
		ExtendedPath: filepath.Join(g.includesDir, ExtendedName(in.ProductID)),
	}

	flatFile := renderFile(in.ProductID, in.Version, in.Time, phpexport.Array{
		{Key: "md5_sums", Value: flat.php()},
	})
	extFile := renderFile(in.ProductID, in.Version, in.Time, phpexport.Array{
		{Key: "files", Value: flat.php()},
		{Key: "plugins", Value: namedPHP(ext.Plugins)},
		{Key: "templates", Value: namedPHP(ext.Templates)},
	})

	if err := os.MkdirAll(g.includesDir, 0o750); err != nil {
		return nil, foundationerrors.StagingError("create includes directory").
			WithContext("path", g.includesDir).
			WithCause(err).
			Build()
	}
	for _, f := range []struct {
		path string
		data []byte
	}{{res.FlatPath, flatFile}, {res.ExtendedPath, extFile}} {
		if err := os.WriteFile(f.path, f.data, 0o600); err != nil {
			return nil, foundationerrors.StagingError("write checksum file").
				WithContext("path", f.path).
				WithCause(err).
				Build()
		}
		rel := "includes/" + filepath.Base(f.path)
		if err := files.CopyFile(f.path, filepath.Join(in.UploadDir, filepath.FromSlash(rel))); err != nil {
			return nil, err
		}
		res.Staged = append(res.Staged, rel)
	}

	slog.Debug("Wrote checksum manifests",
		logfields.Product(in.ProductID),
		logfields.Count(flat.Count()),
		logfields.Path(res.FlatPath))
	return res, nil
}

// hashTree hashes every file in parallel, then groups and sorts the results
// once all workers have finished.
func (g *Generator) hashTree(ctx context.Context, root string, rels []string) (FlatManifest, error) {
	results := make([]fileResult, len(rels))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, rel := range rels {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hash, err := HashFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return err
			}
			results[i] = fileResult{rel: rel, hash: hash}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return newFlatManifest(results), nil
}
