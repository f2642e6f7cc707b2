package builder

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/productbuilder/internal/checksum"
	"git.home.luguber.info/inful/productbuilder/internal/files"
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/project"
	"git.home.luguber.info/inful/productbuilder/internal/workspace"
)

// Rechecksum regenerates the manifests of p over the upload tree left by an
// earlier build. Manifests already staged there are not hashed.
func (b *Builder) Rechecksum(ctx context.Context, p *project.Project) (*checksum.Result, error) {
	buildPath, err := BuildPath(p)
	if err != nil {
		return nil, err
	}
	upload := workspace.NewStaging(buildPath).UploadPath()

	resolver := files.NewResolver(upload)
	found, err := resolver.Expand([]string{"."})
	if err != nil {
		return nil, err
	}
	skip := map[string]struct{}{
		"includes/" + checksum.FlatName(p.ID):     {},
		"includes/" + checksum.ExtendedName(p.ID): {},
	}
	var rels []string
	for _, f := range found {
		rel, err := resolver.Rel(f)
		if err != nil {
			return nil, err
		}
		if _, ok := skip[rel]; !ok {
			rels = append(rels, rel)
		}
	}
	if len(rels) == 0 {
		return nil, foundationerrors.IOError("staging tree has no files").
			WithContext("path", upload).
			Build()
	}

	root, err := filepath.Abs(b.root)
	if err != nil {
		return nil, foundationerrors.ConfigError("invalid source root").WithContext("root", b.root).WithCause(err).Build()
	}
	includesDir := b.includesDir
	if includesDir == "" {
		includesDir = filepath.Join(root, "includes")
	}

	sumStart := b.now()
	res, err := checksum.NewGenerator(includesDir, b.workers).Build(ctx, checksum.Input{
		ProductID: p.ID,
		Version:   p.Meta.Version,
		UploadDir: upload,
		Files:     rels,
		Plugins:   p.PluginCodeByHook(StripBuildComments),
		Templates: p.TemplateBodies(),
		Time:      b.now(),
	})
	b.recorder.ObserveChecksumDuration(b.now().Sub(sumStart))
	if err != nil {
		return nil, err
	}
	b.logger.Info("Recomputed checksums",
		logfields.Product(p.ID),
		logfields.Count(res.Flat.Count()),
		logfields.Path(res.FlatPath))
	return res, nil
}
