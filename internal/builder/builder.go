package builder

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/productbuilder/internal/checksum"
	"git.home.luguber.info/inful/productbuilder/internal/files"
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/metrics"
	"git.home.luguber.info/inful/productbuilder/internal/observability"
	"git.home.luguber.info/inful/productbuilder/internal/project"
	"git.home.luguber.info/inful/productbuilder/internal/workspace"
	"git.home.luguber.info/inful/productbuilder/internal/xmldoc"
)

// Status is the final state of a build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result describes one build. On failure it holds whatever was done before
// the error.
type Result struct {
	BuildID      string
	ProductID    string
	Status       Status
	Log          *Log
	DocumentPath string
	// StagedFiles are paths relative to the upload tree.
	StagedFiles []string
	Manifest    *checksum.Result
	StartTime   time.Time
	Duration    time.Duration
}

// Builder builds products. It keeps no per-build state and may be reused.
type Builder struct {
	registry    PhraseTypeRegistry
	recorder    metrics.Recorder
	now         func() time.Time
	root        string
	includesDir string
	workers     int
	logger      *slog.Logger
	newID       func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry sets the host phrase-type registry.
func WithRegistry(r PhraseTypeRegistry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithClock sets the time source stamped onto generated records.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithRoot sets the host source root that declared files resolve against.
func WithRoot(root string) Option {
	return func(b *Builder) { b.root = root }
}

// WithIncludesDir sets where checksum manifests are written. It defaults to
// <root>/includes.
func WithIncludesDir(dir string) Option {
	return func(b *Builder) { b.includesDir = dir }
}

// WithHashWorkers sets the checksum hashing concurrency.
func WithHashWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithIDGenerator sets the build ID source.
func WithIDGenerator(f func() string) Option {
	return func(b *Builder) {
		if f != nil {
			b.newID = f
		}
	}
}

// New returns a Builder. Without options it uses the stock host phrase
// groups, no metrics, the wall clock and the current directory as root.
func New(opts ...Option) *Builder {
	b := &Builder{
		registry: DefaultHostPhraseGroups,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		root:     ".",
		workers:  checksum.DefaultWorkers,
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles p into its build directory. The returned Result is non-nil
// even when an error is returned.
func (b *Builder) Build(ctx context.Context, p *project.Project) (*Result, error) {
	start := b.now()
	res := &Result{
		BuildID:   b.newID(),
		ProductID: p.ID,
		Status:    StatusFailed,
		Log:       &Log{},
		StartTime: start,
	}
	ctx = observability.WithBuildID(ctx, res.BuildID)
	ctx = observability.WithProduct(ctx, p.ID)

	err := b.build(ctx, p, res)

	res.Duration = b.now().Sub(start)
	b.recorder.ObserveBuildDuration(res.Duration)
	switch {
	case err == nil:
		res.Status = StatusSuccess
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
		observability.InfoContext(ctx, "Build completed",
			logfields.Count(len(res.StagedFiles)),
			logfields.Duration(res.Duration))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		res.Status = StatusCanceled
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
		observability.WarnContext(ctx, "Build canceled", logfields.Error(err))
	default:
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		observability.ErrorContext(ctx, "Build failed", logfields.Error(err))
	}
	return res, err
}

func (b *Builder) build(ctx context.Context, p *project.Project, res *Result) error {
	if err := p.Validate(); err != nil {
		return err
	}
	root, err := filepath.Abs(b.root)
	if err != nil {
		return foundationerrors.ConfigError("invalid source root").WithContext("root", b.root).WithCause(err).Build()
	}
	buildPath, err := BuildPath(p)
	if err != nil {
		return err
	}

	staging := workspace.NewStaging(buildPath)
	if err := staging.Create(); err != nil {
		return err
	}
	res.Log.Addf("Building project %s", p.ID)

	sc := &sectionContext{
		ctx:      ctx,
		doc:      xmldoc.New(),
		project:  p,
		phrases:  NewDerivedPhrases(),
		files:    NewDerivedFiles(),
		log:      res.Log,
		registry: b.registry,
		root:     filepath.ToSlash(root),
		now:      b.now(),
		logger:   b.logger,
	}

	doc, err := b.assemble(ctx, sc)
	if err != nil {
		return err
	}
	docPath := staging.DocumentPath(p.ID)
	if err := os.WriteFile(docPath, doc, 0o600); err != nil {
		return foundationerrors.StagingError("write product document").
			WithContext("path", docPath).
			WithCause(err).
			Build()
	}
	res.DocumentPath = docPath
	res.Log.Addf("Created Product XML Successfully at %s", docPath)

	resolver := files.NewResolver(root)
	explicit, err := resolver.Expand(p.Files)
	if err != nil {
		return err
	}
	derived, err := resolver.Expand(sc.files.List())
	if err != nil {
		return err
	}
	shipped := files.Merge(explicit, derived)

	if len(shipped) > 0 {
		staged, err := resolver.CopyAll(shipped, staging.UploadPath())
		res.StagedFiles = staged
		for _, rel := range staged {
			res.Log.Addf("Copied file %s", rel)
		}
		b.recorder.AddFilesStaged(len(staged))
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		sumStart := b.now()
		includesDir := b.includesDir
		if includesDir == "" {
			includesDir = filepath.Join(root, "includes")
		}
		manifest, err := checksum.NewGenerator(includesDir, b.workers).Build(ctx, checksum.Input{
			ProductID: p.ID,
			Version:   p.Meta.Version,
			UploadDir: staging.UploadPath(),
			Files:     staged,
			Plugins:   p.PluginCodeByHook(StripBuildComments),
			Templates: p.TemplateBodies(),
			Time:      sc.now,
		})
		b.recorder.ObserveChecksumDuration(b.now().Sub(sumStart))
		if err != nil {
			return err
		}
		res.Manifest = manifest
		res.Log.Addf("Created project checksum file")
	}

	res.Log.Addf("Project %s Built Successfully!", p.Meta.Title)
	return nil
}

// assemble renders the product document and encodes it in the project's
// declared charset.
func (b *Builder) assemble(ctx context.Context, sc *sectionContext) ([]byte, error) {
	p := sc.project
	doc := sc.doc

	doc.OpenGroup("product", xmldoc.Attrs("productid", p.ID, "active", "1")...)
	doc.AddTag("title", p.Meta.Title, false)
	doc.AddTag("description", p.Meta.Description, false)
	doc.AddTag("version", p.Meta.Version, false)
	doc.AddTag("url", p.Meta.URL, false)
	doc.AddTag("versioncheckurl", p.Meta.VersionURL, false)

	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			b.recorder.IncSectionResult(string(s.kind), metrics.ResultCanceled)
			return nil, err
		}
		sectionStart := b.now()
		sc.ctx = observability.WithStage(ctx, string(s.kind))
		err := s.process(sc)
		b.recorder.ObserveSectionDuration(string(s.kind), b.now().Sub(sectionStart))
		if err != nil {
			b.recorder.IncSectionResult(string(s.kind), metrics.ResultFatal)
			return nil, err
		}
		b.recorder.IncSectionResult(string(s.kind), metrics.ResultSuccess)
		observability.DebugContext(sc.ctx, "Section rendered")
	}

	doc.OpenGroup("stylevardfns")
	if err := doc.CloseGroup(); err != nil {
		return nil, err
	}
	if err := doc.CloseGroup(); err != nil {
		return nil, err
	}

	body, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	return xmldoc.Encode(body, p.Meta.Encoding)
}

// BuildPath returns the absolute build directory. A relative build
// path is taken from the project directory; an empty one defaults to
// <project dir>/build.
func BuildPath(p *project.Project) (string, error) {
	bp := p.BuildPath
	switch {
	case bp == "" && p.Dir == "":
		return "", foundationerrors.ValidationError("project has no build path").
			WithContext("id", p.ID).
			Build()
	case bp == "":
		bp = filepath.Join(p.Dir, "build")
	case !filepath.IsAbs(bp) && p.Dir != "":
		bp = filepath.Join(p.Dir, bp)
	}
	abs, err := filepath.Abs(bp)
	if err != nil {
		return "", foundationerrors.StagingError("invalid build path").WithContext("path", bp).WithCause(err).Build()
	}
	return abs, nil
}
