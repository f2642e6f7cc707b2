// Package runtime injects project trees into a running host without a
// build, for development against live project sources.
package runtime

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/phpexport"
	"git.home.luguber.info/inful/productbuilder/internal/project"
)

// Flags selects which parts of a project are loaded.
type Flags uint8

const (
	Templates Flags = 1 << iota
	Plugins
	Phrases
	Options
	Navigation

	All = Templates | Plugins | Phrases | Options | Navigation
)

// Hooks with special handling.
const (
	InitStartupHook     = "init_startup"
	NavigationArrayHook = "build_navigation_array"
)

// Loader writes project records to a Sink.
type Loader struct {
	sink     Sink
	logger   *slog.Logger
	initCode strings.Builder
	navID    int
	loaded   []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(ld *Loader) { ld.logger = l } }

// WithNavIDBase sets the highest navigation id already used by the host.
// Injected tabs and links are numbered after it.
func WithNavIDBase(n int) Option { return func(ld *Loader) { ld.navID = n } }

// NewLoader returns a Loader writing to sink.
func NewLoader(sink Sink, opts ...Option) *Loader {
	l := &Loader{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll loads every active project with All flags, in slice order.
func (l *Loader) LoadAll(projects []*project.Project) {
	for _, p := range projects {
		if p.Active {
			l.Load(p, All)
		}
	}
}

// Load injects the parts of p selected by flags.
func (l *Loader) Load(p *project.Project, flags Flags) {
	l.logger.Debug("Loading project", logfields.Product(p.ID), slog.String("title", p.Meta.Title))
	l.loaded = append(l.loaded, p.ID)

	if flags&Templates != 0 {
		for _, t := range p.Templates {
			l.sink.SetTemplate(t.Name, t.Body)
		}
	}
	if flags&Plugins != 0 {
		for _, hc := range p.PluginCodeByHook(nil) {
			if hc.Hook == InitStartupHook {
				l.initCode.WriteString("\n" + hc.Code + "\n")
				continue
			}
			l.sink.AppendHookCode(hc.Hook, "\n"+hc.Code+"\n")
		}
	}
	if flags&Phrases != 0 {
		for _, g := range p.PhraseGroups {
			for _, ph := range g.Phrases {
				l.sink.SetPhrase(ph.VarName, ph.Text)
			}
		}
		for _, ph := range p.DerivedPhrases() {
			l.sink.SetPhrase(ph.VarName, ph.Text)
		}
	}
	if flags&Options != 0 {
		for _, g := range p.OptionGroups {
			for _, opt := range g.Options {
				value := ""
				if opt.DefaultValue != nil {
					value = *opt.DefaultValue
				}
				l.sink.SetOption(opt.VarName, value)
			}
		}
	}
	if flags&Navigation != 0 {
		for _, tab := range p.Navigation {
			code := "$result[" + phpexport.String("vbtab_"+tab.Name) + "] = " + phpexport.Export(l.tabArray(p.ID, tab)) + ";"
			l.sink.AppendHookCode(NavigationArrayHook, "\n  "+code+"  \n")
		}
	}
}

func (l *Loader) tabArray(productID string, tab project.Tab) phpexport.Array {
	l.navID++
	arr := phpexport.Array{
		{Key: "name", Value: tab.Name},
		{Key: "text", Value: tab.Text},
		{Key: "displayorder", Value: tab.DisplayOrder},
		{Key: "show", Value: tab.Show},
		{Key: "scripts", Value: tab.Scripts},
		{Key: "url", Value: tab.URL},
		{Key: "navid", Value: l.navID},
		{Key: "productid", Value: productID},
	}
	links := make(phpexport.Array, 0, len(tab.Links))
	for _, link := range tab.Links {
		l.navID++
		links = append(links, phpexport.Pair{Key: link.Name, Value: phpexport.Array{
			{Key: "name", Value: link.Name},
			{Key: "text", Value: link.Text},
			{Key: "displayorder", Value: link.DisplayOrder},
			{Key: "parent", Value: link.Parent},
			{Key: "show", Value: link.Show},
			{Key: "scripts", Value: link.Scripts},
			{Key: "url", Value: link.URL},
			{Key: "navid", Value: l.navID},
			{Key: "productid", Value: productID},
		}})
	}
	return append(arr, phpexport.Pair{Key: "links", Value: links})
}

// InitCode returns the init_startup code collected so far. The host runs
// that hook before the loader is attached, so callers evaluate it directly.
func (l *Loader) InitCode() string {
	return l.initCode.String()
}

// Loaded returns the ids of loaded projects in load order.
func (l *Loader) Loaded() []string {
	return append([]string(nil), l.loaded...)
}
