// Package porter exports a product installed in the host database back into
// a project tree that the builder can rebuild it from.
package porter

import (
	"context"
	"log/slog"
	"sort"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/hostdb"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/project"
)

// Source provides the stored records of one product.
type Source interface {
	LoadProduct(ctx context.Context, id string) (*hostdb.ProductData, error)
}

// Porter converts stored products into project trees.
type Porter struct {
	source Source
	logger *slog.Logger
}

// New returns a Porter reading from source.
func New(source Source, logger *slog.Logger) *Porter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Porter{source: source, logger: logger}
}

// Port writes the product productID to outDir.
func (p *Porter) Port(ctx context.Context, productID, outDir string) (*project.Project, error) {
	data, err := p.source.LoadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	proj := p.Convert(data)
	if err := proj.Validate(); err != nil {
		return nil, err
	}
	if err := project.WriteTree(proj, outDir); err != nil {
		return nil, foundationerrors.StagingError("write project tree").
			WithContext("product", productID).
			WithContext("path", outDir).
			WithCause(err).
			Build()
	}
	p.logger.Info("Ported product",
		logfields.Product(productID),
		logfields.Path(outDir))
	return proj, nil
}

// Convert folds stored records into a project. Derived phrases become fields
// of the settings, tasks and navigation records they were generated from.
func (p *Porter) Convert(d *hostdb.ProductData) *project.Project {
	id := d.Product.ID
	phrases := make(map[string]string, len(d.Phrases))
	for _, ph := range d.Phrases {
		phrases[ph.VarName] = ph.Text
	}

	proj := &project.Project{
		ID:     id,
		Active: d.Product.Active,
		Meta: project.Meta{
			Title:       d.Product.Title,
			Description: d.Product.Description,
			Version:     d.Product.Version,
			URL:         d.Product.URL,
			VersionURL:  d.Product.VersionCheckURL,
		},
	}

	for _, dep := range d.Dependencies {
		proj.Dependencies = append(proj.Dependencies, project.Dependency(dep))
	}
	for _, c := range d.Codes {
		proj.Codes = append(proj.Codes, project.Code(c))
	}
	sort.SliceStable(proj.Codes, func(i, j int) bool {
		return project.CompareVersions(proj.Codes[i].Version, proj.Codes[j].Version) < 0
	})

	for _, pl := range d.Plugins {
		if !pl.Active {
			continue
		}
		proj.Plugins = append(proj.Plugins, project.Plugin(pl))
	}

	for _, t := range d.Templates {
		proj.Templates = append(proj.Templates, project.Template{
			Name:    t.Title,
			Body:    t.Body,
			Type:    t.Type,
			Version: t.Version,
			Author:  t.Username,
		})
	}

	proj.OptionGroups = convertOptions(id, d, phrases)
	proj.Tasks = convertTasks(d.Crons, phrases)
	proj.Navigation = p.convertNavigation(id, d.Navigation, phrases)
	proj.PhraseGroups = convertPhrases(id, d)
	return proj
}

func convertOptions(id string, d *hostdb.ProductData, phrases map[string]string) []project.OptionGroup {
	owned := make(map[string]hostdb.SettingGroup)
	for _, g := range d.SettingGroups {
		if g.Product == id {
			owned[g.Title] = g
		}
	}

	var groups []project.OptionGroup
	index := make(map[string]int)
	for _, s := range d.Settings {
		i, ok := index[s.GroupTitle]
		if !ok {
			g := project.OptionGroup{VarName: s.GroupTitle}
			if sg, mine := owned[s.GroupTitle]; mine {
				g.Title = phrases[project.SettingGroupPhrase(sg.Title)]
				g.DisplayOrder = sg.DisplayOrder
			}
			i = len(groups)
			index[s.GroupTitle] = i
			groups = append(groups, g)
		}
		groups[i].Options = append(groups[i].Options, project.Option{
			VarName:        s.VarName,
			Title:          phrases[project.SettingTitlePhrase(s.VarName)],
			Description:    phrases[project.SettingDescPhrase(s.VarName)],
			DisplayOrder:   s.DisplayOrder,
			DataType:       s.DataType,
			OptionCode:     s.OptionCode,
			ValidationCode: s.ValidationCode,
			DefaultValue:   s.DefaultValue,
			Blacklist:      s.Blacklist,
			Advanced:       s.Advanced,
		})
	}
	return groups
}

func convertTasks(crons []hostdb.Cron, phrases map[string]string) []project.Task {
	tasks := make([]project.Task, 0, len(crons))
	for _, c := range crons {
		tasks = append(tasks, project.Task{
			VarName:     c.VarName,
			Title:       phrases[project.TaskTitlePhrase(c.VarName)],
			Description: phrases[project.TaskDescPhrase(c.VarName)],
			LogText:     phrases[project.TaskLogPhrase(c.VarName)],
			Filename:    c.Filename,
			Weekday:     c.Weekday,
			Day:         c.Day,
			Hour:        c.Hour,
			Minutes:     c.Minute,
			Active:      project.IntPtr(c.Active),
			LogLevel:    project.IntPtr(c.LogLevel),
		})
	}
	return tasks
}

func (p *Porter) convertNavigation(id string, rows []hostdb.Navigation, phrases map[string]string) []project.Tab {
	var tabs []project.Tab
	index := make(map[string]int)
	for _, r := range rows {
		if r.Type != hostdb.NavTypeTab {
			continue
		}
		index[r.Name] = len(tabs)
		tabs = append(tabs, project.Tab{
			Name:         r.Name,
			Text:         phrases[project.TabTextPhrase(r.Name)],
			DisplayOrder: r.DisplayOrder,
			Show:         r.ShowPerm,
			Scripts:      r.Scripts,
			URL:          r.URL,
		})
	}
	for _, r := range rows {
		if r.Type != hostdb.NavTypeLink {
			continue
		}
		i, ok := index[r.Parent]
		if !ok {
			p.logger.Warn("Dropping navigation link without product tab",
				logfields.Product(id),
				slog.String("link", r.Name),
				slog.String("parent", r.Parent))
			continue
		}
		tabs[i].Links = append(tabs[i].Links, project.Link{
			Name:         r.Name,
			Text:         phrases[project.LinkTextPhrase(r.Name)],
			DisplayOrder: r.DisplayOrder,
			Parent:       r.Parent,
			Show:         r.ShowPerm,
			Scripts:      r.Scripts,
			URL:          r.URL,
		})
	}
	return tabs
}

func convertPhrases(id string, d *hostdb.ProductData) []project.PhraseGroup {
	titles := make(map[string]string)
	for _, pt := range d.PhraseTypes {
		if pt.Product == id {
			titles[pt.FieldName] = pt.Title
		}
	}

	var groups []project.PhraseGroup
	index := make(map[string]int)
	for _, ph := range d.Phrases {
		if project.IsDerivedPhrase(ph.VarName) {
			continue
		}
		i, ok := index[ph.FieldName]
		if !ok {
			i = len(groups)
			index[ph.FieldName] = i
			groups = append(groups, project.PhraseGroup{Key: ph.FieldName, Title: titles[ph.FieldName]})
		}
		groups[i].Phrases = append(groups[i].Phrases, project.Phrase{VarName: ph.VarName, Text: ph.Text})
	}
	// Owned groups without phrases still carry their title.
	for _, pt := range d.PhraseTypes {
		if _, ok := index[pt.FieldName]; !ok && pt.Product == id {
			index[pt.FieldName] = len(groups)
			groups = append(groups, project.PhraseGroup{Key: pt.FieldName, Title: pt.Title})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}
