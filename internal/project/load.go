package project

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
)

// ConfigFile is the project metadata file at the root of a project tree.
const ConfigFile = "project.yaml"

var projectDirPattern = regexp.MustCompile(`(?i)^[-_a-z0-9]+$`)

// LoadTree reads one project tree rooted at dir.
func LoadTree(dir string) (*Project, error) {
	p := &Project{Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, foundationerrors.LookupError("project config not found").
				WithContext("path", filepath.Join(dir, ConfigFile)).
				WithCause(err).
				Build()
		}
		return nil, ioErr("read project config", filepath.Join(dir, ConfigFile), err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, foundationerrors.ValidationError("invalid project config").
			WithContext("path", filepath.Join(dir, ConfigFile)).
			WithCause(err).
			Build()
	}
	if p.ID == "" {
		// Directory names match case-insensitively; ids are lower case.
		p.ID = strings.ToLower(filepath.Base(dir))
	}

	loaders := []func(*Project, string) error{
		loadCodes,
		loadPlugins,
		loadTemplates,
		loadOptions,
		loadTasks,
		loadNavigation,
		loadPhrases,
	}
	for _, load := range loaders {
		if err := load(p, dir); err != nil {
			return nil, err
		}
	}
	return p, p.Validate()
}

// LoadAll loads every project directory under dir, ordered by Meta.Order.
// Directories that fail to load are skipped with a warning.
func LoadAll(dir string) ([]*Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioErr("read projects directory", dir, err)
	}
	var projects []*Project
	for _, entry := range entries {
		if !entry.IsDir() || !projectDirPattern.MatchString(entry.Name()) {
			continue
		}
		p, err := LoadTree(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Warn("Skipping project", logfields.Path(entry.Name()), logfields.Error(err))
			continue
		}
		projects = append(projects, p)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Meta.Order < projects[j].Meta.Order
	})
	return projects, nil
}

func loadCodes(p *Project, dir string) error {
	files, err := listFiles(filepath.Join(dir, "updown"), ".php")
	if err != nil {
		return err
	}
	byVersion := make(map[string]*Code)
	var versions []string
	for _, f := range files {
		kind, version, ok := strings.Cut(strings.TrimSuffix(f.name, ".php"), "-")
		if !ok || (kind != "up" && kind != "down") {
			continue
		}
		if version == "all" {
			version = "*"
		}
		code, ok := byVersion[version]
		if !ok {
			code = &Code{Version: version}
			byVersion[version] = code
			versions = append(versions, version)
		}
		body, err := readPHP(f.path)
		if err != nil {
			return err
		}
		if kind == "up" {
			code.Install = body
		} else {
			code.Uninstall = body
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
	for _, v := range versions {
		p.Codes = append(p.Codes, *byVersion[v])
	}
	return nil
}

func loadPlugins(p *Project, dir string) error {
	files, err := listFiles(filepath.Join(dir, "plugins"), ".php")
	if err != nil {
		return err
	}
	for _, f := range files {
		code, err := readPHP(f.path)
		if err != nil {
			return err
		}
		hook := strings.TrimSuffix(f.name, ".php")
		p.Plugins = append(p.Plugins, Plugin{
			Title:          PluginTitle(p.Meta.Title, hook),
			HookName:       hook,
			Code:           code,
			Active:         true,
			ExecutionOrder: DefaultExecutionOrder,
		})
	}
	return nil
}

// PluginTitle is the title given to a plugin loaded from a hook file.
func PluginTitle(projectTitle, hook string) string {
	if projectTitle == "" {
		return hook
	}
	return projectTitle + " - " + hook
}

func loadTemplates(p *Project, dir string) error {
	files, err := listFiles(filepath.Join(dir, "templates"), "")
	if err != nil {
		return err
	}
	for _, f := range files {
		body, err := os.ReadFile(f.path)
		if err != nil {
			return ioErr("read template", f.path, err)
		}
		t := Template{Name: f.name, Body: string(body), Type: TemplateTypeCSS}
		if name, ok := strings.CutSuffix(f.name, ".html"); ok {
			t.Name = name
			t.Type = TemplateTypeTemplate
		}
		p.Templates = append(p.Templates, t)
	}
	return nil
}

func loadOptions(p *Project, dir string) error {
	groups, err := listDirs(filepath.Join(dir, "options"))
	if err != nil {
		return err
	}
	for _, g := range groups {
		group := OptionGroup{VarName: g.name}
		files, err := listFiles(g.path, ".yaml")
		if err != nil {
			return err
		}
		for _, f := range files {
			varname := strings.TrimSuffix(f.name, ".yaml")
			if varname == g.name {
				if err := readYAML(f.path, &group); err != nil {
					return err
				}
				group.VarName = g.name
				continue
			}
			opt := Option{}
			if err := readYAML(f.path, &opt); err != nil {
				return err
			}
			opt.VarName = varname
			group.Options = append(group.Options, opt)
		}
		p.OptionGroups = append(p.OptionGroups, group)
	}
	return nil
}

func loadTasks(p *Project, dir string) error {
	files, err := listFiles(filepath.Join(dir, "tasks"), ".yaml")
	if err != nil {
		return err
	}
	for _, f := range files {
		task := Task{}
		if err := readYAML(f.path, &task); err != nil {
			return err
		}
		task.VarName = strings.TrimSuffix(f.name, ".yaml")
		p.Tasks = append(p.Tasks, task)
	}
	return nil
}

func loadNavigation(p *Project, dir string) error {
	tabs, err := listDirs(filepath.Join(dir, "navigation"))
	if err != nil {
		return err
	}
	for _, d := range tabs {
		tab := Tab{Name: d.name}
		files, err := listFiles(d.path, ".yaml")
		if err != nil {
			return err
		}
		for _, f := range files {
			base := strings.TrimSuffix(f.name, ".yaml")
			if base == d.name {
				if err := readYAML(f.path, &tab); err != nil {
					return err
				}
				tab.Name = d.name
				continue
			}
			name, ok := strings.CutPrefix(base, d.name+"_")
			if !ok {
				continue
			}
			link := Link{}
			if err := readYAML(f.path, &link); err != nil {
				return err
			}
			link.Name = name
			if link.Parent == "" {
				link.Parent = d.name
			}
			tab.Links = append(tab.Links, link)
		}
		p.Navigation = append(p.Navigation, tab)
	}
	return nil
}

func loadPhrases(p *Project, dir string) error {
	groups, err := listDirs(filepath.Join(dir, "phrases"))
	if err != nil {
		return err
	}
	for _, g := range groups {
		group := PhraseGroup{Key: g.name}
		files, err := listFiles(g.path, ".txt")
		if err != nil {
			return err
		}
		for _, f := range files {
			text, err := os.ReadFile(f.path)
			if err != nil {
				return ioErr("read phrase", f.path, err)
			}
			varname := strings.TrimSuffix(f.name, ".txt")
			if varname == g.name {
				group.Title = strings.TrimSpace(string(text))
				continue
			}
			group.Phrases = append(group.Phrases, Phrase{VarName: varname, Text: string(text)})
		}
		p.PhraseGroups = append(p.PhraseGroups, group)
	}
	return nil
}

type entry struct {
	name string
	path string
}

// listFiles returns regular files in dir with the given suffix, sorted by
// name. A missing directory is an empty section.
func listFiles(dir, suffix string) ([]entry, error) {
	return listEntries(dir, func(e fs.DirEntry) bool {
		return !e.IsDir() && strings.HasSuffix(e.Name(), suffix) && !strings.HasPrefix(e.Name(), ".")
	})
}

func listDirs(dir string) ([]entry, error) {
	return listEntries(dir, func(e fs.DirEntry) bool {
		return e.IsDir() && !strings.HasPrefix(e.Name(), ".")
	})
}

func listEntries(dir string, keep func(fs.DirEntry) bool) ([]entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ioErr("read section directory", dir, err)
	}
	var out []entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, entry{name: e.Name(), path: filepath.Join(dir, e.Name())})
		}
	}
	return out, nil
}

// readPHP reads a PHP source file and drops a leading "<?php" opener.
func readPHP(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ioErr("read source file", path, err)
	}
	return StripPHPOpener(string(data)), nil
}

// StripPHPOpener removes a leading "<?php" opener and the whitespace after it.
func StripPHPOpener(code string) string {
	trimmed := strings.TrimLeft(code, " \t\r\n")
	if rest, ok := strings.CutPrefix(trimmed, "<?php"); ok {
		return strings.TrimLeft(rest, " \t\r\n")
	}
	return code
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ioErr("read record", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return foundationerrors.ValidationError("invalid record").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return nil
}

func ioErr(msg, path string, err error) error {
	return foundationerrors.IOError(msg).WithContext("path", path).WithCause(err).Build()
}

// CompareVersions orders dotted versions numerically per segment. "*" sorts
// before every other version. Non-numeric segments compare lexically.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	if a == "*" {
		return -1
	}
	if b == "*" {
		return 1
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y string
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		if c := compareSegment(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(x, y string) int {
	xi, xerr := strconv.Atoi(x)
	yi, yerr := strconv.Atoi(y)
	switch {
	case xerr == nil && yerr == nil:
		switch {
		case xi < yi:
			return -1
		case xi > yi:
			return 1
		}
		return 0
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
