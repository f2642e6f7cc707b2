package project

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteTree writes p to dir in the layout LoadTree reads. Existing files are
// overwritten; files not produced by p are left alone.
func WriteTree(p *Project, dir string) error {
	w := treeWriter{root: dir}

	w.yaml(ConfigFile, p)

	for _, code := range p.Codes {
		version := code.Version
		if version == "*" {
			version = "all"
		}
		if code.Install != "" {
			w.php(filepath.Join("updown", "up-"+version+".php"), code.Install)
		}
		if code.Uninstall != "" {
			w.php(filepath.Join("updown", "down-"+version+".php"), code.Uninstall)
		}
	}

	for _, hc := range p.PluginCodeByHook(nil) {
		w.php(filepath.Join("plugins", hc.Hook+".php"), hc.Code)
	}

	for _, t := range p.Templates {
		name := t.Name
		if t.Type != TemplateTypeCSS {
			name += ".html"
		}
		w.file(filepath.Join("templates", name), t.Body)
	}

	for _, g := range p.OptionGroups {
		if g.Title != "" || g.DisplayOrder != "" {
			w.yaml(filepath.Join("options", g.VarName, g.VarName+".yaml"), &g)
		}
		for i := range g.Options {
			w.yaml(filepath.Join("options", g.VarName, g.Options[i].VarName+".yaml"), &g.Options[i])
		}
	}

	for i := range p.Tasks {
		w.yaml(filepath.Join("tasks", p.Tasks[i].VarName+".yaml"), &p.Tasks[i])
	}

	for i := range p.Navigation {
		tab := &p.Navigation[i]
		w.yaml(filepath.Join("navigation", tab.Name, tab.Name+".yaml"), tab)
		for j := range tab.Links {
			link := &tab.Links[j]
			w.yaml(filepath.Join("navigation", tab.Name, tab.Name+"_"+link.Name+".yaml"), link)
		}
	}

	for _, g := range p.PhraseGroups {
		if g.Title != "" {
			w.file(filepath.Join("phrases", g.Key, g.Key+".txt"), g.Title)
		}
		for _, ph := range g.Phrases {
			w.file(filepath.Join("phrases", g.Key, ph.VarName+".txt"), ph.Text)
		}
	}

	return w.err
}

// treeWriter stops at the first error.
type treeWriter struct {
	root string
	err  error
}

func (w *treeWriter) file(rel, content string) {
	if w.err != nil {
		return
	}
	path := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		w.err = ioErr("create project directory", filepath.Dir(path), err)
		return
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		w.err = ioErr("write project file", path, err)
	}
}

func (w *treeWriter) php(rel, code string) {
	w.file(rel, "<?php\n\n"+strings.TrimLeft(code, "\r\n"))
}

func (w *treeWriter) yaml(rel string, v any) {
	if w.err != nil {
		return
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		w.err = ioErr("encode project record", rel, err)
		return
	}
	w.file(rel, string(data))
}
