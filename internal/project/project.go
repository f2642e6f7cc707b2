package project

import (
	"strings"
)

// Project is one product's source of truth prior to building.
type Project struct {
	ID        string   `yaml:"id"`
	Active    bool     `yaml:"active"`
	Meta      Meta     `yaml:"meta"`
	BuildPath string   `yaml:"build_path,omitempty"`
	Files     []string `yaml:"files,omitempty"`

	Dependencies Dependencies `yaml:"dependencies,omitempty"`

	Codes        []Code        `yaml:"-"`
	Templates    []Template    `yaml:"-"`
	Plugins      []Plugin      `yaml:"-"`
	OptionGroups []OptionGroup `yaml:"-"`
	Tasks        []Task        `yaml:"-"`
	Navigation   []Tab         `yaml:"-"`
	PhraseGroups []PhraseGroup `yaml:"-"`

	// Dir is the directory the project was loaded from, if any.
	Dir string `yaml:"-"`
}

// Meta is the descriptive metadata stamped onto generated records.
type Meta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version"`
	URL         string `yaml:"url,omitempty"`
	VersionURL  string `yaml:"versionurl,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Order       int    `yaml:"order,omitempty"`
	Encoding    string `yaml:"encoding,omitempty"`
}

// Dependency is a host or product version bound.
type Dependency struct {
	Type       string
	MinVersion string
	MaxVersion string
}

// Code is the install and uninstall code for one product version.
type Code struct {
	Version   string
	Install   string
	Uninstall string
}

// Template is one template or stylesheet.
type Template struct {
	Name    string
	Body    string
	Type    string
	Version string
	Author  string
}

// Template types.
const (
	TemplateTypeTemplate = "template"
	TemplateTypeCSS      = "css"
)

// Plugin is code attached to a host hook.
type Plugin struct {
	Title          string
	HookName       string
	Code           string
	Active         bool
	ExecutionOrder int
}

// DefaultExecutionOrder is the host's default plugin execution order.
const DefaultExecutionOrder = 5

// OptionGroup is a setting group with its settings.
type OptionGroup struct {
	VarName      string   `yaml:"-"`
	Title        string   `yaml:"title,omitempty"`
	DisplayOrder string   `yaml:"displayorder,omitempty"`
	Options      []Option `yaml:"-"`
}

// Option is one setting. Nil optional fields are absent and produce no tag.
type Option struct {
	VarName        string  `yaml:"-"`
	Title          string  `yaml:"title"`
	Description    string  `yaml:"description,omitempty"`
	DisplayOrder   string  `yaml:"displayorder,omitempty"`
	DataType       *string `yaml:"datatype,omitempty"`
	OptionCode     *string `yaml:"optioncode,omitempty"`
	ValidationCode *string `yaml:"validationcode,omitempty"`
	DefaultValue   *string `yaml:"defaultvalue,omitempty"`
	Blacklist      *string `yaml:"blacklist,omitempty"`
	Advanced       *string `yaml:"advanced,omitempty"`
}

// Task is a scheduled task. Scheduling fields are passed through verbatim.
type Task struct {
	VarName     string `yaml:"-"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	LogText     string `yaml:"logtext,omitempty"`
	Filename    string `yaml:"filename"`
	Weekday     string `yaml:"weekday"`
	Day         string `yaml:"day"`
	Hour        string `yaml:"hour"`
	Minutes     string `yaml:"minutes"`
	Active      *int   `yaml:"active,omitempty"`
	LogLevel    *int   `yaml:"loglevel,omitempty"`
}

// Tab is a navigation tab and its links.
type Tab struct {
	Name         string `yaml:"-"`
	Text         string `yaml:"text"`
	DisplayOrder string `yaml:"displayorder,omitempty"`
	Show         string `yaml:"show,omitempty"`
	Scripts      string `yaml:"scripts,omitempty"`
	URL          string `yaml:"url,omitempty"`
	Links        []Link `yaml:"-"`
}

// Link is a navigation link under a tab.
type Link struct {
	Name         string `yaml:"-"`
	Text         string `yaml:"text"`
	DisplayOrder string `yaml:"displayorder,omitempty"`
	Parent       string `yaml:"parent,omitempty"`
	Show         string `yaml:"show,omitempty"`
	Scripts      string `yaml:"scripts,omitempty"`
	URL          string `yaml:"url,omitempty"`
}

// PhraseGroup is an authored phrase group.
type PhraseGroup struct {
	Key     string
	Title   string
	Phrases []Phrase
}

// Phrase is one localized text entry.
type Phrase struct {
	VarName string
	Text    string
}

// HookCode is the concatenated code shipped for one hook.
type HookCode struct {
	Hook string
	Code string
}

// PluginCodeByHook concatenates plugin code per hook in plugin order.
// strip is applied to each plugin's code before concatenation; plugins
// whose transformed code is blank contribute nothing. A nil strip keeps
// the code as authored.
func (p *Project) PluginCodeByHook(strip func(string) string) []HookCode {
	var out []HookCode
	index := make(map[string]int)
	for _, plugin := range p.Plugins {
		code := plugin.Code
		if strip != nil {
			code = strip(code)
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		if i, ok := index[plugin.HookName]; ok {
			out[i].Code += "\n\n" + code
			continue
		}
		index[plugin.HookName] = len(out)
		out = append(out, HookCode{Hook: plugin.HookName, Code: code})
	}
	return out
}

// TemplateBodies returns template name to body, in template order.
func (p *Project) TemplateBodies() []Template {
	out := make([]Template, len(p.Templates))
	copy(out, p.Templates)
	return out
}

// TemplateVersion returns the template's version or the project version.
func (p *Project) TemplateVersion(t Template) string {
	if t.Version != "" {
		return t.Version
	}
	return p.Meta.Version
}

// TemplateAuthor returns the template's author or the project author.
func (p *Project) TemplateAuthor(t Template) string {
	if t.Author != "" {
		return t.Author
	}
	return p.Meta.Author
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
