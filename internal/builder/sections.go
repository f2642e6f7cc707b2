package builder

import (
	"context"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/project"
	"git.home.luguber.info/inful/productbuilder/internal/xmldoc"
)

// SectionKind names a product document section.
type SectionKind string

const (
	SectionDependencies SectionKind = "dependencies"
	SectionCodes        SectionKind = "codes"
	SectionTemplates    SectionKind = "templates"
	SectionPlugins      SectionKind = "plugins"
	SectionOptions      SectionKind = "options"
	SectionTasks        SectionKind = "tasks"
	SectionNavigation   SectionKind = "navigation"
	SectionPhrases      SectionKind = "phrases"
)

// Fixed phrase groups filled by section processors.
const (
	groupSettings   = project.SettingsPhraseGroup
	groupTasks      = project.TasksPhraseGroup
	groupNavigation = project.NavigationPhraseGroup

	titleSettings = "vBulletin Settings"
	titleTasks    = "Scheduled Tasks"
)

// sectionContext is everything a processor reads or writes. One context is
// created per build.
type sectionContext struct {
	ctx      context.Context
	doc      *xmldoc.Document
	project  *project.Project
	phrases  *DerivedPhrases
	files    *DerivedFiles
	log      *Log
	registry PhraseTypeRegistry
	root     string
	now      time.Time
	logger   *slog.Logger
}

type section struct {
	kind    SectionKind
	process func(*sectionContext) error
}

// sections is the document order. Phrases must stay last.
var sections = []section{
	{SectionDependencies, processDependencies},
	{SectionCodes, processCodes},
	{SectionTemplates, processTemplates},
	{SectionPlugins, processPlugins},
	{SectionOptions, processOptions},
	{SectionTasks, processTasks},
	{SectionNavigation, processNavigation},
	{SectionPhrases, processPhrases},
}

// sectionKinds returns the section kinds in document order.
func sectionKinds() []SectionKind {
	out := make([]SectionKind, len(sections))
	for i, s := range sections {
		out[i] = s.kind
	}
	return out
}

func (c *sectionContext) timestamp() string {
	return strconv.FormatInt(c.now.Unix(), 10)
}

func processDependencies(c *sectionContext) error {
	c.doc.OpenGroup("dependencies")
	for _, dep := range c.project.Dependencies {
		c.doc.AddTag("dependency", "", false, xmldoc.Attrs(
			"type", dep.Type,
			"minversion", dep.MinVersion,
			"maxversion", dep.MaxVersion,
		)...)
		c.log.Addf("Added dependency on %s", dep.Type)
	}
	return c.doc.CloseGroup()
}

func processCodes(c *sectionContext) error {
	c.doc.OpenGroup("codes")
	for _, code := range c.project.Codes {
		c.doc.OpenGroup("code", xmldoc.Attrs("version", code.Version)...)
		if code.Install != "" {
			c.doc.AddTag("installcode", code.Install, true)
		}
		if code.Uninstall != "" {
			c.doc.AddTag("uninstallcode", code.Uninstall, true)
		}
		if err := c.doc.CloseGroup(); err != nil {
			return err
		}
		c.log.Addf("Added up/down code for version %s", code.Version)
	}
	return c.doc.CloseGroup()
}

func processTemplates(c *sectionContext) error {
	c.doc.OpenGroup("templates")
	for _, t := range c.project.Templates {
		c.doc.AddTag("template", t.Body, true, xmldoc.Attrs(
			"name", t.Name,
			"version", c.project.TemplateVersion(t),
			"username", c.project.TemplateAuthor(t),
			"date", c.timestamp(),
			"templatetype", "template",
		)...)
		c.log.Addf("Added template %s", t.Name)
	}
	return c.doc.CloseGroup()
}

func processPlugins(c *sectionContext) error {
	c.doc.OpenGroup("plugins")
	for _, p := range c.project.Plugins {
		code := StripBuildComments(p.Code)
		if code == "" {
			c.logger.Debug("Skipping development-only plugin", logfields.Hook(p.HookName))
			continue
		}
		c.doc.OpenGroup("plugin", xmldoc.Attrs(
			"active", boolFlag(p.Active),
			"executionorder", strconv.Itoa(p.ExecutionOrder),
		)...)
		c.doc.AddTag("title", p.Title, false)
		c.doc.AddTag("hookname", p.HookName, false)
		c.doc.AddTag("phpcode", code, true)
		if err := c.doc.CloseGroup(); err != nil {
			return err
		}
		c.log.Addf("Added plugin on %s", p.HookName)
	}
	return c.doc.CloseGroup()
}

func processOptions(c *sectionContext) error {
	existing := map[string]struct{}{}
	if len(c.project.OptionGroups) > 0 && c.registry != nil {
		groups, err := c.registry.GlobalPhraseGroups(c.ctx)
		if err != nil {
			return err
		}
		for _, g := range groups {
			existing[g] = struct{}{}
		}
	}

	c.doc.OpenGroup("options")
	for _, group := range c.project.OptionGroups {
		if _, ok := existing[group.VarName]; !ok {
			c.phrases.Add(groupSettings, project.SettingGroupPhrase(group.VarName), group.Title)
		}

		c.doc.OpenGroup("settinggroup", xmldoc.Attrs(
			"name", group.VarName,
			"displayorder", group.DisplayOrder,
		)...)
		for _, opt := range group.Options {
			attrs := xmldoc.Attrs("varname", opt.VarName, "displayorder", opt.DisplayOrder)
			if isSet(opt.Advanced) {
				attrs = append(attrs, xmldoc.Attr{Name: "advanced", Value: "1"})
			}
			c.doc.OpenGroup("setting", attrs...)
			for _, tag := range optionTags(opt) {
				if tag.value != nil {
					c.doc.AddTag(tag.name, *tag.value, false)
				}
			}
			if err := c.doc.CloseGroup(); err != nil {
				return err
			}

			c.phrases.Add(groupSettings, project.SettingTitlePhrase(opt.VarName), opt.Title)
			c.phrases.Add(groupSettings, project.SettingDescPhrase(opt.VarName), opt.Description)
			c.log.Addf("Added option %s", opt.VarName)
		}
		if err := c.doc.CloseGroup(); err != nil {
			return err
		}
	}
	if len(c.project.OptionGroups) > 0 {
		c.phrases.SetTitle(groupSettings, titleSettings)
	}
	return c.doc.CloseGroup()
}

type optionTag struct {
	name  string
	value *string
}

// optionTags lists the optional setting tags in document order.
func optionTags(o project.Option) []optionTag {
	return []optionTag{
		{"datatype", o.DataType},
		{"optioncode", o.OptionCode},
		{"validationcode", o.ValidationCode},
		{"defaultvalue", o.DefaultValue},
		{"blacklist", o.Blacklist},
		{"advanced", o.Advanced},
	}
}

func processTasks(c *sectionContext) error {
	c.doc.OpenGroup("cronentries")
	for _, task := range c.project.Tasks {
		c.doc.OpenGroup("cron", xmldoc.Attrs(
			"varname", task.VarName,
			"active", intOr(task.Active, 1),
			"loglevel", intOr(task.LogLevel, 1),
		)...)
		c.doc.AddTag("filename", task.Filename, false)
		c.doc.AddTag("scheduling", "", false, xmldoc.Attrs(
			"weekday", task.Weekday,
			"day", task.Day,
			"hour", task.Hour,
			"minute", task.Minutes,
		)...)
		if err := c.doc.CloseGroup(); err != nil {
			return err
		}

		c.phrases.SetTitle(groupTasks, titleTasks)
		c.phrases.Add(groupTasks, project.TaskTitlePhrase(task.VarName), task.Title)
		c.phrases.Add(groupTasks, project.TaskDescPhrase(task.VarName), task.Description)
		c.phrases.Add(groupTasks, project.TaskLogPhrase(task.VarName), task.LogText)

		c.files.Add(TaskFile(c.root, task.Filename))
		c.log.Addf("Added scheduled task entitled %s", task.Title)
	}
	return c.doc.CloseGroup()
}

// TaskFile resolves a task's handler filename against the source root.
// Backslashes become slashes and a leading "." is dropped, so both
// "./includes/cron/x.php" and "/includes/cron/x.php" name the same file.
func TaskFile(root, filename string) string {
	name := strings.TrimPrefix(strings.ReplaceAll(filename, `\`, "/"), ".")
	return path.Join(strings.ReplaceAll(root, `\`, "/"), name)
}

func processNavigation(c *sectionContext) error {
	meta := c.project.Meta
	c.doc.OpenGroup("navigation")
	for _, tab := range c.project.Navigation {
		c.doc.OpenGroup("tab", xmldoc.Attrs("name", tab.Name, "version", meta.Version, "username", meta.Author)...)
		c.doc.AddTag("active", "1", false)
		c.doc.AddTag("displayorder", tab.DisplayOrder, false)
		c.doc.AddTag("show", tab.Show, false)
		c.doc.AddTag("scripts", tab.Scripts, false)
		c.doc.AddTag("url", tab.URL, true)
		if err := c.doc.CloseGroup(); err != nil {
			return err
		}
		c.phrases.Add(groupNavigation, project.TabTextPhrase(tab.Name), tab.Text)
		c.log.Addf("Added navigation tab %s", tab.Name)

		// Links are siblings of their tab and carry the tab's scripts.
		for _, link := range tab.Links {
			c.doc.OpenGroup("link", xmldoc.Attrs("name", link.Name, "version", meta.Version, "username", meta.Author)...)
			c.doc.AddTag("active", "1", false)
			c.doc.AddTag("displayorder", link.DisplayOrder, false)
			c.doc.AddTag("parent", link.Parent, false)
			c.doc.AddTag("show", link.Show, false)
			c.doc.AddTag("scripts", tab.Scripts, false)
			c.doc.AddTag("url", link.URL, true)
			if err := c.doc.CloseGroup(); err != nil {
				return err
			}
			c.phrases.Add(groupNavigation, project.LinkTextPhrase(link.Name), link.Text)
			c.log.Addf("Added navigation link %s", link.Name)
		}
	}
	return c.doc.CloseGroup()
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func intOr(v *int, def int) string {
	if v == nil {
		return strconv.Itoa(def)
	}
	return strconv.Itoa(*v)
}

// isSet reports whether an optional flag holds a truthy value.
func isSet(v *string) bool {
	return v != nil && *v != "" && *v != "0"
}
