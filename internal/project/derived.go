package project

import "strings"

// Host phrase groups that receive phrases derived from settings, tasks and
// navigation records.
const (
	SettingsPhraseGroup   = "vbsettings"
	TasksPhraseGroup      = "cron"
	NavigationPhraseGroup = "global"
)

var derivedPrefixes = []string{"settinggroup_", "setting_", "task_", "vb_navigation_"}

// IsDerivedPhrase reports whether varname follows one of the derived phrase
// naming patterns.
func IsDerivedPhrase(varname string) bool {
	for _, prefix := range derivedPrefixes {
		if strings.HasPrefix(varname, prefix) {
			return true
		}
	}
	return false
}

// Derived phrase names.
func SettingGroupPhrase(group string) string  { return "settinggroup_" + group }
func SettingTitlePhrase(varname string) string { return "setting_" + varname + "_title" }
func SettingDescPhrase(varname string) string  { return "setting_" + varname + "_desc" }
func TaskTitlePhrase(varname string) string    { return "task_" + varname + "_title" }
func TaskDescPhrase(varname string) string     { return "task_" + varname + "_desc" }
func TaskLogPhrase(varname string) string      { return "task_" + varname + "_log" }
func TabTextPhrase(name string) string         { return "vb_navigation_tab_" + name + "_text" }
func LinkTextPhrase(name string) string        { return "vb_navigation_link_" + name + "_text" }

// GroupedPhrase is a phrase with the group it belongs to.
type GroupedPhrase struct {
	Group   string
	VarName string
	Text    string
}

// DerivedPhrases returns the phrases generated from the project's settings,
// tasks and navigation, in record order.
func (p *Project) DerivedPhrases() []GroupedPhrase {
	var out []GroupedPhrase
	add := func(group, varname, text string) {
		out = append(out, GroupedPhrase{Group: group, VarName: varname, Text: text})
	}
	for _, g := range p.OptionGroups {
		if g.Title != "" {
			add(SettingsPhraseGroup, SettingGroupPhrase(g.VarName), g.Title)
		}
		for _, opt := range g.Options {
			add(SettingsPhraseGroup, SettingTitlePhrase(opt.VarName), opt.Title)
			add(SettingsPhraseGroup, SettingDescPhrase(opt.VarName), opt.Description)
		}
	}
	for _, task := range p.Tasks {
		add(TasksPhraseGroup, TaskTitlePhrase(task.VarName), task.Title)
		add(TasksPhraseGroup, TaskDescPhrase(task.VarName), task.Description)
		add(TasksPhraseGroup, TaskLogPhrase(task.VarName), task.LogText)
	}
	for _, tab := range p.Navigation {
		add(NavigationPhraseGroup, TabTextPhrase(tab.Name), tab.Text)
		for _, link := range tab.Links {
			add(NavigationPhraseGroup, LinkTextPhrase(link.Name), link.Text)
		}
	}
	return out
}
