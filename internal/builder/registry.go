package builder

import (
	"context"
)

// PhraseTypeRegistry lists the phrase groups that ship with the host itself.
type PhraseTypeRegistry interface {
	GlobalPhraseGroups(ctx context.Context) ([]string, error)
}

// StaticRegistry is a fixed list of host phrase groups.
type StaticRegistry []string

// GlobalPhraseGroups returns the list.
func (r StaticRegistry) GlobalPhraseGroups(context.Context) ([]string, error) {
	out := make([]string, len(r))
	copy(out, r)
	return out, nil
}

// DefaultHostPhraseGroups are the phrase groups of a stock host install.
var DefaultHostPhraseGroups = StaticRegistry{
	"global", "cpglobal", "cppermission", "forum", "calendar", "attachment_image",
	"style", "logging", "cphome", "promotion", "user", "help_faq", "sql", "subscription",
	"language", "bbcode", "stats", "diagnostic", "reputation", "wol", "threadmanage",
	"pm", "cpuser", "accessmask", "cron", "moderator", "cpoption", "cprank", "cpusergroup",
	"holiday", "posting", "poll", "fronthelp", "register", "search", "showthread",
	"postbit", "forumdisplay", "messaging", "inlinemod", "plugins", "cprofilefield",
	"reputationlevel", "infraction", "infractionlevel", "notice", "prefix", "prefixadmin",
	"album", "socialgroups", "advertising", "vbsettings",
}

// hostGroupTitles are the built-in titles of host phrase groups. Groups that
// reach the phrases section without a title fall back to these.
var hostGroupTitles = map[string]string{
	"global":     "GLOBAL",
	"cron":       "Scheduled Tasks",
	"vbsettings": "vBulletin Settings",
	"cpglobal":   "Control Panel Global",
	"cpoption":   "Control Panel Options",
	"user":       "User Tools (global)",
	"posting":    "Posting",
	"forum":      "Forum-Related",
	"plugins":    "Plugin System",
	"style":      "Style Tools",
	"showthread": "Show Thread",
	"postbit":    "Postbit",
	"search":     "Searching",
	"register":   "Register",
	"pm":         "Private Messaging",
}

// HostGroupTitle returns the host's built-in title for a phrase group.
func HostGroupTitle(key string) (string, bool) {
	t, ok := hostGroupTitles[key]
	return t, ok
}
