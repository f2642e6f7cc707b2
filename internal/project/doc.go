// Package project holds the read-only model of a product project and the
// on-disk tree format it is loaded from and written to.
//
// A project tree looks like:
//
//	project.yaml                    identity, metadata, files, dependencies
//	updown/up-<version>.php         install code (version "all" means "*")
//	updown/down-<version>.php       uninstall code
//	plugins/<hook>.php              plugin code, one file per hook
//	templates/<name>.html           template body ("<name>" without .html is css)
//	options/<group>/<group>.yaml    group title and display order
//	options/<group>/<varname>.yaml  one setting
//	tasks/<varname>.yaml            one scheduled task
//	navigation/<tab>/<tab>.yaml     one navigation tab
//	navigation/<tab>/<tab>_<link>.yaml
//	phrases/<group>/<group>.txt     phrase group title
//	phrases/<group>/<varname>.txt   phrase text
//
// Records inside a section are ordered by file name, except codes which are
// ordered by version with "*" first.
package project
