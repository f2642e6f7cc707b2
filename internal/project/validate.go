package project

import (
	"regexp"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

var idPattern = regexp.MustCompile(`^[-_a-z0-9]+$`)

// ValidID reports whether id can be used as a product key and file suffix.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Validate checks identity and rejects duplicate keys within a section.
func (p *Project) Validate() error {
	if p.ID == "" {
		return foundationerrors.ValidationError("project id is required").Build()
	}
	if !ValidID(p.ID) {
		return foundationerrors.ValidationError("project id must match [-_a-z0-9]+").
			WithContext("id", p.ID).
			Build()
	}

	checks := []struct {
		section string
		keys    []string
	}{
		{"dependencies", keysOf(p.Dependencies, func(d Dependency) string { return d.Type })},
		{"codes", keysOf(p.Codes, func(c Code) string { return c.Version })},
		{"templates", keysOf(p.Templates, func(t Template) string { return t.Name })},
		{"options", keysOf(p.OptionGroups, func(g OptionGroup) string { return g.VarName })},
		{"tasks", keysOf(p.Tasks, func(t Task) string { return t.VarName })},
		{"navigation", keysOf(p.Navigation, func(t Tab) string { return t.Name })},
		{"phrases", keysOf(p.PhraseGroups, func(g PhraseGroup) string { return g.Key })},
	}
	var settings []string
	for _, g := range p.OptionGroups {
		for _, o := range g.Options {
			settings = append(settings, o.VarName)
		}
	}
	checks = append(checks, struct {
		section string
		keys    []string
	}{"settings", settings})

	for _, c := range checks {
		if dup, ok := firstDuplicate(c.keys); ok {
			return foundationerrors.ValidationError("duplicate key in section").
				WithContext("id", p.ID).
				WithContext("section", c.section).
				WithContext("key", dup).
				Build()
		}
	}
	return nil
}

func keysOf[T any](records []T, key func(T) string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = key(r)
	}
	return out
}

func firstDuplicate(keys []string) (string, bool) {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return k, true
		}
		seen[k] = struct{}{}
	}
	return "", false
}
