package builder

import (
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/project"
	"git.home.luguber.info/inful/productbuilder/internal/xmldoc"
)

// PhraseGroup is a merged phrase group ready for the document.
type PhraseGroup struct {
	Key     string
	Title   string
	Phrases []DerivedPhrase
}

// MergePhraseGroups combines derived groups with authored ones. Derived
// groups come first; authored groups extend them, an authored title
// replaces the derived one and an authored phrase replaces a derived phrase
// of the same name.
func MergePhraseGroups(derived []DerivedGroup, authored []project.PhraseGroup) []PhraseGroup {
	var out []PhraseGroup
	index := make(map[string]int)
	names := make(map[string]map[string]int)

	upsert := func(key string) *PhraseGroup {
		if i, ok := index[key]; ok {
			return &out[i]
		}
		index[key] = len(out)
		names[key] = make(map[string]int)
		out = append(out, PhraseGroup{Key: key})
		return &out[len(out)-1]
	}
	put := func(g *PhraseGroup, varname, text string) {
		if i, ok := names[g.Key][varname]; ok {
			g.Phrases[i].Text = text
			return
		}
		names[g.Key][varname] = len(g.Phrases)
		g.Phrases = append(g.Phrases, DerivedPhrase{VarName: varname, Text: text})
	}

	for _, d := range derived {
		g := upsert(d.Key)
		g.Title = d.Title
		for _, p := range d.Phrases {
			put(g, p.VarName, p.Text)
		}
	}
	for _, a := range authored {
		g := upsert(a.Key)
		if a.Title != "" {
			g.Title = a.Title
		}
		for _, p := range a.Phrases {
			put(g, p.VarName, p.Text)
		}
	}
	return out
}

func processPhrases(c *sectionContext) error {
	meta := c.project.Meta
	stamp := c.timestamp()

	c.doc.OpenGroup("phrases")
	for _, group := range MergePhraseGroups(c.phrases.Groups(), c.project.PhraseGroups) {
		title := group.Title
		if title == "" {
			title, _ = HostGroupTitle(group.Key)
		}
		if title == "" {
			c.logger.Warn("Skipping phrase group without title",
				logfields.Section(group.Key),
				logfields.Count(len(group.Phrases)))
			continue
		}

		c.doc.OpenGroup("phrasetype", xmldoc.Attrs("name", title, "fieldname", group.Key)...)
		for _, p := range group.Phrases {
			c.doc.AddTag("phrase", p.Text, true, xmldoc.Attrs(
				"name", p.VarName,
				"username", meta.Author,
				"version", meta.Version,
				"date", stamp,
			)...)
			c.log.Addf("Added phrase %s", p.VarName)
		}
		if err := c.doc.CloseGroup(); err != nil {
			return err
		}
	}
	return c.doc.CloseGroup()
}
