package builder

// DerivedPhrase is one synthesized phrase.
type DerivedPhrase struct {
	VarName string
	Text    string
}

// DerivedGroup is a phrase group built up by section processors.
type DerivedGroup struct {
	Key     string
	Title   string
	Phrases []DerivedPhrase
}

// DerivedPhrases collects synthesized phrases by group key, in insertion
// order. A group's title is written at most once.
type DerivedPhrases struct {
	groups []*derivedGroup
	index  map[string]*derivedGroup
}

type derivedGroup struct {
	key      string
	title    string
	titleSet bool
	phrases  []DerivedPhrase
	byName   map[string]int
}

// NewDerivedPhrases returns an empty accumulator.
func NewDerivedPhrases() *DerivedPhrases {
	return &DerivedPhrases{index: make(map[string]*derivedGroup)}
}

func (d *DerivedPhrases) group(key string) *derivedGroup {
	if g, ok := d.index[key]; ok {
		return g
	}
	g := &derivedGroup{key: key, byName: make(map[string]int)}
	d.index[key] = g
	d.groups = append(d.groups, g)
	return g
}

// SetTitle sets the group's title unless one was set before.
func (d *DerivedPhrases) SetTitle(key, title string) {
	g := d.group(key)
	if g.titleSet {
		return
	}
	g.title = title
	g.titleSet = true
}

// Add records a phrase. A repeated varname replaces the earlier text in place.
func (d *DerivedPhrases) Add(key, varname, text string) {
	g := d.group(key)
	if i, ok := g.byName[varname]; ok {
		g.phrases[i].Text = text
		return
	}
	g.byName[varname] = len(g.phrases)
	g.phrases = append(g.phrases, DerivedPhrase{VarName: varname, Text: text})
}

// lookup returns a phrase's text.
func (d *DerivedPhrases) lookup(key, varname string) (string, bool) {
	g, ok := d.index[key]
	if !ok {
		return "", false
	}
	i, ok := g.byName[varname]
	if !ok {
		return "", false
	}
	return g.phrases[i].Text, true
}

// Count returns the number of phrases recorded under key.
func (d *DerivedPhrases) Count(key string) int {
	if g, ok := d.index[key]; ok {
		return len(g.phrases)
	}
	return 0
}

// Groups returns a snapshot of every group in insertion order.
func (d *DerivedPhrases) Groups() []DerivedGroup {
	out := make([]DerivedGroup, 0, len(d.groups))
	for _, g := range d.groups {
		phrases := make([]DerivedPhrase, len(g.phrases))
		copy(phrases, g.phrases)
		out = append(out, DerivedGroup{Key: g.key, Title: g.title, Phrases: phrases})
	}
	return out
}

// DerivedFiles is an ordered set of absolute, slash-separated paths.
type DerivedFiles struct {
	paths []string
	seen  map[string]struct{}
}

// NewDerivedFiles returns an empty set.
func NewDerivedFiles() *DerivedFiles {
	return &DerivedFiles{seen: make(map[string]struct{})}
}

// Add appends path unless it is already present.
func (f *DerivedFiles) Add(path string) {
	if _, ok := f.seen[path]; ok {
		return
	}
	f.seen[path] = struct{}{}
	f.paths = append(f.paths, path)
}

// List returns the paths in insertion order.
func (f *DerivedFiles) List() []string {
	out := make([]string, len(f.paths))
	copy(out, f.paths)
	return out
}
