package runtime

import "strings"

// Sink receives the fragments a Loader injects into a running host.
type Sink interface {
	AppendHookCode(hook, code string)
	SetTemplate(name, body string)
	SetPhrase(varname, text string)
	SetOption(varname, value string)
}

// MemorySink records injected fragments in maps.
type MemorySink struct {
	Hooks     map[string]string
	Templates map[string]string
	Phrases   map[string]string
	Options   map[string]string
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		Hooks:     make(map[string]string),
		Templates: make(map[string]string),
		Phrases:   make(map[string]string),
		Options:   make(map[string]string),
	}
}

func (s *MemorySink) AppendHookCode(hook, code string) { s.Hooks[hook] += code }
func (s *MemorySink) SetTemplate(name, body string)    { s.Templates[name] = body }
func (s *MemorySink) SetPhrase(varname, text string)   { s.Phrases[varname] = text }
func (s *MemorySink) SetOption(varname, value string)  { s.Options[varname] = value }

// HookContains reports whether the code appended to hook contains fragment.
func (s *MemorySink) HookContains(hook, fragment string) bool {
	return strings.Contains(s.Hooks[hook], fragment)
}
