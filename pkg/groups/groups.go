package groups

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// DefaultKey is the key of the protected fallback group.
const DefaultKey = "default"

// Defaults applied by Define to fields the caller leaves unset.
const (
	DefaultColor  = "#94a3b8"
	DefaultRadius = 20.0
)

// Group is a named style class.
type Group struct {
	Key         string  `json:"-"`
	Title       string  `json:"title"`
	Color       string  `json:"color"`
	Radius      float64 `json:"radius"`
	Description string  `json:"description,omitempty"`
}

// Label returns the group's display label. Labels and titles are the same
// field; both names exist in stored documents.
func (g Group) Label() string { return g.Title }

// Props describes a group passed to Define. Zero fields take defaults.
type Props struct {
	Title       string
	Color       string
	Radius      float64
	Description string
}

// Patch describes a partial update. Nil fields are left unchanged. Title and
// Label both set the group's title; when both are given Label wins.
type Patch struct {
	Title       *string
	Label       *string
	Color       *string
	Radius      *float64
	Description *string
}

// Registry is an insertion-ordered set of groups with a protected default.
// It is not safe for concurrent use.
type Registry struct {
	groups    map[string]*Group
	order     []string
	listeners []func()
	logger    *log.Logger
}

func defaultGroup() *Group {
	return &Group{
		Key:         DefaultKey,
		Title:       "Default",
		Color:       "#000000",
		Radius:      15,
		Description: "Default group for uncategorized entities",
	}
}

// New returns a registry holding only the default group.
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{groups: make(map[string]*Group), logger: logger}
	r.insert(defaultGroup())
	return r
}

func (r *Registry) insert(g *Group) {
	if _, ok := r.groups[g.Key]; !ok {
		r.order = append(r.order, g.Key)
	}
	r.groups[g.Key] = g
}

// OnChange registers fn to run after every applied mutation.
func (r *Registry) OnChange(fn func()) {
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) changed() {
	for _, fn := range r.listeners {
		fn()
	}
}

// Define creates or replaces the group under key. Unset fields default to
// DefaultColor, DefaultRadius and the capitalized key as title.
func (r *Registry) Define(key string, p Props) bool {
	if key == "" {
		r.logger.Debug("group no-op", "op", "define", "reason", "empty key")
		return false
	}
	g := &Group{
		Key:         key,
		Title:       p.Title,
		Color:       p.Color,
		Radius:      p.Radius,
		Description: p.Description,
	}
	if g.Title == "" {
		g.Title = Capitalize(key)
	}
	if g.Color == "" {
		g.Color = DefaultColor
	}
	if g.Radius <= 0 {
		g.Radius = DefaultRadius
	}
	r.insert(g)
	r.changed()
	return true
}

// Update merges patch into an existing group. Unknown keys are a no-op.
func (r *Registry) Update(key string, p Patch) bool {
	g, ok := r.groups[key]
	if !ok {
		r.logger.Debug("group no-op", "op", "update", "group", key, "reason", "not found")
		return false
	}
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Label != nil {
		g.Title = *p.Label
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
	if p.Radius != nil {
		g.Radius = *p.Radius
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	r.changed()
	return true
}

// Remove deletes the group under key. The default group and unknown keys
// are left alone.
func (r *Registry) Remove(key string) bool {
	if key == DefaultKey {
		r.logger.Debug("group no-op", "op", "remove", "group", key, "reason", "default group is protected")
		return false
	}
	if _, ok := r.groups[key]; !ok {
		r.logger.Debug("group no-op", "op", "remove", "group", key, "reason", "not found")
		return false
	}
	delete(r.groups, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.changed()
	return true
}

// Resolve returns the group for key, or the default group when key is empty
// or unknown.
func (r *Registry) Resolve(key string) Group {
	if g, ok := r.groups[key]; ok {
		return *g
	}
	if g, ok := r.groups[DefaultKey]; ok {
		return *g
	}
	return *defaultGroup()
}

// ResolveKey returns key when it names a group, DefaultKey otherwise.
func (r *Registry) ResolveKey(key string) string {
	if _, ok := r.groups[key]; ok {
		return key
	}
	return DefaultKey
}

// Get returns the group under key without falling back.
func (r *Registry) Get(key string) (Group, bool) {
	g, ok := r.groups[key]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// Has reports whether key names a group.
func (r *Registry) Has(key string) bool {
	_, ok := r.groups[key]
	return ok
}

// Keys returns group keys in insertion order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns copies of every group in insertion order.
func (r *Registry) All() []Group {
	out := make([]Group, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, *r.groups[k])
	}
	return out
}

// Len returns the number of groups, the default included.
func (r *Registry) Len() int { return len(r.order) }

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}

// Ptr returns a pointer to v. It keeps Patch literals short.
func Ptr[T any](v T) *T { return &v }

// Slug turns a title into a lowercase key candidate.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
