package prefs

import (
	"sort"
	"strings"
	"sync"
)

// DarkClass is the marker class added to the document root for dark mode.
const DarkClass = "dark"

// ThemeClass is the class naming the selected theme, so a stylesheet can
// keep following the system preference while auto is selected.
func ThemeClass(t Theme) string {
	return "theme-" + string(t)
}

// Root is the styling root of a document, such as the <html> element.
type Root interface {
	AddClass(name string)
	RemoveClass(name string)
	SetColorScheme(scheme string)
}

// DocumentRoot is a Root that records its state so it can be rendered
// into markup.
type DocumentRoot struct {
	mu      sync.Mutex
	classes map[string]struct{}
	scheme  string
}

// NewDocumentRoot returns an empty root.
func NewDocumentRoot() *DocumentRoot {
	return &DocumentRoot{classes: make(map[string]struct{})}
}

func (r *DocumentRoot) AddClass(name string) {
	r.mu.Lock()
	r.classes[name] = struct{}{}
	r.mu.Unlock()
}

func (r *DocumentRoot) RemoveClass(name string) {
	r.mu.Lock()
	delete(r.classes, name)
	r.mu.Unlock()
}

func (r *DocumentRoot) SetColorScheme(scheme string) {
	r.mu.Lock()
	r.scheme = scheme
	r.mu.Unlock()
}

// HasClass reports whether name is set.
func (r *DocumentRoot) HasClass(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.classes[name]
	return ok
}

// Dark reports whether the dark marker class is present.
func (r *DocumentRoot) Dark() bool {
	return r.HasClass(DarkClass)
}

// ColorScheme returns the color-scheme hint.
func (r *DocumentRoot) ColorScheme() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheme
}

// Class returns the class attribute value, sorted for stable output.
func (r *DocumentRoot) Class() string {
	r.mu.Lock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return strings.Join(names, " ")
}

// Style returns the style attribute value.
func (r *DocumentRoot) Style() string {
	if s := r.ColorScheme(); s != "" {
		return "color-scheme: " + s
	}
	return ""
}

// SystemScheme reports the operating system's dark-mode preference.
type SystemScheme interface {
	PrefersDark() bool
	// OnChange registers fn to run whenever the preference changes and
	// returns a function that removes it.
	OnChange(fn func(dark bool)) (detach func())
}

// StaticScheme is a SystemScheme that never changes, e.g. one read from a
// request's Sec-CH-Prefers-Color-Scheme header.
type StaticScheme bool

func (s StaticScheme) PrefersDark() bool { return bool(s) }

func (s StaticScheme) OnChange(func(bool)) func() { return func() {} }

// MutableScheme is a SystemScheme whose value can be changed at runtime.
// Listeners run synchronously on Set.
type MutableScheme struct {
	mu        sync.Mutex
	dark      bool
	nextID    int
	listeners map[int]func(bool)
}

// NewMutableScheme returns a scheme starting at dark.
func NewMutableScheme(dark bool) *MutableScheme {
	return &MutableScheme{dark: dark, listeners: make(map[int]func(bool))}
}

func (m *MutableScheme) PrefersDark() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dark
}

func (m *MutableScheme) OnChange(fn func(bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Listeners returns the number of attached listeners.
func (m *MutableScheme) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// Set changes the preference and notifies listeners if it differs.
func (m *MutableScheme) Set(dark bool) {
	m.mu.Lock()
	if m.dark == dark {
		m.mu.Unlock()
		return
	}
	m.dark = dark
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(dark)
	}
}
