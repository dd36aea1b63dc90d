package prefs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/labstack/gommon/log"
)

// Option configures a Store.
type Option func(*Store)

// WithDefaults sets the values used for absent or invalid keys.
func WithDefaults(p Preferences) Option {
	return func(s *Store) {
		s.defaults = p
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store holds the preferences of one session. All reads go through
// Preferences or Subscribe; all writes go through the Set methods or
// through change notifications from the storage.
//
// Callbacks (subscribers, storage writes) run outside the store's lock, so
// subscribers may call back into the Store.
type Store struct {
	storage Storage
	root    Root
	system  SystemScheme
	logger  Logger

	mu           sync.Mutex
	defaults     Preferences
	prefs        Preferences
	detachSystem func()
	stopWatch    func()
	subs         map[int]func(Preferences)
	nextSub      int
	closed       bool
}

// New returns a Store over storage that styles root. A nil system is
// treated as a light system preference.
func New(storage Storage, root Root, system SystemScheme, opts ...Option) *Store {
	if system == nil {
		system = StaticScheme(false)
	}
	s := &Store{
		storage:  storage,
		root:     root,
		system:   system,
		logger:   log.New("prefs"),
		defaults: Defaults(ThemeDark),
		subs:     make(map[int]func(Preferences)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.prefs = s.defaults
	return s
}

// Initialize loads the persisted preferences, applies the theme to the
// root and, when the storage supports it, subscribes to changes made by
// other writers.
func (s *Store) Initialize() error {
	p := Preferences{
		Theme:    s.defaults.Theme,
		TextSize: s.defaults.TextSize,
		Width:    s.defaults.Width,
	}
	if v, ok := s.load(KeyTheme); ok {
		if t, err := ParseTheme(v); err == nil {
			p.Theme = t
		} else {
			s.logger.Warnf("ignoring stored %s: %v", KeyTheme, err)
		}
	}
	if v, ok := s.load(KeyTextSize); ok {
		if ts, err := ParseTextSize(v); err == nil {
			p.TextSize = ts
		} else {
			s.logger.Warnf("ignoring stored %s: %v", KeyTextSize, err)
		}
	}
	if v, ok := s.load(KeyWidth); ok {
		if w, err := ParseWidth(v); err == nil {
			p.Width = w
		} else {
			s.logger.Warnf("ignoring stored %s: %v", KeyWidth, err)
		}
	}

	s.mu.Lock()
	s.prefs = p
	s.applyTheme()
	s.mu.Unlock()

	n, ok := s.storage.(Notifier)
	if !ok {
		return nil
	}
	stop, err := n.Watch(s.storageChanged)
	if err != nil {
		return fmt.Errorf("prefs: subscribe to storage: %w", err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		stop()
		return nil
	}
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.stopWatch = stop
	s.mu.Unlock()
	return nil
}

func (s *Store) load(key string) (string, bool) {
	v, ok, err := s.storage.Get(key)
	if err != nil {
		s.logger.Errorf("reading %s: %v", key, err)
		return "", false
	}
	return v, ok
}

// Preferences returns the current preferences.
func (s *Store) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetTheme selects and persists a theme.
func (s *Store) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return s.update(KeyTheme, string(t), func(p *Preferences) { p.Theme = t })
}

// SetTextSize selects and persists a text size.
func (s *Store) SetTextSize(ts TextSize) error {
	if _, err := ParseTextSize(string(ts)); err != nil {
		return err
	}
	return s.update(KeyTextSize, string(ts), func(p *Preferences) { p.TextSize = ts })
}

// SetWidth selects and persists a layout width.
func (s *Store) SetWidth(w Width) error {
	if _, err := ParseWidth(string(w)); err != nil {
		return err
	}
	return s.update(KeyWidth, string(w), func(p *Preferences) { p.Width = w })
}

// Set applies a raw key/value pair, as read from a form or a command line.
func (s *Store) Set(key, value string) error {
	switch key {
	case KeyTheme:
		return s.SetTheme(Theme(value))
	case KeyTextSize:
		return s.SetTextSize(TextSize(value))
	case KeyWidth:
		return s.SetWidth(Width(value))
	}
	return fmt.Errorf("%w: unknown key %q", ErrInvalidValue, key)
}

func (s *Store) update(key, value string, mutate func(*Preferences)) error {
	s.mu.Lock()
	before := s.prefs
	mutate(&s.prefs)
	after := s.prefs
	if key == KeyTheme {
		s.applyTheme()
	}
	subs := s.subscribers()
	s.mu.Unlock()

	// Storage watchers may call back synchronously, so persist unlocked.
	err := s.storage.Set(key, value)
	if after != before {
		notify(subs, after)
	}
	if err != nil {
		s.logger.Errorf("persisting %s: %v", key, err)
		return fmt.Errorf("prefs: persist %s: %w", key, err)
	}
	return nil
}

// storageChanged reconciles a change reported by the storage.
func (s *Store) storageChanged(key, value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	next := s.prefs
	switch key {
	case KeyTheme:
		next.Theme = s.defaults.Theme
		if value != "" {
			t, err := ParseTheme(value)
			if err != nil {
				s.mu.Unlock()
				s.logger.Warnf("ignoring external %s: %v", key, err)
				return
			}
			next.Theme = t
		}
	case KeyTextSize:
		next.TextSize = s.defaults.TextSize
		if value != "" {
			ts, err := ParseTextSize(value)
			if err != nil {
				s.mu.Unlock()
				s.logger.Warnf("ignoring external %s: %v", key, err)
				return
			}
			next.TextSize = ts
		}
	case KeyWidth:
		next.Width = s.defaults.Width
		if value != "" {
			w, err := ParseWidth(value)
			if err != nil {
				s.mu.Unlock()
				s.logger.Warnf("ignoring external %s: %v", key, err)
				return
			}
			next.Width = w
		}
	default:
		s.mu.Unlock()
		return
	}
	if next == s.prefs {
		s.mu.Unlock()
		return
	}
	themeChanged := next.Theme != s.prefs.Theme
	s.prefs = next
	if themeChanged {
		s.applyTheme()
	}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, next)
}

// applyTheme styles the root for the current theme and keeps the system
// listener attached exactly while the theme is auto. Callers hold s.mu.
func (s *Store) applyTheme() {
	if s.root != nil {
		for _, t := range []Theme{ThemeLight, ThemeDark, ThemeAuto} {
			if t != s.prefs.Theme {
				s.root.RemoveClass(ThemeClass(t))
			}
		}
		s.root.AddClass(ThemeClass(s.prefs.Theme))
	}
	var dark bool
	switch s.prefs.Theme {
	case ThemeAuto:
		if s.detachSystem == nil && !s.closed {
			s.detachSystem = s.system.OnChange(s.systemChanged)
		}
		dark = s.system.PrefersDark()
	default:
		s.detach()
		dark = s.prefs.Theme == ThemeDark
	}
	s.paint(dark)
}

func (s *Store) paint(dark bool) {
	if s.root == nil {
		return
	}
	if dark {
		s.root.AddClass(DarkClass)
		s.root.SetColorScheme("dark")
		return
	}
	s.root.RemoveClass(DarkClass)
	s.root.SetColorScheme("light")
}

func (s *Store) systemChanged(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.prefs.Theme != ThemeAuto {
		return
	}
	s.paint(dark)
}

func (s *Store) detach() {
	if s.detachSystem != nil {
		s.detachSystem()
		s.detachSystem = nil
	}
}

// Subscribe registers fn to receive the preferences after every change.
// It returns a function that removes the subscription.
func (s *Store) Subscribe(fn func(Preferences)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) subscribers() []func(Preferences) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Preferences), len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	return fns
}

func notify(subs []func(Preferences), p Preferences) {
	for _, fn := range subs {
		fn(p)
	}
}

// Close detaches the system listener, stops watching the storage and drops
// all subscribers. The last applied theme stays on the root.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.detach()
	stop := s.stopWatch
	s.stopWatch = nil
	s.subs = make(map[int]func(Preferences))
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}
