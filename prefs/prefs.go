// Package prefs keeps a reader's presentation preferences (theme, text size
// and layout width), persists them in a pluggable Storage and applies the
// theme to a document root.
//
// A Store is the single owner of preference state for one session. Other
// components read it through Preferences or Subscribe rather than keeping
// their own copies. Changes made elsewhere reach the Store through the
// storage's change notifications; there is no polling.
package prefs

import (
	"errors"
	"fmt"
)

// Keys under which preferences are persisted. Values are the literal enum
// strings.
const (
	KeyTheme    = "wiki-theme"
	KeyTextSize = "wiki-text-size"
	KeyWidth    = "wiki-width"
)

// Keys lists every persisted key.
var Keys = []string{KeyTheme, KeyTextSize, KeyWidth}

// ErrInvalidValue is returned when a preference value is not one of its
// enum members.
var ErrInvalidValue = errors.New("prefs: invalid value")

// Theme is the color theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// ParseTheme converts s to a Theme.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return t, nil
	}
	return "", fmt.Errorf("%w: theme %q", ErrInvalidValue, s)
}

// TextSize is the body text size.
type TextSize string

const (
	TextSmall    TextSize = "small"
	TextStandard TextSize = "standard"
	TextLarge    TextSize = "large"
)

// ParseTextSize converts s to a TextSize.
func ParseTextSize(s string) (TextSize, error) {
	switch ts := TextSize(s); ts {
	case TextSmall, TextStandard, TextLarge:
		return ts, nil
	}
	return "", fmt.Errorf("%w: text size %q", ErrInvalidValue, s)
}

// Width is the layout width.
type Width string

const (
	WidthStandard Width = "standard"
	WidthWide     Width = "wide"
)

// ParseWidth converts s to a Width.
func ParseWidth(s string) (Width, error) {
	switch w := Width(s); w {
	case WidthStandard, WidthWide:
		return w, nil
	}
	return "", fmt.Errorf("%w: width %q", ErrInvalidValue, s)
}

// Validate reports whether value is acceptable for key.
func Validate(key, value string) error {
	var err error
	switch key {
	case KeyTheme:
		_, err = ParseTheme(value)
	case KeyTextSize:
		_, err = ParseTextSize(value)
	case KeyWidth:
		_, err = ParseWidth(value)
	default:
		err = fmt.Errorf("%w: unknown key %q", ErrInvalidValue, key)
	}
	return err
}

// Preferences is a snapshot of the three independent settings.
type Preferences struct {
	Theme    Theme    `json:"theme"`
	TextSize TextSize `json:"textSize"`
	Width    Width    `json:"width"`
}

// Defaults returns the default preferences with the given theme. Sites
// differ only in their default theme (dark or auto).
func Defaults(theme Theme) Preferences {
	if _, err := ParseTheme(string(theme)); err != nil {
		theme = ThemeDark
	}
	return Preferences{
		Theme:    theme,
		TextSize: TextStandard,
		Width:    WidthStandard,
	}
}

// Value returns the stored string for key.
func (p Preferences) Value(key string) (string, bool) {
	switch key {
	case KeyTheme:
		return string(p.Theme), true
	case KeyTextSize:
		return string(p.TextSize), true
	case KeyWidth:
		return string(p.Width), true
	}
	return "", false
}

// Logger receives diagnostics. echo.Logger and gommon's *log.Logger
// satisfy it.
type Logger interface {
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}
