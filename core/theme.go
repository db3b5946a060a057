package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
)

// DefaultTheme is used until a valid preference is loaded.
const DefaultTheme = schema.AquaticTheme

// Themes holds the theme preference and persists every change to the prefs store.
// A nil store keeps the preference in memory only.
type Themes struct {
	store contract.CacheStore
	now   func() time.Time

	mu      sync.Mutex
	current schema.Theme
}

// NewThemes creates a preference holder starting at the default theme.
func NewThemes(store contract.CacheStore) *Themes {
	return &Themes{store: store, now: time.Now, current: DefaultTheme}
}

// Load reads the stored preference. A missing or unknown value leaves the default in place.
func (t *Themes) Load() schema.Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.store == nil {
		return t.current
	}
	value, _, _, err := t.store.Get(schema.ThemeKey)
	if err != nil {
		return t.current
	}
	if theme, err := ParseTheme(string(value)); err == nil {
		t.current = theme
	}
	return t.current
}

// Current returns the active theme.
func (t *Themes) Current() schema.Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set switches to theme and persists it.
func (t *Themes) Set(theme schema.Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apply(theme)
}

// Toggle flips between aquatic and neon and returns the new theme.
func (t *Themes) Toggle() (schema.Theme, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := schema.NeonTheme
	if t.current == schema.NeonTheme {
		next = schema.AquaticTheme
	}
	if err := t.apply(next); err != nil {
		return t.current, err
	}
	return next, nil
}

// apply persists theme and then makes it current. Caller holds mu.
func (t *Themes) apply(theme schema.Theme) error {
	if t.store != nil {
		if err := t.store.Set(schema.ThemeKey, []byte(theme), 1, t.now().Unix()); err != nil {
			return fmt.Errorf("failed to save theme: %w", err)
		}
	}
	t.current = theme
	return nil
}

// ParseTheme validates a theme name.
func ParseTheme(name string) (schema.Theme, error) {
	theme := schema.Theme(name)
	if _, ok := schema.ValidThemes[theme]; !ok {
		return "", fmt.Errorf("invalid theme '%s'. must be aquatic or neon", name)
	}
	return theme, nil
}
