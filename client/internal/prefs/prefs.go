// Package prefs persists small UI settings in the local database.
package prefs

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"sharelite/client/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	keyTheme = "theme"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Store reads and writes preferences. With a nil database it keeps values
// in memory only, so the UI still works when SQLite cannot be opened.
type Store struct {
	gdb      *gorm.DB
	fallback string

	mu  sync.Mutex
	mem map[string]string
}

// New returns a store over gdb. fallbackTheme is used until a theme has
// been saved.
func New(gdb *gorm.DB, fallbackTheme string) *Store {
	if NormalizeTheme(fallbackTheme) == "" {
		fallbackTheme = ThemeDark
	}
	return &Store{gdb: gdb, fallback: NormalizeTheme(fallbackTheme), mem: map[string]string{}}
}

// NormalizeTheme returns "dark", "light" or "" for anything else.
func NormalizeTheme(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ThemeDark:
		return ThemeDark
	case ThemeLight:
		return ThemeLight
	}
	return ""
}

func (s *Store) Theme() string {
	v, err := s.get(keyTheme)
	if err != nil || NormalizeTheme(v) == "" {
		return s.fallback
	}
	return NormalizeTheme(v)
}

func (s *Store) SetTheme(theme string) error {
	t := NormalizeTheme(theme)
	if t == "" {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	return s.set(keyTheme, t)
}

// ToggleTheme flips between light and dark and returns the new value.
func (s *Store) ToggleTheme() (string, error) {
	next := ThemeLight
	if s.Theme() == ThemeLight {
		next = ThemeDark
	}
	return next, s.SetTheme(next)
}

func (s *Store) get(key string) (string, error) {
	if s.gdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		v, ok := s.mem[key]
		if !ok {
			return "", gorm.ErrRecordNotFound
		}
		return v, nil
	}
	var p db.Preference
	if err := s.gdb.Where("key = ?", key).First(&p).Error; err != nil {
		return "", err
	}
	return p.Value, nil
}

func (s *Store) set(key, value string) error {
	if s.gdb == nil {
		s.mu.Lock()
		s.mem[key] = value
		s.mu.Unlock()
		return nil
	}
	rec := db.Preference{Key: key, Value: value}
	return s.gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}
