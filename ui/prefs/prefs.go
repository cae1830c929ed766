// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"sheet-marker/internal/tool"
)

const prefsFile = "preferences.json"

// Preference keys for the drawing defaults.
const (
	KeyPenColor    = "pen.color"
	KeyPenWidth    = "pen.width"
	KeyFontSize    = "text.fontSize"
	KeyLastBackend = "backend.url"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from ~/.config/sheet-marker/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	dir := filepath.Join(configDir, "sheet-marker")
	p.path = filepath.Join(dir, prefsFile)

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// Float returns a float64 preference, or fallback if not set.
func (p *Prefs) Float(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// String returns a string preference, or fallback if not set.
func (p *Prefs) String(key, fallback string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Style assembles the drawing defaults from stored preferences, falling
// back to the built-in defaults for anything unset.
func (p *Prefs) Style() tool.Style {
	def := tool.DefaultStyle()
	return tool.Style{
		Color:       p.String(KeyPenColor, def.Color),
		StrokeWidth: p.Float(KeyPenWidth, def.StrokeWidth),
		FontSize:    p.Float(KeyFontSize, def.FontSize),
	}
}

// SetStyle persists the drawing defaults.
func (p *Prefs) SetStyle(s tool.Style) {
	p.SetString(KeyPenColor, s.Color)
	p.SetFloat(KeyPenWidth, s.StrokeWidth)
	p.SetFloat(KeyFontSize, s.FontSize)
}
