package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/tflog/internal/model"
)

// Skin is a named theme with a dark and a light variant.
type Skin struct {
	Name  string  `yaml:"name"`
	Dark  Palette `yaml:"dark"`
	Light Palette `yaml:"light"`
}

func builtinSkin() Skin {
	return Skin{Name: model.DefaultSkin, Dark: defaultDark, Light: defaultLight}
}

func (s Skin) palette(dark bool) Palette {
	if dark {
		return s.Dark
	}
	return s.Light
}

// LoadSkin reads a skin file. Colors it leaves out come from the default skin.
func LoadSkin(path string) (Skin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Skin{}, err
	}
	var s Skin
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Skin{}, fmt.Errorf("parse skin %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = skinName(path)
	}
	s.Dark = s.Dark.merge(defaultDark)
	s.Light = s.Light.merge(defaultLight)
	return s, nil
}

func skinName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// InitializeSkin activates the named skin from <configDir>/skins. The
// default skin is built in. On error the current skin is kept.
func InitializeSkin(name, configDir string) error {
	if name == "" || name == model.DefaultSkin {
		currentSkin = builtinSkin()
		applyPalette(currentSkin.palette(darkTheme))
		return nil
	}

	var lastErr error
	for _, ext := range []string{".yml", ".yaml"} {
		s, err := LoadSkin(filepath.Join(configDir, "skins", name+ext))
		if err == nil {
			currentSkin = s
			applyPalette(currentSkin.palette(darkTheme))
			return nil
		}
		lastErr = err
		if !errors.Is(err, os.ErrNotExist) {
			break
		}
	}
	return fmt.Errorf("skin %q: %w", name, lastErr)
}

// SkinName returns the name of the active skin.
func SkinName() string { return currentSkin.Name }
