package strategy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/newthinker/vega/internal/core"
)

// Presets maps preset names to strategy configurations.
type Presets map[string]Config

// BuiltinPresets returns the standard preset catalogue.
func BuiltinPresets() Presets {
	return Presets{
		"sma_20_50":  {Kind: KindSMA, ShortWindow: 20, LongWindow: 50},
		"sma_50_200": {Kind: KindSMA, ShortWindow: 50, LongWindow: 200},
		"ema_12_26":  {Kind: KindEMA, ShortWindow: 12, LongWindow: 26},
		"rsi_14":     {Kind: KindRSI, Period: 14, Oversold: DefaultOversold, Overbought: DefaultOverbought},
	}
}

// LoadPresets returns the builtin catalogue overlaid with entries from a
// YAML file (a mapping of name to config). An empty path returns the
// builtins unchanged. Entries replace builtins of the same name and are
// validated on load.
func LoadPresets(path string) (Presets, error) {
	presets := BuiltinPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets file: %w", err)
	}

	var custom map[string]Config
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("parsing presets file: %w", err)
	}

	for name, cfg := range custom {
		cfg = cfg.Normalized()
		if err := cfg.Validate(); err != nil {
			return nil, core.WrapErrorf(core.ErrConfigInvalid, "preset %q: %v", name, err)
		}
		presets[name] = cfg
	}
	return presets, nil
}

// Resolve returns the config for a preset name.
func (p Presets) Resolve(name string) (Config, error) {
	cfg, ok := p[name]
	if !ok {
		return Config{}, core.WrapErrorf(core.ErrConfigInvalid, "unknown preset %q", name)
	}
	return cfg, nil
}

// Names returns the preset names in sorted order.
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
