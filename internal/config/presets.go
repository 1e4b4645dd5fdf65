package config

import "sort"

// Presets are complete configurations selectable by name. classic matches
// the browser sketch, including its 5px top margin.
var Presets = map[string]*Config{
	"classic": {
		Radius: 15, FPS: 60, Frames: 600, Seed: 1, Source: SourceSynthetic,
		Viewport: ViewportConfig{Width: 400, Height: 700},
		Physics:  PhysicsConfig{Gain: 0.5, Damping: 0.9, SpinDecay: 0.99, MarginY: 5},
		Server:   ServerConfig{Addr: DefaultAddr},
		DataDir:  DefaultDataDir,
	},
	"calm": {
		Radius: 20, FPS: 60, Frames: 1200, Seed: 1, Source: SourceSynthetic,
		Viewport: ViewportConfig{Width: 400, Height: 700},
		Physics:  PhysicsConfig{Gain: 0.25, Damping: 0.8, SpinDecay: 0.95},
		Server:   ServerConfig{Addr: DefaultAddr},
		DataDir:  DefaultDataDir,
	},
	"lively": {
		Radius: 10, FPS: 60, Frames: 600, Seed: 1, Source: SourceSynthetic,
		Viewport: ViewportConfig{Width: 400, Height: 700},
		Physics:  PhysicsConfig{Gain: 1.0, Damping: 0.97, SpinDecay: 0.995},
		Server:   ServerConfig{Addr: DefaultAddr},
		DataDir:  DefaultDataDir,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
