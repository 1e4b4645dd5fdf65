package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sim"
)

const (
	DefaultFrames  = 600
	DefaultSeed    = 1
	DefaultSource  = SourceSynthetic
	DefaultAddr    = ":8080"
	DefaultDataDir = "./runs"
)

// Input sources understood by the CLI.
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
	SourceScript    = "script"
	SourceNone      = "none"
)

var ErrUnknownSource = errors.New("config: unknown source")

type Config struct {
	Radius   float64        `yaml:"radius"`
	FPS      int            `yaml:"fps"`
	Frames   int            `yaml:"frames"`
	Seed     int64          `yaml:"seed"`
	Source   string         `yaml:"source"`
	Replay   string         `yaml:"replay,omitempty"`
	Script   string         `yaml:"script,omitempty"`
	Viewport ViewportConfig `yaml:"viewport"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Server   ServerConfig   `yaml:"server"`
	DataDir  string         `yaml:"data_dir"`
}

type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type PhysicsConfig struct {
	Gain      float64 `yaml:"gain"`
	Damping   float64 `yaml:"damping"`
	SpinDecay float64 `yaml:"spin_decay"`
	MarginX   float64 `yaml:"margin_x"`
	MarginY   float64 `yaml:"margin_y"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Radius: physics.DefaultRadius,
		FPS:    sim.DefaultFPS,
		Frames: DefaultFrames,
		Seed:   DefaultSeed,
		Source: DefaultSource,
		Viewport: ViewportConfig{
			Width:  sim.DefaultWidth,
			Height: sim.DefaultHeight,
		},
		Physics: PhysicsConfig{
			Gain:      physics.DefaultGain,
			Damping:   physics.DefaultDamping,
			SpinDecay: physics.DefaultSpinDecay,
		},
		Server:  ServerConfig{Addr: DefaultAddr},
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Sim converts the file layout into the simulator's configuration.
func (c *Config) Sim() sim.Config {
	p := physics.DefaultParams()
	p.Gain = c.Physics.Gain
	p.Damping = c.Physics.Damping
	p.SpinDecay = c.Physics.SpinDecay
	p.Margin = mgl64.Vec2{c.Physics.MarginX, c.Physics.MarginY}
	return sim.Config{
		Radius:   c.Radius,
		Viewport: physics.Viewport{Width: c.Viewport.Width, Height: c.Viewport.Height},
		Params:   p,
		FPS:      c.FPS,
	}
}

func (c *Config) Validate() error {
	if err := c.Sim().Validate(); err != nil {
		return err
	}
	if c.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", sim.ErrInvalidConfig, c.Frames)
	}
	switch c.Source {
	case SourceSynthetic, SourceNone:
	case SourceReplay:
		if c.Replay == "" {
			return fmt.Errorf("%w: replay source needs a file", sim.ErrInvalidConfig)
		}
	case SourceScript:
		if c.Script == "" {
			return fmt.Errorf("%w: script source needs a file", sim.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}
	return nil
}

// ApplyEnv overrides fields from TILTBALL_* variables, reading .env first
// if one exists.
func (c *Config) ApplyEnv() {
	godotenv.Load()

	c.Server.Addr = getEnv("TILTBALL_ADDR", c.Server.Addr)
	c.DataDir = getEnv("TILTBALL_DATA_DIR", c.DataDir)
	c.Source = getEnv("TILTBALL_SOURCE", c.Source)
	c.Replay = getEnv("TILTBALL_REPLAY", c.Replay)
	c.Script = getEnv("TILTBALL_SCRIPT", c.Script)
	c.FPS = getEnvInt("TILTBALL_FPS", c.FPS)
	c.Frames = getEnvInt("TILTBALL_FRAMES", c.Frames)
	c.Seed = int64(getEnvInt("TILTBALL_SEED", int(c.Seed)))
	c.Radius = getEnvFloat("TILTBALL_RADIUS", c.Radius)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
