package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"framekit/internal/logging"
	"framekit/internal/shader"
)

// DefaultFile is read by Get when present in the working directory.
const DefaultFile = "framekit.json"

// Backend names.
const (
	BackendWebGPU   = "webgpu"
	BackendHeadless = "headless"
)

// Config holds application configuration
type Config struct {
	Window    Window    `json:"window" yaml:"window"`
	Rendering Rendering `json:"rendering" yaml:"rendering"`
	Scene     Scene     `json:"scene" yaml:"scene"`
	Assets    Assets    `json:"assets" yaml:"assets"`
	Log       Log       `json:"log" yaml:"log"`
}

// Window contains window parameters
type Window struct {
	Width      int    `json:"width" yaml:"width"`
	Height     int    `json:"height" yaml:"height"`
	Title      string `json:"title" yaml:"title"`
	Fullscreen bool   `json:"fullscreen" yaml:"fullscreen"`
	VSync      bool   `json:"vsync" yaml:"vsync"`
}

// Rendering contains device parameters
type Rendering struct {
	// Backend is "webgpu" or "headless"
	Backend     string     `json:"backend" yaml:"backend"`
	ScreenNear  float32    `json:"screen_near" yaml:"screen_near"`
	ScreenDepth float32    `json:"screen_depth" yaml:"screen_depth"`
	ClearColor  [4]float32 `json:"clear_color" yaml:"clear_color,flow"`
}

// Scene describes what is drawn each frame
type Scene struct {
	// Variant is the shader program: color, texture or light
	Variant string `json:"variant" yaml:"variant"`

	// Model is an asset path of a model file; empty draws the built-in triangle
	Model string `json:"model" yaml:"model"`

	// Texture is an asset path of a 32-bit Targa file, used by textured variants
	Texture string `json:"texture" yaml:"texture"`

	CameraPosition [3]float32 `json:"camera_position" yaml:"camera_position,flow"`
	CameraRotation [3]float32 `json:"camera_rotation" yaml:"camera_rotation,flow"`
	LightDirection [3]float32 `json:"light_direction" yaml:"light_direction,flow"`
	LightColor     [4]float32 `json:"light_color" yaml:"light_color,flow"`

	// SpinDegreesPerFrame rotates the world about Y each frame (0 = static)
	SpinDegreesPerFrame float32 `json:"spin_degrees_per_frame" yaml:"spin_degrees_per_frame"`
}

// Assets locates shaders, models and textures
type Assets struct {
	// Dir is searched before the embedded defaults; empty uses only those
	Dir string `json:"dir" yaml:"dir"`
}

// Log contains logging parameters
type Log struct {
	Level string `json:"level" yaml:"level"`
}

// MaxSpin bounds SpinDegreesPerFrame in either direction.
const MaxSpin = 45

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "framekit",
			VSync:  true,
		},
		Rendering: Rendering{
			Backend:     BackendWebGPU,
			ScreenNear:  0.3,
			ScreenDepth: 1000,
			ClearColor:  [4]float32{0, 0, 0, 1},
		},
		Scene: Scene{
			Variant:        shader.Light.String(),
			Texture:        "textures/checker.tga",
			CameraPosition: [3]float32{0, 0, -5},
			LightDirection: [3]float32{0, 0, 1},
			LightColor:     [4]float32{1, 0, 1, 1},
		},
		Log: Log{Level: "info"},
	}
}

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if instance != nil {
			return
		}
		instance = DefaultConfig()
		// Try to load from file
		if data, err := os.ReadFile(DefaultFile); err == nil {
			if err := unmarshal(DefaultFile, data, instance); err != nil {
				logging.Logger().Warn("config: ignoring "+DefaultFile, "err", err)
			}
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load loads configuration from a file over the current values. Files
// ending in .yaml or .yml are YAML, anything else JSON.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}

	next := *instance
	if err := unmarshal(path, data, &next); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	*instance = next
	return nil
}

// Save saves configuration to a file in the format its extension names
func Save(path string) error {
	mu.RLock()
	defer mu.RUnlock()

	cfg := instance
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Reset drops the global instance back to the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = DefaultConfig()
}

// Snapshot returns a copy of the current configuration
func Snapshot() Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return *DefaultConfig()
	}
	return *instance
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// Validate reports the first setting that can never work.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Rendering.ScreenNear <= 0 || c.Rendering.ScreenNear >= c.Rendering.ScreenDepth {
		errs = append(errs, fmt.Errorf("screen near %g must be in (0, screen depth %g)", c.Rendering.ScreenNear, c.Rendering.ScreenDepth))
	}
	switch c.Rendering.Backend {
	case BackendWebGPU, BackendHeadless:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Rendering.Backend))
	}
	if s := c.Scene.SpinDegreesPerFrame; s < -MaxSpin || s > MaxSpin {
		errs = append(errs, fmt.Errorf("spin %g degrees per frame exceeds %d", s, MaxSpin))
	}
	if _, err := shader.ParseVariant(c.Scene.Variant); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SetVariant selects the shader program
func SetVariant(name string) error {
	v, err := shader.ParseVariant(name)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}
	instance.Scene.Variant = v.String()
	return nil
}

// SetBackend selects the GPU backend
func SetBackend(name string) error {
	name = strings.ToLower(name)
	if name != BackendWebGPU && name != BackendHeadless {
		return fmt.Errorf("config: unknown backend %q", name)
	}

	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}
	instance.Rendering.Backend = name
	return nil
}

// SetLogLevel sets the log level by name
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}
	instance.Log.Level = level
}
