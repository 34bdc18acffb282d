package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 || !cfg.Window.VSync || cfg.Window.Fullscreen {
		t.Errorf("window defaults = %+v", cfg.Window)
	}
	if cfg.Scene.CameraPosition != [3]float32{0, 0, -5} {
		t.Errorf("camera position = %v", cfg.Scene.CameraPosition)
	}
	if cfg.Scene.LightColor != [4]float32{1, 0, 1, 1} || cfg.Scene.LightDirection != [3]float32{0, 0, 1} {
		t.Errorf("light = %v %v", cfg.Scene.LightColor, cfg.Scene.LightDirection)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"cfg.json", `{"window": {"width": 1024, "height": 768}, "scene": {"variant": "texture", "spin_degrees_per_frame": 1.5}}`},
		{"cfg.yaml", "window:\n  width: 1024\n  height: 768\nscene:\n  variant: texture\n  spin_degrees_per_frame: 1.5\n"},
		{"cfg.YML", "window: {width: 1024, height: 768}\nscene: {variant: texture, spin_degrees_per_frame: 1.5}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if err := Load(path); err != nil {
				t.Fatalf("Load: %v", err)
			}
			cfg := Snapshot()
			if cfg.Window.Width != 1024 || cfg.Window.Height != 768 {
				t.Errorf("size = %dx%d", cfg.Window.Width, cfg.Window.Height)
			}
			if cfg.Scene.Variant != "texture" {
				t.Errorf("variant = %q", cfg.Scene.Variant)
			}
			if cfg.Scene.SpinDegreesPerFrame != 1.5 {
				t.Errorf("spin = %v", cfg.Scene.SpinDegreesPerFrame)
			}
			// Fields absent from the file keep their defaults.
			if !cfg.Window.VSync || cfg.Rendering.ScreenDepth != 1000 {
				t.Errorf("defaults lost: %+v", cfg)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"size", `{"window": {"width": 0}}`, "window size"},
		{"near", `{"rendering": {"screen_near": 10, "screen_depth": 5}}`, "screen near"},
		{"backend", `{"rendering": {"backend": "vulkan"}}`, "backend"},
		{"variant", `{"scene": {"variant": "phong"}}`, "variant"},
		{"level", `{"log": {"level": "loud"}}`, "level"},
		{"spin", `{"scene": {"spin_degrees_per_frame": 90}}`, "spin"},
		{"syntax", `{"window": `, "cfg.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			path := filepath.Join(dir, "cfg.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
			// A rejected file leaves the configuration untouched.
			if got := Snapshot(); got != *DefaultConfig() {
				t.Errorf("config changed: %+v", got)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.json")); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			Reset()
			if err := SetVariant("COLOR"); err != nil {
				t.Fatal(err)
			}
			SetLogLevel("warn")
			want := Snapshot()

			path := filepath.Join(dir, name)
			if err := Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}
			Reset()
			if err := Load(path); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := Snapshot(); got != want {
				t.Errorf("round trip:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestSetters(t *testing.T) {
	Reset()
	if err := SetVariant("Texture"); err != nil {
		t.Fatal(err)
	}
	if got := Snapshot().Scene.Variant; got != "texture" {
		t.Errorf("variant = %q", got)
	}
	if err := SetVariant("phong"); err == nil {
		t.Error("SetVariant accepted an unknown variant")
	}
	if err := SetBackend("HEADLESS"); err != nil {
		t.Fatal(err)
	}
	if got := Snapshot().Rendering.Backend; got != BackendHeadless {
		t.Errorf("backend = %q", got)
	}
	if err := SetBackend("metal"); err == nil {
		t.Error("SetBackend accepted an unknown backend")
	}
	SetLogLevel("debug")
	if got := Snapshot().Log.Level; got != "debug" {
		t.Errorf("level = %q", got)
	}
}
