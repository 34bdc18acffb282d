package main

import (
	"testing"

	"framekit/internal/app"
	"framekit/internal/config"
	"framekit/internal/window"
)

func TestKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rendering.Backend = config.BackendHeadless
	application, err := open(cfg, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer application.Cleanup()
	k := keys{application}

	k.KeyDown(window.KeyUp)
	k.KeyDown(window.KeyUp)
	k.KeyDown(window.KeyDown)
	if got := application.Frames().Spin(); got != app.SpinStep {
		t.Errorf("spin = %g, want %g", got, app.SpinStep)
	}

	k.KeyDown(window.KeyF11)
	if !application.Frames().Device().SwapChain().Fullscreen() {
		t.Error("F11 did not enter full screen")
	}

	k.KeyDown(window.KeyEscape)
	if err := application.Run(); err != nil {
		t.Fatal(err)
	}
	if n := application.Frames().Frames(); n != 0 {
		t.Errorf("drew %d frames after Escape", n)
	}
}
