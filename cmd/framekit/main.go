package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"framekit/internal/app"
	"framekit/internal/config"
	"framekit/internal/gpu/headless"
	"framekit/internal/gpu/webgpu"
	"framekit/internal/logging"
	"framekit/internal/window"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "configuration file (.json, .yaml or .yml)")
	saveConfig := flag.String("save-config", "", "write the effective configuration to this file and exit")
	variant := flag.String("variant", "", "shader program: color, texture or light")
	backend := flag.String("backend", "", "GPU backend: webgpu or headless")
	frames := flag.Int("frames", 0, "stop after this many frames (0 runs until the window closes)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	// Reads framekit.json from the working directory when present.
	config.Get()
	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			return err
		}
	}
	if *variant != "" {
		if err := config.SetVariant(*variant); err != nil {
			return err
		}
	}
	if *backend != "" {
		if err := config.SetBackend(*backend); err != nil {
			return err
		}
	}
	if *verbose {
		config.SetLogLevel("debug")
	}
	cfg := config.Snapshot()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *saveConfig != "" {
		return config.Save(*saveConfig)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	application, err := open(&cfg, *frames)
	if err != nil {
		return err
	}
	defer application.Cleanup()

	return application.Run()
}

// open creates the backend cfg names and starts the application on it.
func open(cfg *config.Config, frames int) (*app.App, error) {
	opts := []app.Option{app.WithFrameLimit(frames)}

	switch cfg.Rendering.Backend {
	case config.BackendHeadless:
		win := &headless.Window{Width: cfg.Window.Width, Height: cfg.Window.Height}
		return app.New(headless.New(headless.Options{}), win, cfg, opts...)

	case config.BackendWebGPU:
		// glfw and the swap chain must stay on the main thread.
		runtime.LockOSThread()

		win, err := window.New(window.Options{
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Title:  cfg.Window.Title,
		})
		if err != nil {
			return nil, fmt.Errorf("window creation failed: %w", err)
		}
		b, err := webgpu.New(win)
		if err != nil {
			win.Destroy()
			return nil, err
		}
		opts = append(opts,
			app.WithSurface(win),
			app.WithRelease(func() {
				b.Release()
				win.Destroy()
			}))

		application, err := app.New(b, win, cfg, opts...)
		if err != nil {
			return nil, err
		}
		win.SetKeyHandler(keys{application})

		fmt.Println("framekit - WebGPU")
		fmt.Println("Controls:")
		fmt.Println("  Up / Down : Spin faster / slower")
		fmt.Println("  F11       : Toggle full screen")
		fmt.Println("  Escape    : Exit")
		fmt.Println()
		return application, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Rendering.Backend)
}
