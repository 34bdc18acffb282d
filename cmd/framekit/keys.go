package main

import (
	"framekit/internal/app"
	"framekit/internal/logging"
	"framekit/internal/window"
)

// keys maps window keys onto application actions.
type keys struct {
	app *app.App
}

func (k keys) KeyDown(key int) {
	switch key {
	case window.KeyEscape:
		k.app.Quit()
	case window.KeyF11:
		k.app.ToggleFullscreen()
	case window.KeyUp:
		logging.Logger().Debug("spin", "degrees_per_frame", k.app.AdjustSpin(app.SpinStep))
	case window.KeyDown:
		logging.Logger().Debug("spin", "degrees_per_frame", k.app.AdjustSpin(-app.SpinStep))
	}
}

func (keys) KeyUp(int) {}

var _ window.KeyHandler = keys{}
