// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/tome/core"
)

// engineWindow adapts an SDL window to the core.Window collaborator
// the engine consumes.
type engineWindow struct {
	win         *sdl.Window
	shouldClose bool
	resized     bool
}

func newWindow(title string, cfg core.RendererConfiguration) (*engineWindow, error) {
	win, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN)
	if err != nil {
		return nil, err
	}
	return &engineWindow{win: win}, nil
}

// InstanceExtensions implements core.Window
func (w *engineWindow) InstanceExtensions() []string {
	return w.win.VulkanGetInstanceExtensions()
}

// ProcAddr implements core.Window
func (w *engineWindow) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface implements core.Window
func (w *engineWindow) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	return w.win.VulkanCreateSurface(instance)
}

// DrawableExtent implements core.Window
func (w *engineWindow) DrawableExtent() (uint32, uint32) {
	width, height := w.win.VulkanGetDrawableSize()
	return uint32(width), uint32(height)
}

// PumpEvents implements core.Window. Only close and resize signals
// are interpreted here, everything else is dropped.
func (w *engineWindow) PumpEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.QuitEvent:
			w.shouldClose = true
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				w.shouldClose = true
			}
		case *sdl.WindowEvent:
			if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				w.resized = true
			}
		}
	}
}

// SizeChanged implements core.Window
func (w *engineWindow) SizeChanged() bool {
	resized := w.resized
	w.resized = false
	return resized
}

// ShouldClose implements core.Window
func (w *engineWindow) ShouldClose() bool {
	return w.shouldClose
}

// Destroy releases the underlying SDL window.
func (w *engineWindow) Destroy() {
	w.win.Destroy()
}
