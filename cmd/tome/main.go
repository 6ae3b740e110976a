// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"runtime"

	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/tome/core"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Optional .env next to the binary, environment wins over it.
	_ = godotenv.Load()

	cfg := core.FromEnvironment()
	cfg.Shaders.ExtraSources = append(cfg.Shaders.ExtraSources, packr.NewBox("./shaders"))

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.WithError(err).Fatal("sdl.Init() failed")
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		log.WithError(err).Fatal("sdl.VulkanLoadLibrary() failed, no Vulkan support")
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := newWindow("Tome", cfg.Renderer)
	if err != nil {
		log.WithError(err).Fatal("window creation failed")
	}
	defer window.Destroy()

	engine, err := core.NewEngine(window, cfg)
	if err != nil {
		log.WithError(err).Fatal("engine construction failed")
	}
	defer engine.Cleanup()

	if err := engine.Init(); err != nil {
		log.WithError(err).Error("engine initialisation failed")
		return
	}

	if err := engine.Run(); err != nil {
		log.WithError(err).Fatal("frame loop aborted")
	}
}
