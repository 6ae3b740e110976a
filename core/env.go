// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
)

// FromEnvironment builds a Configuration from TOME_* environment
// variables, falling back to engine defaults for anything unset.
func FromEnvironment() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: envInt("TOME_FPS", 60),
			EventPollDelay:  envInt("TOME_EVENT_POLL_DELAY", 2),
		},
		Renderer: RendererConfiguration{
			ScreenWidth:  uint32(envInt("TOME_WINDOW_WIDTH", 1700)),
			ScreenHeight: uint32(envInt("TOME_WINDOW_HEIGHT", 900)),
			Debug:        envBool("TOME_DEBUG", false),
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
		},
		Shaders: ShaderConfiguration{
			SearchPaths: strings.Split(envy.Get("TOME_SHADER_PATH", "shaders"), ":"),
		},
	}
}

func envInt(key string, def int) int {
	val, err := strconv.Atoi(envy.Get(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return val
}

func envBool(key string, def bool) bool {
	val, err := strconv.ParseBool(envy.Get(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return val
}
