// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Shaders  ShaderConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between event pump runs,
	// in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	// Debug enables the validation layers and the debug
	// reporting extension on the instance
	Debug bool
}

// ShaderConfiguration is used to configure the shader compiler session
type ShaderConfiguration struct {
	// SearchPaths are directories probed for compiled shader
	// binaries, in order
	SearchPaths []string

	// ExtraSources are additional shader byte sources probed after
	// the search paths, such as embedded boxes
	ExtraSources []ShaderSource
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	DebugMode bool

	Extensions []string
	Layers     []string
}
