// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core implements the frame execution loop of the engine:
// the two-slot frame ring, the synchronization objects that let the
// CPU record one frame while the GPU executes the previous one, the
// deferred deletion queues that stand in for garbage collection of
// Vulkan handles, and the descriptor and pipeline objects needed to
// run the background compute pass.
package core

import (
	"errors"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

// package errors
var (
	// ErrEngineExists is returned when a second Engine is constructed
	// while another one is still alive in the process.
	ErrEngineExists = errors.New("an engine instance already exists")

	// ErrNotInitialised is returned by operations that need a fully
	// initialised engine, typically after Init failed or was skipped.
	ErrNotInitialised = errors.New("engine is not initialised")

	// ErrPoolExhausted is returned by the descriptor allocator once
	// the configured set capacity has been handed out.
	ErrPoolExhausted = errors.New("descriptor pool capacity exhausted")

	// ErrShaderNotFound is returned by the compiler session when a
	// compiled shader binary is present in none of its sources.
	ErrShaderNotFound = errors.New("compiled shader not found in any source")
)

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// Extensions returns available instance extensions
	Extensions() []string

	// Inner returns the inner handle of the underlying API
	Inner() interface{}

	// Destroy destroys internal members
	Destroy()
}

// Window is the windowing collaborator of the engine. The engine only
// consumes a surface, an extent and a close signal from it; input
// events are not interpreted here.
type Window interface {
	// InstanceExtensions returns the instance extensions the
	// windowing backend needs enabled
	InstanceExtensions() []string

	// ProcAddr returns the vkGetInstanceProcAddr loader entry point
	ProcAddr() unsafe.Pointer

	// CreateSurface creates a presentation surface against the
	// given API instance handle
	CreateSurface(instance interface{}) (unsafe.Pointer, error)

	// DrawableExtent returns the current framebuffer size in pixels
	DrawableExtent() (uint32, uint32)

	// PumpEvents runs one iteration of the windowing event pump
	PumpEvents()

	// SizeChanged reports whether the drawable size changed since the
	// last call and clears the signal
	SizeChanged() bool

	// ShouldClose reports whether a close of the window was requested
	ShouldClose() bool
}
