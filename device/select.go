// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"

	vk "github.com/devblok/vulkan"
)

// ErrNoSuitableDevice is returned when no enumerated physical device
// can drive the engine's presentation queue.
var ErrNoSuitableDevice = errors.New("no suitable physical device found")

// Suitable checks whether the device can present to the surface and
// run graphics work. The returned string names the first missing
// capability when it cannot.
func Suitable(gpu vk.PhysicalDevice, surface vk.Surface) (bool, string) {
	if !hasExtension(gpu, vk.KhrSwapchainExtensionName) {
		return false, "missing " + vk.KhrSwapchainExtensionName
	}
	if _, err := GraphicsQueueFamily(gpu, surface); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Select returns the first suitable device from the list.
func Select(devices []vk.PhysicalDevice, surface vk.Surface) (vk.PhysicalDevice, error) {
	for _, gpu := range devices {
		if ok, _ := Suitable(gpu, surface); ok {
			return gpu, nil
		}
	}
	return nil, ErrNoSuitableDevice
}

// GraphicsQueueFamily finds a queue family that supports both
// graphics work and presentation to the given surface.
func GraphicsQueueFamily(gpu vk.PhysicalDevice, surface vk.Surface) (uint32, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return 0, errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queue families on GPU")
	}
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &queueFamilyCount, queueFamilies)

	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if queueFamilies[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}

		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, surface, &supportsPresent)
		if supportsPresent.B() {
			return i, nil
		}
	}
	return 0, errors.New("no queue family with graphics and present support")
}

func hasExtension(gpu vk.PhysicalDevice, name string) bool {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)); err != nil {
		return false
	}
	extensions := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, extensions)); err != nil {
		return false
	}
	for _, ext := range extensions {
		ext.Deref()
		if vk.ToString(ext.ExtensionName[:]) == name {
			return true
		}
	}
	return false
}
