// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"
	"time"

	vk "github.com/devblok/vulkan"
)

// The binding takes its device wait timeouts as uint; the timeout
// constant has to carry that type to be usable in both waits.
func TestGpuTimeoutMatchesDeviceWaits(t *testing.T) {
	var waitForFences func(vk.Device, uint32, []vk.Fence, vk.Bool32, uint) vk.Result = vk.WaitForFences
	var acquireNextImage func(vk.Device, vk.Swapchain, uint, vk.Semaphore, vk.Fence, *uint32) vk.Result = vk.AcquireNextImage
	_, _ = waitForFences, acquireNextImage

	if gpuTimeout != uint(time.Second) {
		t.Errorf("expected a one second bound, got %d", gpuTimeout)
	}
}
