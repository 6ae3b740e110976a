// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	vk "github.com/devblok/vulkan"
)

// FrameOverlap is the number of frame slots the CPU rotates through.
// With two slots the CPU records frame N+1 while the GPU still
// executes frame N.
const FrameOverlap = 2

// FrameData is one slot of the frame ring: an exclusively owned
// command recording context, the two semaphores ordering acquire and
// present against rendering, the retirement fence and the slot local
// deletion queue. None of it may be reused before the fence is seen
// signaled on the CPU.
type FrameData struct {
	commandPool       vk.CommandPool
	mainCommandBuffer vk.CommandBuffer

	swapchainSemaphore vk.Semaphore
	renderSemaphore    vk.Semaphore
	renderFence        vk.Fence

	deletionQueue *DeletionQueue
}

// frameRing is the array backed rotation over the frame slots.
type frameRing struct {
	frames [FrameOverlap]FrameData
	index  int
}

func (r *frameRing) current() *FrameData {
	return &r.frames[r.index]
}

func (r *frameRing) advance() {
	r.index = (r.index + 1) % FrameOverlap
}

// initCommands creates one resettable command pool and one primary
// command buffer per frame slot.
func (e *Engine) initCommands() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: e.graphicsQueueFamily,
	}

	for i := range e.ring.frames {
		frame := &e.ring.frames[i]

		if err := vk.Error(vk.CreateCommandPool(e.device, &cpci, nil, &frame.commandPool)); err != nil {
			return errors.New("vk.CreateCommandPool(): " + err.Error())
		}

		cbai := vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        frame.commandPool,
			Level:              vk.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		}

		commandBuffers := make([]vk.CommandBuffer, 1)
		if err := vk.Error(vk.AllocateCommandBuffers(e.device, &cbai, commandBuffers)); err != nil {
			return errors.New("vk.AllocateCommandBuffers(): " + err.Error())
		}
		frame.mainCommandBuffer = commandBuffers[0]
	}
	return nil
}

// initSyncStructures creates the per slot semaphores and the
// retirement fence. The fence starts signaled so the very first wait
// on a fresh slot passes immediately.
func (e *Engine) initSyncStructures() error {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	for i := range e.ring.frames {
		frame := &e.ring.frames[i]

		if err := vk.Error(vk.CreateFence(e.device, &fci, nil, &frame.renderFence)); err != nil {
			return errors.New("vk.CreateFence(): " + err.Error())
		}
		if err := vk.Error(vk.CreateSemaphore(e.device, &sci, nil, &frame.swapchainSemaphore)); err != nil {
			return errors.New("vk.CreateSemaphore(): " + err.Error())
		}
		if err := vk.Error(vk.CreateSemaphore(e.device, &sci, nil, &frame.renderSemaphore)); err != nil {
			return errors.New("vk.CreateSemaphore(): " + err.Error())
		}

		frame.deletionQueue = NewDeletionQueue(e.device)
	}
	return nil
}

// destroyFrameData releases every frame slot's owned objects and
// flushes its deletion queue. Only called after device idle.
func (e *Engine) destroyFrameData() {
	for i := range e.ring.frames {
		frame := &e.ring.frames[i]

		vk.DestroyCommandPool(e.device, frame.commandPool, nil)
		vk.DestroyFence(e.device, frame.renderFence, nil)
		vk.DestroySemaphore(e.device, frame.renderSemaphore, nil)
		vk.DestroySemaphore(e.device, frame.swapchainSemaphore, nil)

		if frame.deletionQueue != nil {
			frame.deletionQueue.Flush()
		}
	}
}
