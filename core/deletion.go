// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	vk "github.com/devblok/vulkan"
)

// ResourceKind identifies the Vulkan handle type held by a deletion
// queue entry, so entries can be dispatched to the right destroy call
// and inspected in tests.
type ResourceKind int

// Resource kinds the engine defers destruction for.
const (
	ResourcePipeline ResourceKind = iota
	ResourcePipelineLayout
	ResourceDescriptorPool
	ResourceDescriptorSetLayout
	ResourceShaderModule
	ResourceImageView
	ResourceImage
	ResourceDeviceMemory
	ResourceSampler
)

// DeletionItem is one deferred destruction entry.
type DeletionItem struct {
	Kind   ResourceKind
	Handle interface{}
}

// DeletionQueue collects Vulkan handles whose destruction must be
// deferred until the GPU work referencing them has retired. Flush
// destroys entries in reverse-of-push order, so dependent resources
// acquired later are destroyed before what they depend on. Callers
// must wait on the relevant fence (or device idle) before flushing.
type DeletionQueue struct {
	items   []DeletionItem
	destroy func(DeletionItem)
}

// NewDeletionQueue creates a queue whose entries destroy against the
// given device when flushed.
func NewDeletionQueue(device vk.Device) *DeletionQueue {
	return &DeletionQueue{destroy: deviceDestroyer(device)}
}

// Push appends a deferred destruction entry.
func (q *DeletionQueue) Push(kind ResourceKind, handle interface{}) {
	q.items = append(q.items, DeletionItem{Kind: kind, Handle: handle})
}

// Flush destroys all pending entries, last pushed first, and empties
// the queue.
func (q *DeletionQueue) Flush() {
	for i := len(q.items) - 1; i >= 0; i-- {
		q.destroy(q.items[i])
	}
	q.items = q.items[:0]
}

// Len returns the number of pending entries.
func (q *DeletionQueue) Len() int {
	return len(q.items)
}

// Items returns the pending entries in push order.
func (q *DeletionQueue) Items() []DeletionItem {
	out := make([]DeletionItem, len(q.items))
	copy(out, q.items)
	return out
}

func deviceDestroyer(device vk.Device) func(DeletionItem) {
	return func(item DeletionItem) {
		switch item.Kind {
		case ResourcePipeline:
			vk.DestroyPipeline(device, item.Handle.(vk.Pipeline), nil)
		case ResourcePipelineLayout:
			vk.DestroyPipelineLayout(device, item.Handle.(vk.PipelineLayout), nil)
		case ResourceDescriptorPool:
			vk.DestroyDescriptorPool(device, item.Handle.(vk.DescriptorPool), nil)
		case ResourceDescriptorSetLayout:
			vk.DestroyDescriptorSetLayout(device, item.Handle.(vk.DescriptorSetLayout), nil)
		case ResourceShaderModule:
			vk.DestroyShaderModule(device, item.Handle.(vk.ShaderModule), nil)
		case ResourceImageView:
			vk.DestroyImageView(device, item.Handle.(vk.ImageView), nil)
		case ResourceImage:
			vk.DestroyImage(device, item.Handle.(vk.Image), nil)
		case ResourceDeviceMemory:
			vk.FreeMemory(device, item.Handle.(vk.DeviceMemory), nil)
		case ResourceSampler:
			vk.DestroySampler(device, item.Handle.(vk.Sampler), nil)
		}
	}
}
