// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	vk "github.com/devblok/vulkan"
)

func TestPoolSizesScaleWithRatios(t *testing.T) {
	sizes := poolSizes(10, []PoolSizeRatio{
		{Type: vk.DescriptorTypeStorageImage, Ratio: 1},
		{Type: vk.DescriptorTypeUniformBuffer, Ratio: 2.5},
		{Type: vk.DescriptorTypeCombinedImageSampler, Ratio: 0.5},
	})

	if len(sizes) != 3 {
		t.Fatalf("expected 3 pool sizes, got %d", len(sizes))
	}

	expected := []uint32{10, 25, 5}
	for idx, want := range expected {
		if sizes[idx].DescriptorCount != want {
			t.Errorf("pool size[%d]: expected %d descriptors, got %d", idx, want, sizes[idx].DescriptorCount)
		}
	}
}

func TestAllocatorExhaustsDeterministically(t *testing.T) {
	allocator := DescriptorAllocator{maxSets: 3}

	for idx := 0; idx < 3; idx++ {
		if err := allocator.reserve(); err != nil {
			t.Fatalf("reservation %d failed below capacity: %v", idx, err)
		}
	}

	if err := allocator.reserve(); err != ErrPoolExhausted {
		t.Errorf("expected ErrPoolExhausted past capacity, got %v", err)
	}

	// Failure must be sticky, the pool never grows back.
	if err := allocator.reserve(); err != ErrPoolExhausted {
		t.Errorf("expected ErrPoolExhausted to repeat, got %v", err)
	}
}

func TestAllocatorRefundsFailedAllocation(t *testing.T) {
	allocator := DescriptorAllocator{maxSets: 1}

	if err := allocator.reserve(); err != nil {
		t.Fatal(err)
	}
	// The API call behind the reservation failed, the slot comes back.
	allocator.unreserve()

	if allocator.Remaining() != 1 {
		t.Fatalf("expected the slot refunded, %d remaining", allocator.Remaining())
	}
	if err := allocator.reserve(); err != nil {
		t.Errorf("refunded slot not reusable: %v", err)
	}
}

func TestAllocatorRemaining(t *testing.T) {
	allocator := DescriptorAllocator{maxSets: 2}

	if allocator.Remaining() != 2 {
		t.Errorf("expected 2 sets remaining, got %d", allocator.Remaining())
	}
	if err := allocator.reserve(); err != nil {
		t.Fatal(err)
	}
	if allocator.Remaining() != 1 {
		t.Errorf("expected 1 set remaining, got %d", allocator.Remaining())
	}
}

func TestLayoutBuilderAppliesStages(t *testing.T) {
	var builder DescriptorLayoutBuilder
	builder.AddBinding(0, vk.DescriptorTypeStorageImage)
	builder.AddBinding(1, vk.DescriptorTypeUniformBuffer)

	if len(builder.bindings) != 2 {
		t.Fatalf("expected 2 registered bindings, got %d", len(builder.bindings))
	}
	for idx, binding := range builder.bindings {
		if binding.Binding != uint32(idx) {
			t.Errorf("binding %d registered at slot %d", idx, binding.Binding)
		}
		if binding.DescriptorCount != 1 {
			t.Errorf("binding %d: expected descriptor count 1, got %d", idx, binding.DescriptorCount)
		}
		// Stage flags are only resolved at Build time.
		if binding.StageFlags != 0 {
			t.Errorf("binding %d: stage flags set before Build", idx)
		}
	}

	builder.Clear()
	if len(builder.bindings) != 0 {
		t.Error("Clear left bindings registered")
	}
}
