// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	vk "github.com/devblok/vulkan"
)

var frameLayoutPairs = []struct {
	name string
	old  vk.ImageLayout
	new  vk.ImageLayout
}{
	{"undefined to general", vk.ImageLayoutUndefined, vk.ImageLayoutGeneral},
	{"general to transfer src", vk.ImageLayoutGeneral, vk.ImageLayoutTransferSrcOptimal},
	{"undefined to transfer dst", vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal},
	{"transfer dst to present", vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutPresentSrc},
}

func TestTransitionMasksAreIdempotent(t *testing.T) {
	for _, pair := range frameLayoutPairs {
		t.Run(pair.name, func(t *testing.T) {
			first := transitionMasks(pair.old, pair.new)
			second := transitionMasks(pair.old, pair.new)
			if first != second {
				t.Errorf("masks differ across calls: %+v vs %+v", first, second)
			}
		})
	}
}

func TestTransitionMasksCoverFramePairs(t *testing.T) {
	fallback := transitionMasks(vk.ImageLayoutGeneral, vk.ImageLayoutGeneral)

	for _, pair := range frameLayoutPairs {
		masks := transitionMasks(pair.old, pair.new)
		if masks == fallback {
			t.Errorf("%s: fell through to the conservative full barrier", pair.name)
		}
	}
}

func TestTransitionMaskStagesAreOrdered(t *testing.T) {
	// The compute write must be visible before the transfer read.
	masks := transitionMasks(vk.ImageLayoutGeneral, vk.ImageLayoutTransferSrcOptimal)

	if masks.srcStage != vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit) {
		t.Errorf("expected compute shader source stage, got %v", masks.srcStage)
	}
	if masks.dstStage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) {
		t.Errorf("expected transfer destination stage, got %v", masks.dstStage)
	}
	if masks.srcAccess&vk.AccessFlags(vk.AccessShaderWriteBit) == 0 {
		t.Error("shader writes are not flushed by the barrier")
	}
	if masks.dstAccess&vk.AccessFlags(vk.AccessTransferReadBit) == 0 {
		t.Error("transfer reads are not made visible by the barrier")
	}
}

func TestBlitRegionEqualExtentsIsOneToOne(t *testing.T) {
	extent := vk.Extent2D{Width: 800, Height: 600}
	region := blitRegion(extent, extent)

	if region.SrcOffsets != region.DstOffsets {
		t.Errorf("equal extents must map 1:1, got src %+v dst %+v", region.SrcOffsets, region.DstOffsets)
	}
	if region.SrcOffsets[1].X != 800 || region.SrcOffsets[1].Y != 600 || region.SrcOffsets[1].Z != 1 {
		t.Errorf("region does not span the whole image: %+v", region.SrcOffsets[1])
	}
}

func TestBlitRegionScales(t *testing.T) {
	region := blitRegion(
		vk.Extent2D{Width: 1700, Height: 900},
		vk.Extent2D{Width: 800, Height: 600},
	)

	if region.SrcOffsets[1].X != 1700 || region.SrcOffsets[1].Y != 900 {
		t.Errorf("source region truncated: %+v", region.SrcOffsets[1])
	}
	if region.DstOffsets[1].X != 800 || region.DstOffsets[1].Y != 600 {
		t.Errorf("destination region truncated: %+v", region.DstOffsets[1])
	}
	if region.SrcOffsets[0] != (vk.Offset3D{}) || region.DstOffsets[0] != (vk.Offset3D{}) {
		t.Error("regions must start at the image origin")
	}
}
