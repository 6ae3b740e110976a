// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"unsafe"

	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
)

// computeShaderEntryPoint is the designated entry symbol every
// compiled compute shader exports.
const computeShaderEntryPoint = "main\x00"

// ComputePushConstants is the parameter block handed to the
// background compute shader each dispatch.
type ComputePushConstants struct {
	Data1 glm.Vec4
	Data2 glm.Vec4
	Data3 glm.Vec4
	Data4 glm.Vec4
}

// ComputePushConstantsSize is the byte size of the push range the
// compute pipeline layout reserves.
const ComputePushConstantsSize = uint32(unsafe.Sizeof(ComputePushConstants{}))

// buildComputePipeline creates a pipeline layout over the given
// descriptor set layouts and push ranges, then a compute pipeline
// bound to the one shader module. The module itself stays owned by
// the caller.
func buildComputePipeline(device vk.Device, setLayouts []vk.DescriptorSetLayout, module vk.ShaderModule, pushRanges []vk.PushConstantRange) (vk.PipelineLayout, vk.Pipeline, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pushRanges)),
		PPushConstantRanges:    pushRanges,
	}

	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(device, &plci, nil, &layout)); err != nil {
		return vk.NullPipelineLayout, vk.NullPipeline, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}

	cpci := []vk.ComputePipelineCreateInfo{{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageComputeBit,
			Module: module,
			PName:  computeShaderEntryPoint,
		},
		Layout: layout,
	}}

	pipelines := make([]vk.Pipeline, 1)
	if err := vk.Error(vk.CreateComputePipelines(device, vk.NullPipelineCache, 1, cpci, nil, pipelines)); err != nil {
		vk.DestroyPipelineLayout(device, layout, nil)
		return vk.NullPipelineLayout, vk.NullPipeline, errors.New("vk.CreateComputePipelines(): " + err.Error())
	}

	return layout, pipelines[0], nil
}
