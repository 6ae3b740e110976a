// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	vk "github.com/devblok/vulkan"
)

const compiledShaderSuffix = ".spv"

// ShaderSource is anything that can produce compiled shader bytes by
// name. packr boxes satisfy it directly, DirSource adapts plain
// directories.
type ShaderSource interface {
	MustBytes(name string) ([]byte, error)
}

// DirSource resolves shader names against one directory on disk.
type DirSource string

// MustBytes implements ShaderSource.
func (d DirSource) MustBytes(name string) ([]byte, error) {
	return ioutil.ReadFile(filepath.Join(string(d), name))
}

// CompilerSession is the surface of the offline shader compiler the
// engine consumes: a set of ordered byte sources that are expected to
// contain SPIR-V binaries produced ahead of time.
type CompilerSession struct {
	sources []ShaderSource
}

// NewCompilerSession creates a session probing the given search paths
// in order, then any extra sources.
func NewCompilerSession(cfg ShaderConfiguration) *CompilerSession {
	sources := make([]ShaderSource, 0, len(cfg.SearchPaths)+len(cfg.ExtraSources))
	for _, path := range cfg.SearchPaths {
		sources = append(sources, DirSource(path))
	}
	sources = append(sources, cfg.ExtraSources...)
	return &CompilerSession{sources: sources}
}

// Load resolves a shader by name across the session sources and
// returns its SPIR-V bytes. The compiled suffix is appended when the
// name does not carry it. Absence in every source is reported as
// ErrShaderNotFound so callers can degrade gracefully.
func (s *CompilerSession) Load(name string) ([]byte, error) {
	if !strings.HasSuffix(name, compiledShaderSuffix) {
		name = name + compiledShaderSuffix
	}

	for _, source := range s.sources {
		data, err := source.MustBytes(name)
		if err != nil {
			continue
		}
		if len(data) == 0 || len(data)%4 != 0 {
			return nil, fmt.Errorf("shader %s: malformed SPIR-V binary (%d bytes)", name, len(data))
		}
		return data, nil
	}
	return nil, ErrShaderNotFound
}

// LoadShaderModule loads a compiled shader through the session and
// wraps it in a Vulkan shader module.
func LoadShaderModule(name string, device vk.Device, session *CompilerSession) (vk.ShaderModule, error) {
	data, err := session.Load(name)
	if err != nil {
		return vk.NullShaderModule, err
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    SliceUint32(data),
	}

	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &module)); err != nil {
		return vk.NullShaderModule, errors.New("vk.CreateShaderModule(): " + err.Error())
	}
	return module, nil
}
