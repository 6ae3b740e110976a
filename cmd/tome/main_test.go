// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"testing"

	"github.com/gobuffalo/packr"

	"github.com/devblok/tome/core"
)

// The shipped box must carry the compiled background shader, not just
// its source, or every binary starts with the compute pass disabled.
func TestEmbeddedShaderBoxServesGradient(t *testing.T) {
	session := core.NewCompilerSession(core.ShaderConfiguration{
		ExtraSources: []core.ShaderSource{packr.NewBox("./shaders")},
	})

	data, err := session.Load("gradient")
	if err != nil {
		t.Fatalf("Load: %s", err.Error())
	}

	if len(data) < 20 || len(data)%4 != 0 {
		t.Fatalf("embedded binary malformed: %d bytes", len(data))
	}
	magic := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	if magic != 0x07230203 {
		t.Errorf("expected a SPIR-V binary, got magic 0x%08x", magic)
	}
}
