// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// mapSource serves shaders out of memory, standing in for a packr box.
type mapSource map[string][]byte

func (m mapSource) MustBytes(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, errors.New("file does not exist")
	}
	return data, nil
}

var gradientSpv = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func TestSessionAppendsCompiledSuffix(t *testing.T) {
	session := &CompilerSession{sources: []ShaderSource{
		mapSource{"gradient.spv": gradientSpv},
	}}

	data, err := session.Load("gradient")
	if err != nil {
		t.Fatalf("Load: %s", err.Error())
	}
	if len(data) != len(gradientSpv) {
		t.Errorf("expected %d bytes, got %d", len(gradientSpv), len(data))
	}
}

func TestSessionKeepsExplicitSuffix(t *testing.T) {
	session := &CompilerSession{sources: []ShaderSource{
		mapSource{"gradient.spv": gradientSpv},
	}}

	if _, err := session.Load("gradient.spv"); err != nil {
		t.Errorf("Load: %s", err.Error())
	}
}

func TestSessionProbesSourcesInOrder(t *testing.T) {
	first := mapSource{"gradient.spv": gradientSpv}
	second := mapSource{"gradient.spv": []byte{0xde, 0xad, 0xbe, 0xef}}

	session := &CompilerSession{sources: []ShaderSource{first, second}}

	data, err := session.Load("gradient")
	if err != nil {
		t.Fatalf("Load: %s", err.Error())
	}
	if data[0] != gradientSpv[0] {
		t.Error("later source shadowed an earlier one")
	}
}

func TestSessionFallsThroughMissingSources(t *testing.T) {
	session := &CompilerSession{sources: []ShaderSource{
		mapSource{},
		mapSource{"sky.spv": gradientSpv},
	}}

	if _, err := session.Load("sky"); err != nil {
		t.Errorf("Load: %s", err.Error())
	}
}

func TestSessionReportsMissingShader(t *testing.T) {
	session := NewCompilerSession(ShaderConfiguration{
		ExtraSources: []ShaderSource{mapSource{}},
	})

	if _, err := session.Load("nonexistent"); err != ErrShaderNotFound {
		t.Errorf("expected ErrShaderNotFound, got %v", err)
	}
}

func TestSessionRejectsMalformedBinary(t *testing.T) {
	session := &CompilerSession{sources: []ShaderSource{
		mapSource{"broken.spv": {0x01, 0x02, 0x03}},
	}}

	_, err := session.Load("broken")
	if err == nil || err == ErrShaderNotFound {
		t.Errorf("expected a malformed binary error, got %v", err)
	}
}

func TestDirSourceReadsFromDisk(t *testing.T) {
	dir, err := ioutil.TempDir("", "tome-shaders")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	if err := ioutil.WriteFile(filepath.Join(dir, "gradient.spv"), gradientSpv, 0644); err != nil {
		t.Fatal(err)
	}

	session := NewCompilerSession(ShaderConfiguration{
		SearchPaths: []string{dir},
	})

	data, err := session.Load("gradient")
	if err != nil {
		t.Fatalf("Load: %s", err.Error())
	}
	if len(data) != len(gradientSpv) {
		t.Errorf("expected %d bytes, got %d", len(gradientSpv), len(data))
	}
}
