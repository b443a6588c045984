//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

//go:embed shaders/spine.wgsl
var spineShaderSource string

// Shader entry points.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// ShaderSource returns the WGSL source of the tint shader.
func ShaderSource() string {
	return spineShaderSource
}

// CompileShader compiles the tint shader to SPIR-V words.
// Backends that take WGSL directly do not need this; it is used to check
// the shader compiles and by SPIR-V-only consumers.
func CompileShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(spineShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile spine shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// ShaderBinding is one resource binding declared by a shader.
type ShaderBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Space   ir.AddressSpace
}

// ShaderInfo is the reflected interface of a shader module.
type ShaderInfo struct {
	EntryPoints map[string]ir.ShaderStage
	Bindings    []ShaderBinding // sorted by (Group, Binding)
}

// ReflectShader parses, lowers and validates WGSL source and reports its
// entry points and resource bindings.
func ReflectShader(source string) (*ShaderInfo, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse shader: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lower shader: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validate shader: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validate shader: %w", verrs[0])
	}

	info := &ShaderInfo{EntryPoints: make(map[string]ir.ShaderStage, len(module.EntryPoints))}
	for _, ep := range module.EntryPoints {
		info.EntryPoints[ep.Name] = ep.Stage
	}
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		info.Bindings = append(info.Bindings, ShaderBinding{
			Name:    gv.Name,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
			Space:   gv.Space,
		})
	}
	sort.Slice(info.Bindings, func(i, j int) bool {
		a, b := info.Bindings[i], info.Bindings[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Binding < b.Binding
	})
	return info, nil
}
