// Package shader compiles the GLSL programs used by the bump-map passes.
package shader

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-gl/gl/v2.1/gl"
)

// Version is the GLSL version matching the compatibility context.
const Version = "#version 120"

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(string(log), "\x00"))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, strings.TrimRight(string(log), "\x00"))
	}

	return shader, nil
}

var (
	uniformMu    sync.Mutex
	uniformCache = map[uint32]map[string]int32{}
)

// UniformLocation returns the location of a uniform, or -1 if the program
// has no such active uniform. Lookups are cached per program.
func UniformLocation(program uint32, name string) int32 {
	uniformMu.Lock()
	defer uniformMu.Unlock()
	locs, ok := uniformCache[program]
	if !ok {
		locs = map[string]int32{}
		uniformCache[program] = locs
	}
	if loc, ok := locs[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	locs[name] = loc
	return loc
}

// Forget drops cached uniform locations of a deleted program.
func Forget(program uint32) {
	uniformMu.Lock()
	delete(uniformCache, program)
	uniformMu.Unlock()
}

// Build prefixes body with the version line and one #define per entry of
// defines, in name order.
func Build(body string, defines map[string]string) string {
	names := make([]string, 0, len(defines))
	for k := range defines {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('\n')
	for _, k := range names {
		if v := defines[k]; v != "" {
			fmt.Fprintf(&b, "#define %s %s\n", k, v)
		} else {
			fmt.Fprintf(&b, "#define %s\n", k)
		}
	}
	b.WriteString(strings.TrimLeft(body, "\n"))
	return b.String()
}
