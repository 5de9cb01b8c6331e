package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// lightLocations holds uniform locations for one uLights[i] element.
type lightLocations struct {
	position    int32
	color       int32
	shininess   int32
	attenuation int32
}

// programLocations caches every uniform location of the scene shader.
type programLocations struct {
	mvp             int32
	world           int32
	normal          int32
	ambient         int32
	lightMultiplier int32
	viewPosition    int32
	texture         int32
	lights          [2]lightLocations
}

func lookupLocations(program uint32) *programLocations {
	locs := &programLocations{
		mvp:             getUniform(program, "uMVP"),
		world:           getUniform(program, "uWorld"),
		normal:          getUniform(program, "uNormal"),
		ambient:         getUniform(program, "uAmbient"),
		lightMultiplier: getUniform(program, "uLightMultiplier"),
		viewPosition:    getUniform(program, "uViewPosition"),
		texture:         getUniform(program, "uTexture"),
	}
	for i := range locs.lights {
		prefix := fmt.Sprintf("uLights[%d].", i)
		locs.lights[i] = lightLocations{
			position:    getUniform(program, prefix+"position"),
			color:       getUniform(program, prefix+"color"),
			shininess:   getUniform(program, prefix+"shininess"),
			attenuation: getUniform(program, prefix+"attenuation"),
		}
	}
	return locs
}

// compileProgram compiles vertex and fragment shaders and links them into a program.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
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
		return 0, fmt.Errorf("link: %s", string(log))
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
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// getUniform returns the uniform location for the given name, or -1 if the
// uniform is inactive.
func getUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
