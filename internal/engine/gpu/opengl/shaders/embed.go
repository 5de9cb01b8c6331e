// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// SceneVertexShader is the vertex shader shared by every scene object.
//
//go:embed scene.vert
var SceneVertexShader string

// SceneFragmentShader is the two-point-light fragment shader.
//
//go:embed scene.frag
var SceneFragmentShader string
