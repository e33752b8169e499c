package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Vertex is a model vertex
type Vertex struct {
	Pos      glm.Vec2
	Color    glm.Vec3
	TexCoord glm.Vec2
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// QuadVertices is the built-in textured quad, drawn
// counter-clockwise via QuadIndices
var QuadVertices = []Vertex{
	{Pos: glm.Vec2{-0.5, -0.5}, Color: glm.Vec3{1, 0, 0}, TexCoord: glm.Vec2{1, 0}},
	{Pos: glm.Vec2{0.5, -0.5}, Color: glm.Vec3{0, 1, 0}, TexCoord: glm.Vec2{0, 0}},
	{Pos: glm.Vec2{0.5, 0.5}, Color: glm.Vec3{0, 0, 1}, TexCoord: glm.Vec2{0, 1}},
	{Pos: glm.Vec2{-0.5, 0.5}, Color: glm.Vec3{1, 1, 1}, TexCoord: glm.Vec2{1, 1}},
}

// QuadIndices indexes QuadVertices as two triangles
var QuadIndices = []uint16{0, 1, 2, 2, 3, 0}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}
