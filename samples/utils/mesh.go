package utils

import (
	"bytes"
	"io"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

// TriangleVertices is the colored triangle drawn by the triangle samples:
// red at the top, green bottom right, blue bottom left when viewed straight
// on in clip space.
var TriangleVertices = []Vertex{
	{Position: mgl32.Vec3{0.0, -0.5, 0}, Color: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{0.5, 0}},
	{Position: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{1, 1}},
	{Position: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{0, 1}},
}

var TriangleIndices = []uint32{0, 1, 2}

func VertexBindingDescriptions() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func VertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.TexCoord)),
		},
	}
}

type vertexKey struct {
	position, uv int
}

// BuildMesh flattens decoded OBJ objects into an indexed triangle list.
// Polygons are fanned from their first corner and corners sharing a position
// and texture coordinate are emitted once. OBJ texture space has V pointing
// up, so V is flipped.
func BuildMesh(decoder *obj.Decoder) ([]Vertex, []uint32, error) {
	var vertices []Vertex
	var indices []uint32
	unique := make(map[vertexKey]uint32)

	addCorner := func(face *obj.Face, corner int) error {
		key := vertexKey{position: face.Vertices[corner], uv: -1}
		if corner < len(face.Uvs) {
			key.uv = face.Uvs[corner]
		}

		index, exists := unique[key]
		if !exists {
			if key.position < 0 || key.position*3+2 >= len(decoder.Vertices) {
				return errors.Newf("face references missing vertex %d", key.position)
			}

			vert := Vertex{
				Position: mgl32.Vec3{
					decoder.Vertices[key.position*3],
					decoder.Vertices[key.position*3+1],
					decoder.Vertices[key.position*3+2],
				},
				Color: mgl32.Vec3{1, 1, 1},
			}

			if key.uv >= 0 && key.uv*2+1 < len(decoder.Uvs) {
				vert.TexCoord = mgl32.Vec2{
					decoder.Uvs[key.uv*2],
					1.0 - decoder.Uvs[key.uv*2+1],
				}
			}

			index = uint32(len(vertices))
			vertices = append(vertices, vert)
			unique[key] = index
		}

		indices = append(indices, index)
		return nil
	}

	for objIndex := range decoder.Objects {
		decodedObj := &decoder.Objects[objIndex]
		for faceIndex := range decodedObj.Faces {
			face := &decodedObj.Faces[faceIndex]
			for corner := 2; corner < len(face.Vertices); corner++ {
				for _, c := range []int{0, corner - 1, corner} {
					if err := addCorner(face, c); err != nil {
						return nil, nil, err
					}
				}
			}
		}
	}

	if len(indices) == 0 {
		return nil, nil, errors.New("mesh has no faces")
	}

	return vertices, indices, nil
}

// DecodeMesh parses an OBJ document. mtl may be nil when the model has no
// material library.
func DecodeMesh(objData []byte, mtl io.Reader) ([]Vertex, []uint32, error) {
	if mtl == nil {
		mtl = bytes.NewReader(nil)
	}

	decoder, err := obj.DecodeReader(bytes.NewReader(objData), mtl)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decode obj")
	}

	return BuildMesh(decoder)
}
