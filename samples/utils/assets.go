package utils

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/packr"
	"golang.org/x/sync/errgroup"
)

// The compiled .spv files are checked in next to their GLSL; these regenerate
// them after a shader edit.
//
//go:generate glslc ../../assets/shaders/triangle.vert -o ../../assets/shaders/triangle.vert.spv
//go:generate glslc ../../assets/shaders/triangle.frag -o ../../assets/shaders/triangle.frag.spv
//go:generate glslc ../../assets/shaders/textured.vert -o ../../assets/shaders/textured.vert.spv
//go:generate glslc ../../assets/shaders/textured.frag -o ../../assets/shaders/textured.frag.spv

// Assets holds the compiled shaders and the default model.
var Assets = packr.NewBox("../../assets")

type AssetRequest struct {
	// Shader names the shaders/<Shader>.vert.spv and .frag.spv pair.
	Shader  string
	Texture bool
	Model   bool
}

type SampleAssets struct {
	VertexShader   []byte
	FragmentShader []byte
	Texture        image.Image
	Vertices       []Vertex
	Indices        []uint32
}

// LoadAssets reads the requested shaders, texture and model concurrently.
func LoadAssets(config Config, request AssetRequest) (*SampleAssets, error) {
	assets := &SampleAssets{}
	var group errgroup.Group

	if request.Shader != "" {
		group.Go(func() error {
			var err error
			assets.VertexShader, err = Assets.Find("shaders/" + request.Shader + ".vert.spv")
			return errors.Wrapf(err, "load %s vertex shader", request.Shader)
		})
		group.Go(func() error {
			var err error
			assets.FragmentShader, err = Assets.Find("shaders/" + request.Shader + ".frag.spv")
			return errors.Wrapf(err, "load %s fragment shader", request.Shader)
		})
	}

	if request.Texture {
		group.Go(func() error {
			var err error
			assets.Texture, err = LoadTexture(config.TexturePath)
			return err
		})
	}

	if request.Model {
		group.Go(func() error {
			var err error
			assets.Vertices, assets.Indices, err = LoadModel(config.ModelPath)
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// LoadModel decodes a Wavefront OBJ file, picking up a .mtl file of the same
// name when there is one. An empty path loads the bundled cube.
func LoadModel(path string) ([]Vertex, []uint32, error) {
	if path == "" {
		data, err := Assets.Find("models/cube.obj")
		if err != nil {
			return nil, nil, errors.Wrap(err, "load bundled model")
		}
		return DecodeMesh(data, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read model")
	}

	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	mtl, err := os.Open(mtlPath)
	if err != nil {
		return DecodeMesh(data, nil)
	}
	defer mtl.Close()

	return DecodeMesh(data, mtl)
}
