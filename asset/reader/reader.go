package reader

import (
	"errors"
	"fmt"

	"github.com/achilleasa/sculptree/asset"
	"github.com/achilleasa/sculptree/mesh"
)

var ErrUnsupportedFormat = errors.New("reader: unsupported mesh file format")

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read a mesh from a resource.
	Read(*asset.Resource) (*mesh.Mesh, error)
}

// Read a mesh from a local file or http/https URL.
func ReadMesh(filename string) (*mesh.Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader()
	case ".zip":
		reader = newZipMeshReader()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, res.Ext())
	}
	return reader.Read(res)
}
