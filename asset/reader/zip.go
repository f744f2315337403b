package reader

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/achilleasa/sculptree/asset"
	"github.com/achilleasa/sculptree/log"
	"github.com/achilleasa/sculptree/mesh"
)

var ErrNoMeshInArchive = errors.New("reader: archive does not contain an .obj file")

// zipMeshReader loads the first wavefront file stored in a zip archive.
// Files referenced by "call" records are resolved against the archive.
type zipMeshReader struct {
	logger log.Logger
}

func newZipMeshReader() *zipMeshReader {
	return &zipMeshReader{
		logger: log.New("zip reader"),
	}
}

// Read mesh definition from zip file.
func (p *zipMeshReader) Read(res *asset.Resource) (*mesh.Mesh, error) {
	p.logger.Noticef(`loading mesh archive "%s"`, res.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(res)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := make(map[string]*zip.File, len(zr.File))
	var objFile *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files[path.Clean(f.Name)] = f
		if objFile == nil && strings.EqualFold(path.Ext(f.Name), ".obj") {
			objFile = f
		}
	}
	if objFile == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMeshInArchive, res.Path())
	}

	open := func(name string, relTo *asset.Resource) (*asset.Resource, error) {
		if relTo != nil {
			name = path.Join(path.Dir(relTo.Path()), name)
		}
		f, exists := files[path.Clean(name)]
		if !exists {
			return nil, fmt.Errorf("file %q not found in archive", name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		return asset.NewResourceFromReadCloser(path.Clean(name), rc), nil
	}

	objRes, err := open(objFile.Name, nil)
	if err != nil {
		return nil, err
	}
	defer objRes.Close()

	wr := newWavefrontReader()
	wr.open = open
	m, err := wr.Read(objRes)
	if err != nil {
		return nil, err
	}

	p.logger.Noticef("loaded mesh in %d ms", time.Since(start).Nanoseconds()/1000000)
	return m, nil
}
