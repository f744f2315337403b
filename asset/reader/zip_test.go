package reader

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/asset"
)

func zipPayload(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipMeshReader(t *testing.T) {
	files := map[string]string{
		"README":               "not a mesh",
		"models/plane.obj":     "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\ncall parts/tri.obj\n",
		"models/parts/tri.obj": "v 2 0 0\nv 3 0 0\nv 3 1 0\nf 1 2 3\n",
	}
	data := zipPayload(t, files, "README", "models/plane.obj", "models/parts/tri.obj")

	m, err := newZipMeshReader().Read(asset.NewResourceFromStream("meshes.zip", bytes.NewReader(data)))
	require.NoError(t, err)
	require.Equal(t, 7, m.NumVerts())
	require.Equal(t, 2, m.NumPolys())
	require.Equal(t, []int{4, 5, 6}, m.PolyVerts(1))

	// ReadMesh selects the zip reader by extension.
	path := filepath.Join(t.TempDir(), "meshes.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	m, err = ReadMesh(path)
	require.NoError(t, err)
	require.Equal(t, 2, m.NumPolys())
}

func TestZipMeshReaderErrors(t *testing.T) {
	data := zipPayload(t, map[string]string{"README": "nothing here"}, "README")
	_, err := newZipMeshReader().Read(asset.NewResourceFromStream("empty.zip", bytes.NewReader(data)))
	require.ErrorIs(t, err, ErrNoMeshInArchive)

	data = zipPayload(t, map[string]string{"a.obj": "call missing.obj\n"}, "a.obj")
	_, err = newZipMeshReader().Read(asset.NewResourceFromStream("broken.zip", bytes.NewReader(data)))
	require.Error(t, err)
	require.Contains(t, err.Error(), `[a.obj: 1] error: file "missing.obj" not found in archive`)

	_, err = newZipMeshReader().Read(asset.NewResourceFromStream("junk.zip", bytes.NewReader([]byte("junk"))))
	require.Error(t, err)
}
