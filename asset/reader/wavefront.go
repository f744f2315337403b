package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/sculptree/asset"
	"github.com/achilleasa/sculptree/log"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

// wavefrontMeshReader parses the geometry of Wavefront OBJ files. Only
// vertex positions and tri/quad faces are used; normals are recomputed from
// the geometry and all other records are ignored.
type wavefrontMeshReader struct {
	logger log.Logger

	vertexList []types.Vec3
	faceList   [][]int

	// Counts of skipped records by type.
	ignored map[string]int

	// An error stack that provides additional error information when
	// files include other files.
	errStack []string

	// Opens resources referenced by "call" records.
	open func(path string, relTo *asset.Resource) (*asset.Resource, error)
}

func newWavefrontReader() *wavefrontMeshReader {
	return &wavefrontMeshReader{
		logger:  log.New("wavefront reader"),
		ignored: make(map[string]int),
		open:    asset.NewResource,
	}
}

// Read mesh definition.
func (r *wavefrontMeshReader) Read(res *asset.Resource) (*mesh.Mesh, error) {
	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	for record, count := range r.ignored {
		r.logger.Debugf(`ignored %d "%s" records`, count, record)
	}

	m, err := mesh.New(r.vertexList, r.faceList)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Path(), err)
	}

	r.logger.Noticef("parsed %d vertices and %d faces in %d ms", m.NumVerts(), m.NumPolys(), time.Since(start).Nanoseconds()/1e6)
	return m, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontMeshReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	err := fmt.Errorf(msgFormat, args...)
	if len(r.errStack) == 0 {
		return fmt.Errorf("[%s: %d] error: %w", file, line, err)
	}
	return fmt.Errorf("[%s: %d] error: %w\n%s", file, line, err, strings.Join(r.errStack, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontMeshReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontMeshReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontMeshReader) parse(res *asset.Resource) error {
	lineNum := 0

	// Positive indices in included files are relative to the vertices
	// defined before the include.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := r.open(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%w", err)
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%w", err)
			}
			r.vertexList = append(r.vertexList, v)
		case "f":
			face, err := r.parseFace(lineTokens, relVertexOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%w", err)
			}
			r.faceList = append(r.faceList, face)
		default:
			r.ignored[lineTokens[0]]++
		}
	}
	return scanner.Err()
}

// Parse a face definition. Each face argument consists of 1, 2 or 3 indices
// separated by a slash character; only the first (vertex) index is used:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex list. Only triangular and quad faces are supported.
func (r *wavefrontMeshReader) parseFace(lineTokens []string, relVertexOffset int) ([]int, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d`, len(lineTokens)-1)
	}

	face := make([]int, 0, len(lineTokens)-1)
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		face = append(face, vOffset)
	}
	return face, nil
}

// Convert a 1-based (or negative) OBJ index into an offset in a coordinate
// list with coordListLen entries.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds", index)
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
