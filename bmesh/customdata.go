package bmesh

import (
	"math"
)

// LayerType describes how the 32 bits of a custom data slot are interpreted.
type LayerType uint8

// The supported layer types.
const (
	LayerInt LayerType = iota
	LayerFloat
)

// A Layer is a named slot inside each element's custom data block.
type Layer struct {
	Name   string
	Type   LayerType
	Offset int
}

// CustomData stores per element attributes as fixed-stride blocks in a flat
// slice. Attributes are addressed by the offset of their layer so that hot
// loops can resolve the layer once and index directly afterwards.
type CustomData struct {
	layers []Layer
	stride int
	count  int
	blocks []int32
}

// Get the number of slots in each element block.
func (cd *CustomData) Stride() int {
	return cd.stride
}

// Get the defined layers.
func (cd *CustomData) Layers() []Layer {
	return cd.layers
}

// Get the offset of a named layer or -1 if the layer does not exist.
func (cd *CustomData) LayerOffset(name string) int {
	for _, l := range cd.layers {
		if l.Name == name {
			return l.Offset
		}
	}
	return -1
}

// Add a layer and return its offset. If a layer with the same name exists its
// offset is returned instead. Existing element blocks are relaid out and the
// new slot is initialized to zero.
func (cd *CustomData) AddLayer(name string, typ LayerType) int {
	if offset := cd.LayerOffset(name); offset != -1 {
		return offset
	}

	offset := cd.stride
	cd.layers = append(cd.layers, Layer{Name: name, Type: typ, Offset: offset})

	blocks := make([]int32, cd.count*(cd.stride+1))
	for e := 0; e < cd.count; e++ {
		copy(blocks[e*(cd.stride+1):], cd.blocks[e*cd.stride:(e+1)*cd.stride])
	}
	cd.blocks = blocks
	cd.stride++
	return offset
}

// Make sure that there is a block for elements [0, count).
func (cd *CustomData) ensure(count int) {
	if count > cd.count {
		cd.count = count
	}
	need := cd.count * cd.stride
	if need <= len(cd.blocks) {
		return
	}
	if need <= cap(cd.blocks) {
		cd.blocks = cd.blocks[:need]
		return
	}
	blocks := make([]int32, need, need*2)
	copy(blocks, cd.blocks)
	cd.blocks = blocks
}

// Reset the block of an element to zero.
func (cd *CustomData) clear(elem int) {
	block := cd.blocks[elem*cd.stride : (elem+1)*cd.stride]
	for i := range block {
		block[i] = 0
	}
}

// Get the integer stored at a layer offset.
func (cd *CustomData) Int(elem, offset int) int32 {
	return cd.blocks[elem*cd.stride+offset]
}

// Set the integer stored at a layer offset.
func (cd *CustomData) SetInt(elem, offset int, val int32) {
	cd.blocks[elem*cd.stride+offset] = val
}

// Get the float stored at a layer offset.
func (cd *CustomData) Float(elem, offset int) float32 {
	return math.Float32frombits(uint32(cd.blocks[elem*cd.stride+offset]))
}

// Set the float stored at a layer offset.
func (cd *CustomData) SetFloat(elem, offset int, val float32) {
	cd.blocks[elem*cd.stride+offset] = int32(math.Float32bits(val))
}
