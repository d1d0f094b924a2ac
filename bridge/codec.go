package bridge

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Binary geometry layout, little-endian:
//
//	u32 magic, u32 version, u32 mesh count
//	per mesh: u64 entity id,
//	          u32 position count + f32 values,
//	          u32 normal count   + f32 values,
//	          u32 index count    + u32 values,
//	          4x f32 color, 16x f32 transform,
//	          u8 type length + bytes, u8 name length + bytes
const (
	geometryMagic   uint32 = 0x314D4742 // "BGM1"
	geometryVersion uint32 = 1
)

// maxTagLen bounds type/name strings in the binary layout.
const maxTagLen = 255

// EncodeGeometry serializes meshes into the binary layout and returns the
// base64 text the chunked channel carries. Oversized type or name tags
// fail with ErrEncodingFailure; the caller skips the write for the cycle.
func EncodeGeometry(meshes []GeometryMesh) (string, error) {
	size := 12
	for i := range meshes {
		m := &meshes[i]
		if len(m.Type) > maxTagLen || len(m.Name) > maxTagLen {
			return "", fmt.Errorf("%w: mesh %d tag exceeds %d bytes", ErrEncodingFailure, m.EntityID, maxTagLen)
		}
		size += 8 + 4 + len(m.Positions)*4 + 4 + len(m.Normals)*4 + 4 + len(m.Indices)*4
		size += 16 + 64 + 1 + len(m.Type) + 1 + len(m.Name)
	}

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, geometryMagic)
	buf = binary.LittleEndian.AppendUint32(buf, geometryVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(meshes)))

	for i := range meshes {
		m := &meshes[i]
		buf = binary.LittleEndian.AppendUint64(buf, m.EntityID)

		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Positions)))
		for _, f := range m.Positions {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Normals)))
		for _, f := range m.Normals {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Indices)))
		for _, idx := range m.Indices {
			buf = binary.LittleEndian.AppendUint32(buf, idx)
		}

		for _, f := range m.Color {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		for _, f := range m.Transform {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}

		buf = append(buf, byte(len(m.Type)))
		buf = append(buf, m.Type...)
		buf = append(buf, byte(len(m.Name)))
		buf = append(buf, m.Name...)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// DecodeGeometry reverses EncodeGeometry. Any truncation or a bad magic
// is reported as ErrStaleRead: the reader treats it as a partial write
// and retries on the next poll.
func DecodeGeometry(encoded string) ([]GeometryMesh, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: geometry base64: %v", ErrStaleRead, err)
	}
	r := byteReader{data: data}

	magic, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if magic != geometryMagic {
		return nil, fmt.Errorf("%w: geometry magic %08x", ErrStaleRead, magic)
	}
	if _, err := r.uint32(); err != nil { // version
		return nil, err
	}
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	// Smallest possible mesh record: id, three zero counts, color,
	// transform, two empty tags.
	const minMeshSize = 8 + 4 + 4 + 4 + 16 + 64 + 2
	if int(count) > (len(data)-r.off)/minMeshSize {
		return nil, fmt.Errorf("%w: geometry mesh count %d exceeds %d remaining bytes", ErrStaleRead, count, len(data)-r.off)
	}

	meshes := make([]GeometryMesh, 0, count)
	for i := uint32(0); i < count; i++ {
		var m GeometryMesh
		if m.EntityID, err = r.uint64(); err != nil {
			return nil, err
		}
		if m.Positions, err = r.float32Slice(); err != nil {
			return nil, err
		}
		if m.Normals, err = r.float32Slice(); err != nil {
			return nil, err
		}
		if m.Indices, err = r.uint32Slice(); err != nil {
			return nil, err
		}
		for j := 0; j < 4; j++ {
			if m.Color[j], err = r.float32(); err != nil {
				return nil, err
			}
		}
		for j := 0; j < 16; j++ {
			if m.Transform[j], err = r.float32(); err != nil {
				return nil, err
			}
		}
		if m.Type, err = r.shortString(); err != nil {
			return nil, err
		}
		if m.Name, err = r.shortString(); err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// chunkText splits an encoded payload into store-sized pieces; single-key
// writes above the backend limit would otherwise fail wholesale.
func chunkText(s string, size int) []string {
	if size <= 0 || len(s) <= size {
		return []string{s}
	}
	chunks := make([]string, 0, (len(s)+size-1)/size)
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	return append(chunks, s)
}

type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) take(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: geometry truncated at %d", ErrStaleRead, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) float32() (float32, error) {
	v, err := r.uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// sliceCount reads a u32 element count and checks the remaining bytes can
// actually hold it. A torn write can carry an arbitrary count; allocating
// from it unchecked would balloon before truncation is ever hit.
func (r *byteReader) sliceCount() (int, error) {
	n, err := r.uint32()
	if err != nil {
		return 0, err
	}
	if int(n) > (len(r.data)-r.off)/4 {
		return 0, fmt.Errorf("%w: geometry count %d exceeds %d remaining bytes", ErrStaleRead, n, len(r.data)-r.off)
	}
	return int(n), nil
}

func (r *byteReader) float32Slice() ([]float32, error) {
	n, err := r.sliceCount()
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		if out[i], err = r.float32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *byteReader) uint32Slice() ([]uint32, error) {
	n, err := r.sliceCount()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		if out[i], err = r.uint32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *byteReader) shortString() (string, error) {
	lb, err := r.take(1)
	if err != nil {
		return "", err
	}
	b, err := r.take(int(lb[0]))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
