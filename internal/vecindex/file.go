// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vecindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

const (
	// IndexFile is the binary vector file inside the index directory.
	IndexFile = "links.index"

	// InfoFile is the JSON sidecar describing how the index was built.
	InfoFile = "links-info.json"

	fileMagic   = uint32(0x4c4e4b31) // "LNK1"
	fileVersion = uint32(1)
)

// Info describes a persisted index. A query embedded with a different model
// or width than recorded here cannot be searched against the index.
type Info struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	Metric     Metric    `json:"metric"`
	BuiltAt    time.Time `json:"built_at"`
}

// Save writes the index and its sidecar into dir. Both files go through a
// temp file and rename, so a concurrent reader sees either the old or the
// new index, never a partial one.
func Save(dir string, f *Flat, info Info) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	data, err := f.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, IndexFile), data); err != nil {
		return err
	}

	info.Count = f.Len()
	info.Metric = f.metric
	infoData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index info: %w", err)
	}
	return writeAtomic(filepath.Join(dir, InfoFile), infoData)
}

// Load reads the index and sidecar from dir. A missing index reports
// os.ErrNotExist, which callers surface as "run update first".
func Load(dir string) (*Flat, Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, Info{}, fmt.Errorf("reading index: %w", err)
	}

	var info Info
	infoData, err := os.ReadFile(filepath.Join(dir, InfoFile))
	if err != nil {
		return nil, Info{}, fmt.Errorf("reading index info: %w", err)
	}
	if err := json.Unmarshal(infoData, &info); err != nil {
		return nil, Info{}, fmt.Errorf("parsing index info: %w", err)
	}

	f := NewFlat(info.Metric)
	if err := f.UnmarshalBinary(data); err != nil {
		return nil, Info{}, fmt.Errorf("decoding index: %w", err)
	}
	return f, info, nil
}

// MarshalBinary encodes magic, version, dim, count, then id + vector per
// item, all little-endian.
func (f *Flat) MarshalBinary() ([]byte, error) {
	size := 16 + len(f.ids)*(8+4*f.dim)
	out := make([]byte, 0, size)

	out = binary.LittleEndian.AppendUint32(out, fileMagic)
	out = binary.LittleEndian.AppendUint32(out, fileVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(f.dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(f.ids)))

	for i, id := range f.ids {
		out = binary.LittleEndian.AppendUint64(out, uint64(id))
		for _, v := range f.vecs[i] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out, nil
}

// UnmarshalBinary restores the index contents from data.
func (f *Flat) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("index file truncated: %d bytes", len(data))
	}
	if got := binary.LittleEndian.Uint32(data[0:4]); got != fileMagic {
		return fmt.Errorf("not a link index file (magic %#x)", got)
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != fileVersion {
		return fmt.Errorf("unsupported index version %d", got)
	}

	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))

	// Header fields are file-controlled: divide instead of multiplying so
	// a corrupt header cannot overflow the size check and panic the decode
	// loop below.
	vecSize := uint64(8) + 4*uint64(dim)
	payload := uint64(len(data) - 16)
	if payload%vecSize != 0 || payload/vecSize != uint64(count) {
		return fmt.Errorf("index file size %d does not hold %d vectors of width %d",
			len(data), count, dim)
	}

	ids := make([]int64, count)
	vecs := make([][]float32, count)
	off := 16
	for i := 0; i < count; i++ {
		ids[i] = int64(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vecs[i] = vec
	}
	return f.Build(ids, vecs)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
