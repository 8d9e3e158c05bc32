package reader

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/user/tbcdecode/pkg/tbc"
)

// sampleFile reads raw 16-bit little-endian fields from a TBC sample file.
// The handle is read-only and positioned per read; the reader's decode
// lock serializes all access.
type sampleFile struct {
	f        *os.File
	fieldLen int // samples per field
}

// openSampleFile opens the raw sample file and checks that it holds at
// least the declared number of fields of the declared geometry.
func openSampleFile(path string, fieldLen, declaredFields int) (*sampleFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tbc.WrapError(tbc.KindSampleFileUnavailable, err, "open sample file %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, tbc.WrapError(tbc.KindSampleFileUnavailable, err, "stat sample file %s", path)
	}

	fieldBytes := int64(fieldLen) * 2
	if info.Size()%fieldBytes != 0 || info.Size()/fieldBytes < int64(declaredFields) {
		f.Close()
		return nil, tbc.Errorf(tbc.KindSampleFileUnavailable,
			"sample file %s holds %d bytes, want %d fields of %d bytes",
			path, info.Size(), declaredFields, fieldBytes)
	}

	return &sampleFile{f: f, fieldLen: fieldLen}, nil
}

// readField reads the samples of one field by 1-based sequence number.
func (s *sampleFile) readField(seqNo int) ([]uint16, error) {
	buf := make([]byte, s.fieldLen*2)
	offset := int64(seqNo-1) * int64(len(buf))
	if _, err := s.f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("read field %d: %w", seqNo, err)
	}

	samples := make([]uint16, s.fieldLen)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return samples, nil
}

func (s *sampleFile) close() error {
	return s.f.Close()
}
