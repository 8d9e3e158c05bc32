package ports

import "github.com/user/tbcdecode/pkg/tbc"

// MetadataSource is the narrow read surface the decode path is compiled
// against. The SQLite-backed store is the only implementation; the
// interface exists so the reader never depends on how the records were
// persisted.
type MetadataSource interface {
	// VideoParameters returns the capture-level record.
	VideoParameters() tbc.VideoParameters

	// FieldRecords returns all field records ordered by sequence number,
	// 1-based and contiguous.
	FieldRecords() []tbc.FieldRecord
}
