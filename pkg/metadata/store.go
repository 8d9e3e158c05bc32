// Package metadata reads and writes the structured capture+field record
// store that accompanies a TBC sample file, and synthesizes it from a JSON
// sidecar when no prebuilt store exists.
package metadata

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/user/tbcdecode/pkg/ports"
	"github.com/user/tbcdecode/pkg/tbc"
)

// Store holds the capture record and field records of one capture,
// read-only after Read returns.
type Store struct {
	params tbc.VideoParameters
	fields []tbc.FieldRecord
}

// VideoParameters returns the capture-level record.
func (s *Store) VideoParameters() tbc.VideoParameters { return s.params }

// FieldRecords returns all field records ordered by sequence number.
func (s *Store) FieldRecords() []tbc.FieldRecord { return s.fields }

var _ ports.MetadataSource = (*Store)(nil)

// Read populates a Store from the structured store at dbPath.
// It fails with KindMetadataUnavailable when no capture record exists and
// with KindMetadataCorrupt when required columns are unreadable or no
// field records are present.
func Read(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, tbc.WrapError(tbc.KindMetadataCorrupt, err, "open metadata store %s", dbPath)
	}
	defer db.Close()

	s := &Store{}
	if err := readVideoParameters(db, &s.params); err != nil {
		return nil, err
	}
	if err := readFieldRecords(db, s); err != nil {
		return nil, err
	}
	return s, nil
}

func readVideoParameters(db *sql.DB, vp *tbc.VideoParameters) error {
	const query = `
		SELECT system, video_sample_rate, field_width, field_height,
		       active_video_start, active_video_end, colour_burst_start, colour_burst_end,
		       white_16b_ire, black_16b_ire, is_mapped, is_subcarrier_locked, is_widescreen,
		       number_of_sequential_fields
		FROM capture WHERE capture_id = 1`

	var (
		system                                 string
		sampleRate                             sql.NullFloat64
		fieldWidth, fieldHeight                sql.NullInt64
		activeStart, activeEnd                 sql.NullInt64
		burstStart, burstEnd                   sql.NullInt64
		white, black                           sql.NullInt64
		isMapped, isSubcarrierLocked, isWide   sql.NullInt64
		sequentialFields                       sql.NullInt64
	)

	err := db.QueryRow(query).Scan(&system, &sampleRate, &fieldWidth, &fieldHeight,
		&activeStart, &activeEnd, &burstStart, &burstEnd,
		&white, &black, &isMapped, &isSubcarrierLocked, &isWide, &sequentialFields)
	if err == sql.ErrNoRows {
		return tbc.Errorf(tbc.KindMetadataUnavailable, "no capture record found in metadata store")
	}
	if err != nil {
		return tbc.WrapError(tbc.KindMetadataCorrupt, err, "read capture record")
	}

	vp.System = tbc.ParseVideoSystem(system)
	vp.SampleRate = sampleRate.Float64
	vp.FieldWidth = int(fieldWidth.Int64)
	vp.FieldHeight = int(fieldHeight.Int64)
	vp.ActiveVideoStart = int(activeStart.Int64)
	vp.ActiveVideoEnd = int(activeEnd.Int64)
	vp.ColourBurstStart = int(burstStart.Int64)
	vp.ColourBurstEnd = int(burstEnd.Int64)
	vp.White16bIRE = int(white.Int64)
	vp.Black16bIRE = int(black.Int64)
	vp.IsMapped = isMapped.Int64 != 0
	vp.IsSubcarrierLocked = isSubcarrierLocked.Int64 != 0
	vp.IsWidescreen = isWide.Int64 != 0
	vp.NumberOfSequentialFields = int(sequentialFields.Int64)

	vp.ApplySystemDefaults()
	vp.IsValid = true
	return nil
}

func readFieldRecords(db *sql.DB, s *Store) error {
	const query = `
		SELECT field_id, is_first_field, sync_conf, median_burst_ire,
		       field_phase_id, audio_samples, disk_loc, file_loc,
		       decode_faults, pad
		FROM field_record
		WHERE capture_id = 1
		ORDER BY field_id`

	rows, err := db.Query(query)
	if err != nil {
		return tbc.WrapError(tbc.KindMetadataCorrupt, err, "read field records")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			fieldID      int64
			isFirstField sql.NullInt64
			syncConf     sql.NullInt64
			medianBurst  sql.NullFloat64
			fieldPhaseID sql.NullInt64
			audioSamples sql.NullInt64
			diskLoc      sql.NullFloat64
			fileLoc      sql.NullInt64
			decodeFaults sql.NullInt64
			pad          sql.NullInt64
		)
		if err := rows.Scan(&fieldID, &isFirstField, &syncConf, &medianBurst,
			&fieldPhaseID, &audioSamples, &diskLoc, &fileLoc, &decodeFaults, &pad); err != nil {
			return tbc.WrapError(tbc.KindMetadataCorrupt, err, "scan field record")
		}

		f := tbc.FieldRecord{
			// field_id is 0-indexed on disk, SeqNo is 1-indexed.
			SeqNo:          int(fieldID) + 1,
			IsFirstField:   isFirstField.Int64 != 0,
			SyncConf:       100,
			MedianBurstIRE: medianBurst.Float64,
			FieldPhaseID:   int(fieldPhaseID.Int64),
			AudioSamples:   -1,
			DiskLoc:        -1,
			FileLoc:        -1,
			Pad:            pad.Int64 != 0,
		}
		// NULL keeps the sentinel defaults; zero is a legitimate stored
		// value and must survive.
		if syncConf.Valid {
			f.SyncConf = int(syncConf.Int64)
		}
		if audioSamples.Valid {
			f.AudioSamples = int(audioSamples.Int64)
		}
		if diskLoc.Valid {
			f.DiskLoc = diskLoc.Float64
		}
		if fileLoc.Valid {
			f.FileLoc = fileLoc.Int64
		}
		if decodeFaults.Valid {
			f.DecodeFaults = int(decodeFaults.Int64)
		}

		s.fields = append(s.fields, f)
	}
	if err := rows.Err(); err != nil {
		return tbc.WrapError(tbc.KindMetadataCorrupt, err, "iterate field records")
	}

	if len(s.fields) == 0 {
		return tbc.Errorf(tbc.KindMetadataCorrupt, "no field records found in metadata store")
	}
	return nil
}

// Open resolves the sidecar for sourcePath (preferring a structured store,
// migrating a JSON sidecar when only that exists) and reads it.
func Open(sourcePath string, log ports.Logger) (*Store, error) {
	dbPath, found := ResolveStore(sourcePath)
	if !found {
		jsonPath, jsonFound := ResolveJSON(sourcePath)
		if !jsonFound {
			return nil, tbc.Errorf(tbc.KindMetadataUnavailable,
				"could not find metadata file (.db or .json) for %s", sourcePath)
		}
		log.Info("Found JSON metadata, converting to structured store: %s", jsonPath)
		if err := MigrateJSON(jsonPath, dbPath); err != nil {
			return nil, fmt.Errorf("convert JSON metadata %s: %w", jsonPath, err)
		}
	}
	return Read(dbPath)
}
