package metadata

import (
	"database/sql"
	"encoding/json"
	"os"

	"github.com/user/tbcdecode/pkg/tbc"
)

// sidecarRoot mirrors the JSON sidecar layout produced by the capture
// tooling. Missing keys keep Go zero values; system defaults to NTSC
// after parsing.
type sidecarRoot struct {
	VideoParameters sidecarVideoParameters `json:"videoParameters"`
	Fields          []sidecarField         `json:"fields"`
}

type sidecarVideoParameters struct {
	System                   string  `json:"system"`
	NumberOfSequentialFields int     `json:"numberOfSequentialFields"`
	FieldWidth               int     `json:"fieldWidth"`
	FieldHeight              int     `json:"fieldHeight"`
	SampleRate               float64 `json:"sampleRate"`
	ActiveVideoStart         int     `json:"activeVideoStart"`
	ActiveVideoEnd           int     `json:"activeVideoEnd"`
	ColourBurstStart         int     `json:"colourBurstStart"`
	ColourBurstEnd           int     `json:"colourBurstEnd"`
	White16bIre              int     `json:"white16bIre"`
	Black16bIre              int     `json:"black16bIre"`
	IsMapped                 bool    `json:"isMapped"`
	IsSubcarrierLocked       bool    `json:"isSubcarrierLocked"`
	IsWidescreen             bool    `json:"isWidescreen"`
	GitBranch                string  `json:"gitBranch"`
	GitCommit                string  `json:"gitCommit"`
	TapeFormat               string  `json:"tapeFormat"`
}

type sidecarField struct {
	SeqNo          int     `json:"seqNo"`
	IsFirstField   bool    `json:"isFirstField"`
	SyncConf       int     `json:"syncConf"`
	MedianBurstIRE float64 `json:"medianBurstIRE"`
	FieldPhaseID   int     `json:"fieldPhaseID"`
	AudioSamples   int     `json:"audioSamples"`
	DiskLoc        float64 `json:"diskLoc"`
	FileLoc        int64   `json:"fileLoc"`
	DecodeFaults   int     `json:"decodeFaults"`
	EfmTValues     int     `json:"efmTValues"`
	Pad            bool    `json:"pad"`
}

const schemaDDL = `
PRAGMA user_version = 1;

CREATE TABLE capture (
    capture_id INTEGER PRIMARY KEY,
    system TEXT NOT NULL CHECK (system IN ('NTSC','PAL','PAL_M')),
    decoder TEXT NOT NULL CHECK (decoder IN ('ld-decode','vhs-decode')),
    git_branch TEXT,
    git_commit TEXT,
    video_sample_rate REAL,
    active_video_start INTEGER,
    active_video_end INTEGER,
    field_width INTEGER,
    field_height INTEGER,
    number_of_sequential_fields INTEGER,
    colour_burst_start INTEGER,
    colour_burst_end INTEGER,
    is_mapped INTEGER CHECK (is_mapped IN (0,1)),
    is_subcarrier_locked INTEGER CHECK (is_subcarrier_locked IN (0,1)),
    is_widescreen INTEGER CHECK (is_widescreen IN (0,1)),
    white_16b_ire INTEGER,
    black_16b_ire INTEGER,
    blanking_16b_ire INTEGER,
    capture_notes TEXT
);

CREATE TABLE field_record (
    capture_id INTEGER NOT NULL REFERENCES capture(capture_id) ON DELETE CASCADE,
    field_id INTEGER NOT NULL,
    audio_samples INTEGER,
    decode_faults INTEGER,
    disk_loc REAL,
    efm_t_values INTEGER,
    field_phase_id INTEGER,
    file_loc INTEGER,
    is_first_field INTEGER CHECK (is_first_field IN (0,1)),
    median_burst_ire REAL,
    pad INTEGER CHECK (pad IN (0,1)),
    sync_conf INTEGER,
    ntsc_is_fm_code_data_valid INTEGER CHECK (ntsc_is_fm_code_data_valid IN (0,1)),
    ntsc_fm_code_data INTEGER,
    ntsc_field_flag INTEGER CHECK (ntsc_field_flag IN (0,1)),
    ntsc_is_video_id_data_valid INTEGER CHECK (ntsc_is_video_id_data_valid IN (0,1)),
    ntsc_video_id_data INTEGER,
    ntsc_white_flag INTEGER CHECK (ntsc_white_flag IN (0,1)),
    PRIMARY KEY (capture_id, field_id)
);
`

// MigrateJSON synthesizes a structured store at dbPath from the JSON
// sidecar at jsonPath. The write is atomic: every insert runs in a single
// transaction and any failure removes the store file, so a failed
// migration never leaves a partial store behind.
func MigrateJSON(jsonPath, dbPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "read JSON sidecar %s", jsonPath)
	}

	var root sidecarRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "parse JSON sidecar %s", jsonPath)
	}
	if root.VideoParameters.System == "" {
		root.VideoParameters.System = "NTSC"
	}

	// Replace any existing store so repeated migrations are byte-for-byte
	// reproducible.
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "remove existing store %s", dbPath)
	}

	if err := writeStore(dbPath, &root); err != nil {
		os.Remove(dbPath)
		return err
	}
	return nil
}

func writeStore(dbPath string, root *sidecarRoot) error {
	// Fixed page size and rollback journaling keep repeated migrations of
	// the same sidecar byte-for-byte identical.
	dsn := "file:" + dbPath + "?_pragma=page_size(4096)&_pragma=journal_mode(DELETE)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "create store %s", dbPath)
	}
	defer db.Close()

	if _, err := db.Exec(schemaDDL); err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "create store schema")
	}

	tx, err := db.Begin()
	if err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "begin store transaction")
	}

	if err := insertCapture(tx, root); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertFields(tx, root.Fields); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "commit store transaction")
	}
	return nil
}

func insertCapture(tx *sql.Tx, root *sidecarRoot) error {
	vp := &root.VideoParameters
	const insert = `
		INSERT INTO capture (
		    capture_id, system, decoder, git_branch, git_commit,
		    video_sample_rate, active_video_start, active_video_end,
		    field_width, field_height, number_of_sequential_fields,
		    colour_burst_start, colour_burst_end, is_mapped,
		    is_subcarrier_locked, is_widescreen, white_16b_ire,
		    black_16b_ire, blanking_16b_ire, capture_notes
		) VALUES (1, ?, 'ld-decode', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.Exec(insert,
		vp.System,
		nullString(vp.GitBranch),
		nullString(vp.GitCommit),
		vp.SampleRate,
		vp.ActiveVideoStart,
		vp.ActiveVideoEnd,
		vp.FieldWidth,
		vp.FieldHeight,
		len(root.Fields),
		vp.ColourBurstStart,
		vp.ColourBurstEnd,
		boolInt(vp.IsMapped),
		boolInt(vp.IsSubcarrierLocked),
		boolInt(vp.IsWidescreen),
		vp.White16bIre,
		vp.Black16bIre,
		vp.Black16bIre, // blanking mirrors black
		nullString(vp.TapeFormat),
	)
	if err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "insert capture record")
	}
	return nil
}

func insertFields(tx *sql.Tx, fields []sidecarField) error {
	const insert = `
		INSERT INTO field_record (
		    capture_id, field_id, audio_samples, decode_faults, disk_loc,
		    efm_t_values, field_phase_id, file_loc, is_first_field,
		    median_burst_ire, pad, sync_conf
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "prepare field insert")
	}
	defer stmt.Close()

	for _, f := range fields {
		// seqNo in sidecar JSON is already 0-indexed and maps directly
		// to field_id. Non-positive numerics are stored as NULL so a
		// legitimate zero downstream is distinguishable from absent.
		_, err := stmt.Exec(
			f.SeqNo,
			nullPositiveInt(f.AudioSamples),
			nullPositiveInt(f.DecodeFaults),
			nullPositiveFloat(f.DiskLoc),
			nullPositiveInt(f.EfmTValues),
			f.FieldPhaseID,
			nullPositiveInt64(f.FileLoc),
			boolInt(f.IsFirstField),
			f.MedianBurstIRE,
			boolInt(f.Pad),
			f.SyncConf,
		)
		if err != nil {
			return tbc.WrapError(tbc.KindJSONMigrationFailed, err, "insert field record %d", f.SeqNo)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullPositiveInt(v int) interface{} {
	if v <= 0 {
		return nil
	}
	return v
}

func nullPositiveInt64(v int64) interface{} {
	if v <= 0 {
		return nil
	}
	return v
}

func nullPositiveFloat(v float64) interface{} {
	if v <= 0 {
		return nil
	}
	return v
}
