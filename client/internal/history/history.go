// Package history keeps a local log of uploads and downloads.
package history

import (
	"time"

	"sharelite/client/internal/db"
	"sharelite/client/internal/logger"

	"gorm.io/gorm"
)

type Direction string

const (
	Upload   Direction = "upload"
	Download Direction = "download"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Entry struct {
	Direction Direction
	SessionID string
	FileName  string
	Size      int64
	Status    string
	Error     string
	At        time.Time
}

// Recorder stores transfer outcomes. A nil *Recorder or one without a
// database silently drops records.
type Recorder struct {
	gdb *gorm.DB
}

func NewRecorder(gdb *gorm.DB) *Recorder { return &Recorder{gdb: gdb} }

// Record saves one outcome; err == nil means success. Persistence errors
// are logged, never returned to the transfer that produced them.
func (r *Recorder) Record(dir Direction, sessionID, fileName string, size int64, err error) {
	if r == nil || r.gdb == nil {
		return
	}
	rec := db.TransferRecord{
		Direction: string(dir),
		SessionID: sessionID,
		FileName:  fileName,
		Size:      size,
		Status:    StatusOK,
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
	}
	if dbErr := r.gdb.Create(&rec).Error; dbErr != nil {
		logger.Warnf("Persist transfer record for %s failed: %v", fileName, dbErr)
	}
}

// List returns the newest entries first; limit <= 0 means all.
func (r *Recorder) List(limit int) ([]Entry, error) {
	if r == nil || r.gdb == nil {
		return nil, nil
	}
	var rows []db.TransferRecord
	q := r.gdb.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, Entry{
			Direction: Direction(row.Direction),
			SessionID: row.SessionID,
			FileName:  row.FileName,
			Size:      row.Size,
			Status:    row.Status,
			Error:     row.Error,
			At:        row.CreatedAt,
		})
	}
	return out, nil
}
