package db

import "time"

// Preference is one persisted key/value setting, e.g. the UI theme.
type Preference struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;size:64"`
	Value     string `gorm:"size:256"`
	UpdatedAt time.Time
}

// TransferRecord is one finished or failed upload/download.
type TransferRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Direction string `gorm:"size:16;index"`
	SessionID string `gorm:"size:32;index"`
	FileName  string `gorm:"size:1024"`
	Size      int64
	Status    string `gorm:"size:16"`
	Error     string `gorm:"size:1024"`
	CreatedAt time.Time
}
