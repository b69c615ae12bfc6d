package db

import (
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	mu     sync.RWMutex
	handle *gorm.DB
)

// Init opens (creating if needed) the local SQLite file and migrates the
// client tables. The handle is also kept for Get.
func Init(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&Preference{}, &TransferRecord{}); err != nil {
		return nil, err
	}
	mu.Lock()
	handle = gdb
	mu.Unlock()
	return gdb, nil
}

// Get returns the handle opened by Init, or nil.
func Get() *gorm.DB {
	mu.RLock()
	defer mu.RUnlock()
	return handle
}

// Close releases the underlying connection pool.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if handle == nil {
		return nil
	}
	sqlDB, err := handle.DB()
	handle = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
