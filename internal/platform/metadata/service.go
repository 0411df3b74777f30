package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Generic Accessors ---

// GetValue retrieves a value for a given key from the metadata table.
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// If the key doesn't exist, return an empty string, which is a valid default.
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue creates or updates a value for a given key within a transaction.
func SetValue(db *gorm.DB, key, value string) error {
	// Use GORM's OnConflict clause for an efficient and atomic "upsert" operation.
	// It will update the 'value' column if a record with the same 'key' already exists.
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}

// --- Specific Helpers for Type Conversion ---

// GetLastBackupTime is a helper that retrieves and parses the last backup timestamp.
// A zero time is returned when no backup has been recorded yet.
func GetLastBackupTime(db *gorm.DB) (time.Time, error) {
	valueStr, err := GetValue(db, LastBackupTimeKey)
	if err != nil {
		return time.Time{}, err
	}
	if valueStr == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析元数据 '%s' 的值: %w", LastBackupTimeKey, err)
	}
	return t, nil
}

// SetLastBackupTime is a helper that formats and sets the last backup timestamp.
func SetLastBackupTime(db *gorm.DB, t time.Time) error {
	return SetValue(db, LastBackupTimeKey, t.Format(time.RFC3339))
}

// GetMirrorSchemaVersion is a helper that retrieves and parses the mirror schema version.
func GetMirrorSchemaVersion(db *gorm.DB) (int, error) {
	valueStr, err := GetValue(db, MirrorSchemaVersionKey)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	version, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", MirrorSchemaVersionKey, err)
	}
	return version, nil
}

// SetMirrorSchemaVersion is a helper that formats and sets the mirror schema version.
func SetMirrorSchemaVersion(db *gorm.DB, version int) error {
	return SetValue(db, MirrorSchemaVersionKey, strconv.Itoa(version))
}
