package models

import "time"

// StoredRecord is one key/value record of the database-backed storage driver.
type StoredRecord struct {
	Key       string    `gorm:"column:record_key;primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
