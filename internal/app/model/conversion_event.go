package model

import "time"

// ConversionEvent is an audit record for one pipeline action on a generated
// config.
type ConversionEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ConfigID  string    `json:"config_id" gorm:"size:36;index"`
	Action    string    `json:"action" gorm:"size:16;not null"`
	Backend   string    `json:"backend" gorm:"type:text"`
	Outcome   string    `json:"outcome" gorm:"size:16;not null"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ConversionActionGenerate = "generate"
	ConversionActionRefresh  = "refresh"
	ConversionActionDelete   = "delete"

	ConversionOutcomeOK    = "ok"
	ConversionOutcomeError = "error"
)

const (
	ConversionStreamName     = "CONVERSIONS"
	ConversionStreamSubject  = "conversions.events"
	ConversionConsumerName   = "conversion-logger"
	ConversionStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
