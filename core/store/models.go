package store

import "time"

// Row status values for log_ranges.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// maxErrorMsgLen bounds stored error messages.
const maxErrorMsgLen = 900

// LogRange is one fetch outcome for a contiguous block window against one
// provider. (from_block, to_block, provider) is the natural key; a later
// write with the same key fully replaces the earlier one.
type LogRange struct {
	FromBlock uint64  `gorm:"column:from_block;primaryKey;autoIncrement:false"`
	ToBlock   uint64  `gorm:"column:to_block;primaryKey;autoIncrement:false"`
	Cnt       *int64  `gorm:"column:cnt"`
	Status    string  `gorm:"column:status;not null"`
	ErrorType *string `gorm:"column:error_type"`
	ErrorMsg  *string `gorm:"column:error_msg;size:1024"`
	Provider  string  `gorm:"column:provider;primaryKey;size:191"`
	Contract  string  `gorm:"column:contract;not null"`
	Topic     string  `gorm:"column:topic;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName implements the GORM naming override for LogRange.
func (LogRange) TableName() string {
	return "log_ranges"
}

// Discrepancy is one finding from comparing providers over a range. Rows are
// append-only history: never updated in place, ordered by recorded_at.
//
// DiscrepancyCount holds the live test-provider count observed at discovery
// time, not a difference magnitude.
type Discrepancy struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	FromBlock        uint64    `gorm:"column:from_block;not null"`
	ToBlock          uint64    `gorm:"column:to_block;not null"`
	DiscrepancyCount int64     `gorm:"column:discrepancy_count;not null"`
	Provider         string    `gorm:"column:provider;not null"`
	RecordedAt       time.Time `gorm:"column:recorded_at;not null"`
}

// TableName implements the GORM naming override for Discrepancy.
func (Discrepancy) TableName() string {
	return "rpc_discrepancies"
}
