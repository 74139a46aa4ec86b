package storage

import (
	"time"

	"gorm.io/gorm"

	"stitchsense-server-go/internal/platform/logging"
)

// DiagnosisRecord stores one completed diagnosis for later review.
type DiagnosisRecord struct {
	ID                uint   `gorm:"primaryKey"`
	RequestID         string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Transcription     string `gorm:"type:text"`
	VisionAnalysis    string `gorm:"type:text"`
	RepairGuide       string `gorm:"type:text"`
	VisionProvider    string `gorm:"type:varchar(64)"`
	ReasoningProvider string `gorm:"type:varchar(64)"`
	Degraded          bool
	CreatedAt         time.Time
}

// DiagnosisRepository persists diagnosis records. A nil repository is valid
// and drops every record, so callers never branch on whether storage is
// configured.
type DiagnosisRepository struct {
	db     *gorm.DB
	logger *logging.Logger
}

// NewDiagnosisRepository creates a repository over an open database.
func NewDiagnosisRepository(db *gorm.DB, logger *logging.Logger) *DiagnosisRepository {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &DiagnosisRepository{db: db, logger: logger}
}

// Save writes one record.
func (r *DiagnosisRepository) Save(record *DiagnosisRecord) error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Create(record).Error
}

// SaveAsync writes the record on a background goroutine. Persistence is
// best-effort: a failure is logged and never reaches the caller.
func (r *DiagnosisRepository) SaveAsync(record *DiagnosisRecord) {
	if r == nil || r.db == nil {
		return
	}
	go func() {
		if err := r.Save(record); err != nil {
			r.logger.WarnTag("Storage", "save diagnosis %s: %v", record.RequestID, err)
		}
	}()
}

// Recent returns the newest records, most recent first.
func (r *DiagnosisRepository) Recent(limit int) ([]DiagnosisRecord, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	var records []DiagnosisRecord
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
