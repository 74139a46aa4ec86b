package storage

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stitchsense-server-go/internal/platform/logging"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.AutoMigrate(&DiagnosisRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSaveAndRecent(t *testing.T) {
	repo := NewDiagnosisRepository(testDB(t), logging.DefaultLogger)

	records := []*DiagnosisRecord{
		{RequestID: "req-1", Transcription: "first", RepairGuide: "guide one"},
		{RequestID: "req-2", Transcription: "second", RepairGuide: "guide two"},
	}
	for _, rec := range records {
		if err := repo.Save(rec); err != nil {
			t.Fatalf("Save %s: %v", rec.RequestID, err)
		}
	}

	got, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d records, want 2", len(got))
	}
}

func TestSaveRejectsDuplicateRequestID(t *testing.T) {
	repo := NewDiagnosisRepository(testDB(t), logging.DefaultLogger)

	if err := repo.Save(&DiagnosisRecord{RequestID: "req-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(&DiagnosisRecord{RequestID: "req-1"}); err == nil {
		t.Error("expected unique index violation")
	}
}

func TestNilRepositoryIsNoOp(t *testing.T) {
	var repo *DiagnosisRepository

	if err := repo.Save(&DiagnosisRecord{RequestID: "req-1"}); err != nil {
		t.Errorf("Save on nil repository: %v", err)
	}
	repo.SaveAsync(&DiagnosisRecord{RequestID: "req-2"})

	got, err := repo.Recent(5)
	if err != nil {
		t.Errorf("Recent on nil repository: %v", err)
	}
	if got != nil {
		t.Errorf("Recent = %v, want nil", got)
	}
}
