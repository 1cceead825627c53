package prescription

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type gormRecord struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ExtractedText string    `gorm:"type:text;not null"`
	UploadDate    time.Time `gorm:"index;not null"`
}

func (gormRecord) TableName() string { return "extracted_texts" }

// OpenGorm opens the relational fallback database. Driver is "sqlite"
// (dsn is a file path or ":memory:") or "mysql" (dsn is a mysql DSN).
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "prescriptions.db"
		}
		dialector = gormsqlite.Open(dsn)
	case "mysql":
		dialector = gormmysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&gormRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

// GormConnector serves the relational fallback store. The connection is
// opened once; Acquire only verifies it is still alive.
type GormConnector struct {
	db *gorm.DB
}

func NewGormConnector(db *gorm.DB) *GormConnector {
	return &GormConnector{db: db}
}

func (c *GormConnector) Acquire(ctx context.Context) (Store, error) {
	sqlDB, err := c.db.DB()
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, err
	}
	return &GormStore{db: c.db}, nil
}

// GormStore keeps extracted texts in a relational table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, extractedText string, uploadDate time.Time) (string, error) {
	rec := gormRecord{
		ExtractedText: extractedText,
		UploadDate:    uploadDate,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", err
	}
	return strconv.FormatUint(rec.ID, 10), nil
}

func (s *GormStore) ListAll(ctx context.Context) ([]Record, error) {
	var recs []gormRecord
	if err := s.db.WithContext(ctx).
		Order("upload_date DESC, id DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, Record{
			Key:           strconv.FormatUint(r.ID, 10),
			ExtractedText: r.ExtractedText,
			UploadDate:    r.UploadDate,
		})
	}
	return out, nil
}
