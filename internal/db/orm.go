package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/logging"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionDocument stores one whole collection as a JSON text column.
type CollectionDocument struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Data      string    `gorm:"column:data;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (CollectionDocument) TableName() string {
	return "collection_documents"
}

// InitORM opens a GORM connection for the sqlite or postgres backend and
// migrates the document table.
func InitORM(backend, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch backend {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", backend, err)
	}

	if err := db.AutoMigrate(&CollectionDocument{}); err != nil {
		return nil, fmt.Errorf("failed to migrate collection_documents: %w", err)
	}

	logging.Info("Connected to document database via GORM", "backend", backend)
	return db, nil
}

// GormDocumentStore keeps collections as rows of collection_documents, for
// deployments that want a transactional embedded or server database while
// keeping the array-of-records model.
type GormDocumentStore struct {
	db      *gorm.DB
	backend string
}

var _ DocumentStore = (*GormDocumentStore)(nil)

func NewGormDocumentStore(db *gorm.DB, backend string) *GormDocumentStore {
	return &GormDocumentStore{db: db, backend: backend}
}

func (s *GormDocumentStore) Load(ctx context.Context, name constants.CollectionName) ([]byte, error) {
	var doc CollectionDocument
	err := s.db.WithContext(ctx).Where("name = ?", string(name)).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", name, constants.ErrCollectionMissing)
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Data), nil
}

func (s *GormDocumentStore) Save(ctx context.Context, name constants.CollectionName, data []byte) error {
	doc := CollectionDocument{Name: string(name), Data: string(data)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&doc).Error
}

func (s *GormDocumentStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormDocumentStore) Backend() string { return s.backend }
