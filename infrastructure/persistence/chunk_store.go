// Package persistence implements the database-backed stores.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/foodscope/foodscope/domain/county"
	"github.com/foodscope/foodscope/internal/database"
)

const chunkBatchSize = 500

// chunkModel is the database row for a chunk. The primary key is the
// chunk's position in the build order, which is also its row in the vector
// index.
type chunkModel struct {
	ChunkID       int      `gorm:"column:chunk_id;primaryKey"`
	Text          string   `gorm:"column:text;not null"`
	County        string   `gorm:"column:county;not null"`
	State         string   `gorm:"column:state;not null"`
	HighRisk      bool     `gorm:"column:high_risk;not null"`
	CompositeRisk *float64 `gorm:"column:composite_risk"`
	Cluster       *int     `gorm:"column:cluster"`
}

func (chunkModel) TableName() string { return "foodscope_chunks" }

func (m chunkModel) toDomain() county.Chunk {
	return county.NewChunk(m.ChunkID, m.Text, county.Metadata{
		County:        m.County,
		State:         m.State,
		HighRisk:      m.HighRisk,
		CompositeRisk: m.CompositeRisk,
		Cluster:       m.Cluster,
	})
}

func fromDomain(c county.Chunk) chunkModel {
	meta := c.Metadata()
	return chunkModel{
		ChunkID:       c.ID(),
		Text:          c.Text(),
		County:        meta.County,
		State:         meta.State,
		HighRisk:      meta.HighRisk,
		CompositeRisk: meta.CompositeRisk,
		Cluster:       meta.Cluster,
	}
}

// ChunkStore persists chunks in the database, keyed by their index row.
type ChunkStore struct {
	db     database.Database
	logger *slog.Logger
}

// NewChunkStore creates a ChunkStore and migrates its table.
func NewChunkStore(db database.Database, logger *slog.Logger) (*ChunkStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Session(context.Background()).AutoMigrate(&chunkModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate chunk table: %w", err)
	}
	return &ChunkStore{db: db, logger: logger}, nil
}

// ReplaceAll atomically swaps the stored chunk set. Readers observe either
// the old set or the new one, never a mix.
func (s *ChunkStore) ReplaceAll(ctx context.Context, chunks []county.Chunk) error {
	models := make([]chunkModel, len(chunks))
	for i, c := range chunks {
		models[i] = fromDomain(c)
	}

	err := s.db.Session(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&chunkModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(models, chunkBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace chunks: %w", err)
	}

	s.logger.DebugContext(ctx, "replaced chunk set", slog.Int("count", len(chunks)))
	return nil
}

// All returns every stored chunk ordered by its index row.
func (s *ChunkStore) All(ctx context.Context) ([]county.Chunk, error) {
	var models []chunkModel
	if err := s.db.Session(ctx).Order("chunk_id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	chunks := make([]county.Chunk, len(models))
	for i, m := range models {
		chunks[i] = m.toDomain()
	}
	return chunks, nil
}

// Get returns the chunk at the given index row.
func (s *ChunkStore) Get(ctx context.Context, id int) (county.Chunk, error) {
	var m chunkModel
	if err := s.db.Session(ctx).First(&m, "chunk_id = ?", id).Error; err != nil {
		return county.Chunk{}, fmt.Errorf("failed to load chunk %d: %w", id, err)
	}
	return m.toDomain(), nil
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&chunkModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}
