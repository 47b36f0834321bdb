package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentRecord struct {
	ContentHash     string            `gorm:"type:char(64);primaryKey"`
	SourceName      string            `gorm:"type:text"`
	EmbeddingVector pgvector.Vector   `gorm:"type:vector"` // dimension depends on the embedding provider
	Metadata        datatypes.JSONMap `gorm:"type:jsonb"`
	Passages        []DocumentPassage `gorm:"foreignKey:ContentHash;references:ContentHash;constraint:OnDelete:CASCADE"`
	InsertedAt      time.Time         `gorm:"not null;index"`
}

func (DocumentRecord) TableName() string {
	return "document_records"
}

type DocumentPassage struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ContentHash    string          `gorm:"type:char(64);not null;index:idx_passage_order,priority:1"`
	PassageIndex   int             `gorm:"not null;index:idx_passage_order,priority:2"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"`
}

func (DocumentPassage) TableName() string {
	return "document_passages"
}
