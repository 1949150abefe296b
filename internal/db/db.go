package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-retrieval/internal/config"
	"document-retrieval/internal/models"
)

// ChunkRecord is one row of the corpus snapshot.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:corpus_chunks,alias:c"`
	Ordinal       int       `bun:"ordinal,pk"`
	CorpusID      string    `bun:"corpus_id,notnull"`
	Embedder      string    `bun:"embedder,notnull"`
	DocumentID    string    `bun:"document_id,notnull"`
	UnitIndex     int       `bun:"unit_index,notnull"`
	ChunkIndex    int       `bun:"chunk_index,notnull"`
	SourceLabel   string    `bun:"source_label,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,array,type:real[],notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, &models.ConfigurationError{Reason: "database.dsn is required"}
	}
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

// ToRecords flattens an index snapshot into rows.
func ToRecords(corpusID, embedder string, entries []models.ChunkEmbedding) []ChunkRecord {
	records := make([]ChunkRecord, len(entries))
	for i, e := range entries {
		records[i] = ChunkRecord{
			Ordinal:     e.Ordinal,
			CorpusID:    corpusID,
			Embedder:    embedder,
			DocumentID:  e.DocumentID,
			UnitIndex:   e.UnitIndex,
			ChunkIndex:  e.ChunkIndex,
			SourceLabel: e.SourceLabel,
			Content:     e.Text,
			Embedding:   e.Embedding,
		}
	}
	return records
}

// FromRecords is the inverse of ToRecords. All rows must come from one
// corpus; the corpus id and embedder name are returned with the entries.
func FromRecords(records []ChunkRecord) (entries []models.ChunkEmbedding, corpusID, embedder string, err error) {
	entries = make([]models.ChunkEmbedding, len(records))
	for i, r := range records {
		if i == 0 {
			corpusID, embedder = r.CorpusID, r.Embedder
		} else if r.CorpusID != corpusID || r.Embedder != embedder {
			return nil, "", "", fmt.Errorf("snapshot mixes corpora %s and %s", corpusID, r.CorpusID)
		}
		entries[i] = models.ChunkEmbedding{
			Chunk: models.Chunk{
				Text:        r.Content,
				DocumentID:  r.DocumentID,
				UnitIndex:   r.UnitIndex,
				ChunkIndex:  r.ChunkIndex,
				SourceLabel: r.SourceLabel,
				Ordinal:     r.Ordinal,
			},
			Embedding: r.Embedding,
		}
	}
	return entries, corpusID, embedder, nil
}

// ReplaceSnapshot swaps the stored corpus for records in one transaction.
func ReplaceSnapshot(ctx context.Context, db *bun.DB, records []ChunkRecord) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewTruncateTable().Model((*ChunkRecord)(nil)).Exec(ctx); err != nil {
			return fmt.Errorf("truncate snapshot: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&records).Exec(ctx); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	})
}

// LoadSnapshot reads the stored corpus ordered by ordinal.
func LoadSnapshot(ctx context.Context, db *bun.DB) ([]ChunkRecord, error) {
	var records []ChunkRecord
	err := db.NewSelect().
		Model(&records).
		OrderExpr("ordinal ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return records, nil
}

// drop table corpus_chunks
func DropSnapshot(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*ChunkRecord)(nil)).IfExists().Exec(ctx)
	return err
}
