// Package ingest turns a batch of uploaded files into tagged chunks:
// parse, normalize, split, tag.
package ingest

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"document-retrieval/internal/chunker"
	"document-retrieval/internal/config"
	"document-retrieval/internal/helper"
	"document-retrieval/internal/models"
	"document-retrieval/internal/normalize"
	"document-retrieval/internal/parser"
)

type Status string

const (
	StatusIndexed Status = "indexed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// FileReport describes what happened to one file of a batch.
type FileReport struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Status   Status `json:"status"`
	Units    int    `json:"units"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}

// Report summarizes one ingestion batch.
type Report struct {
	CorpusID string       `json:"corpus_id"`
	Files    []FileReport `json:"files"`
	Chunks   int          `json:"chunks"`
}

// Failed returns the reports of files that could not be decoded.
func (r *Report) Failed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Status == StatusFailed {
			out = append(out, f)
		}
	}
	return out
}

// Pipeline runs the per-file stages.
//
// Unsupported extensions are skipped and reported. A file that fails to
// decode is reported and skipped too, unless the pipeline is strict, in
// which case the first *DecodeError aborts the batch.
type Pipeline struct {
	splitter chunker.Splitter
	strict   bool
}

func NewPipeline(splitter chunker.Splitter, strict bool) *Pipeline {
	return &Pipeline{splitter: splitter, strict: strict}
}

// NewPipelineFromConfig selects the splitter named in cfg.
func NewPipelineFromConfig(cfg *config.RAGConfig) *Pipeline {
	var s chunker.Splitter
	switch cfg.Splitter {
	case config.SplitterLangchain:
		s = chunker.NewLangchain(cfg.ChunkSize, cfg.ChunkOverlap, cfg.Separators)
	default:
		s = chunker.NewRecursive(
			chunker.WithChunkSize(cfg.ChunkSize),
			chunker.WithChunkOverlap(cfg.ChunkOverlap),
			chunker.WithSeparators(cfg.Separators),
		)
	}
	return NewPipeline(s, cfg.Strict)
}

// Run processes files in order and returns the flat chunk collection with
// ordinals 0..n-1.
func (p *Pipeline) Run(ctx context.Context, files []models.File) ([]models.Chunk, *Report, error) {
	corpusID, err := helper.GenerateUUID()
	if err != nil {
		return nil, nil, err
	}
	report := &Report{CorpusID: corpusID}

	var chunks []models.Chunk
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		fr := FileReport{Filename: f.Name, Format: parser.Detect(f.Name).String()}
		units, documentID, err := parser.Parse(f.Data, f.Name)

		var unsupported *models.UnsupportedFormatError
		var decodeErr *models.DecodeError
		switch {
		case errors.As(err, &unsupported):
			fr.Status = StatusSkipped
			fr.Error = err.Error()
			log.Warn().Str("file", f.Name).Msg("Skipping file with unsupported format")
			report.Files = append(report.Files, fr)
			continue
		case errors.As(err, &decodeErr):
			if p.strict {
				return nil, report, err
			}
			fr.Status = StatusFailed
			fr.Error = err.Error()
			log.Warn().Err(err).Str("file", f.Name).Msg("Skipping undecodable file")
			report.Files = append(report.Files, fr)
			continue
		case err != nil:
			return nil, report, err
		}

		fileChunks, err := p.chunkUnits(documentID, units, len(chunks))
		if err != nil {
			return nil, report, err
		}
		chunks = append(chunks, fileChunks...)

		fr.Status = StatusIndexed
		fr.Units = len(units)
		fr.Chunks = len(fileChunks)
		report.Files = append(report.Files, fr)
		log.Debug().Str("file", f.Name).Int("units", fr.Units).Int("chunks", fr.Chunks).Msg("Chunked file")
	}

	report.Chunks = len(chunks)
	log.Info().Str("corpus", corpusID).Int("files", len(files)).Int("chunks", len(chunks)).Msg("Ingested batch")
	return chunks, report, nil
}

func (p *Pipeline) chunkUnits(documentID string, units []models.RawTextUnit, firstOrdinal int) ([]models.Chunk, error) {
	var out []models.Chunk
	for _, u := range units {
		text := normalize.Normalize(u.Content)
		if text == "" {
			continue
		}
		pieces, err := p.splitter.Split(text)
		if err != nil {
			return nil, err
		}
		out = append(out, chunker.Tag(documentID, u.UnitIndex, pieces, firstOrdinal+len(out))...)
	}
	return out, nil
}
