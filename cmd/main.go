package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-retrieval/internal/config"
	"document-retrieval/internal/db"
	"document-retrieval/internal/embedding"
	"document-retrieval/internal/helper"
	"document-retrieval/internal/index"
	"document-retrieval/internal/ingest"
	"document-retrieval/internal/models"
	"document-retrieval/internal/rag"
)

const defaultConfigPath = "./configs/config.yaml"

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docrag",
		Short: "Index documents and retrieve grounding passages for a question",
		Long: `docrag extracts text from PDF, DOCX, XLSX, Markdown and plain text files,
splits it into overlapping chunks, embeds them and answers top-k similarity queries.

Settings come from the YAML config file and DOCRAG_* environment variables,
for example DOCRAG_EMBED_LLM_KEY or DOCRAG_RAG_CHUNK_SIZE.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to the YAML config file")

	rootCmd.AddCommand(indexCmd(&configPath))
	rootCmd.AddCommand(searchCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func indexCmd(configPath *string) *cobra.Command {
	var toDB bool

	cmd := &cobra.Command{
		Use:   "index FILE...",
		Short: "Build an index from files and write it to the configured snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, embedder, err := setup(*configPath)
			if err != nil {
				return err
			}

			files, err := readFiles(args)
			if err != nil {
				return err
			}

			session := rag.NewSession(ingest.NewPipelineFromConfig(&cfg.RAG), embedder, &cfg.RAG)
			report, err := session.Ingest(ctx, files)
			if report != nil {
				helper.PrettyPrint(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}
			ix := session.Active()

			if cfg.Snapshot.Path != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.Snapshot.Path), 0o755); err != nil {
					return fmt.Errorf("create snapshot folder: %w", err)
				}
				if err := ix.Export(cfg.Snapshot.Path, cfg.Snapshot.Compress, cfg.Snapshot.EncryptionKey); err != nil {
					return err
				}
				log.Info().Str("path", cfg.Snapshot.Path).Msg("Wrote snapshot")
			}
			if toDB {
				if err := storeSnapshot(ctx, cfg, ix); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&toDB, "postgres", false, "Also replace the snapshot stored in Postgres")
	return cmd
}

func searchCmd(configPath *string) *cobra.Command {
	var (
		filePaths []string
		k         int
		fromDB    bool
		asContext bool
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Return the passages most similar to QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, embedder, err := setup(*configPath)
			if err != nil {
				return err
			}
			session := rag.NewSession(ingest.NewPipelineFromConfig(&cfg.RAG), embedder, &cfg.RAG)

			switch {
			case len(filePaths) > 0:
				files, err := readFiles(filePaths)
				if err != nil {
					return err
				}
				if _, err := session.Ingest(ctx, files); err != nil {
					return err
				}
			case fromDB:
				ix, err := loadSnapshot(ctx, cfg)
				if err != nil {
					return err
				}
				session.Restore(ix)
			case cfg.Snapshot.Path != "":
				ix, err := index.Import(ctx, cfg.Snapshot.Path, cfg.Snapshot.EncryptionKey,
					index.WithConcurrency(cfg.RAG.Concurrency))
				if err != nil {
					return err
				}
				session.Restore(ix)
			}

			result, err := session.Query(ctx, args[0], k)
			if err != nil {
				return err
			}
			if asContext {
				fmt.Fprint(cmd.OutOrStdout(), rag.FormatContext(result))
				return nil
			}
			helper.PrettyPrint(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&filePaths, "file", "f", nil, "Ingest this file instead of loading a snapshot (repeatable)")
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "Number of passages to return (default rag.top_k)")
	cmd.Flags().BoolVar(&fromDB, "postgres", false, "Load the snapshot stored in Postgres")
	cmd.Flags().BoolVar(&asContext, "context", false, "Print passages as a prompt context block")
	return cmd
}

func setup(configPath string) (*config.Config, embedding.Embedder, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	helper.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log.Debug().Interface("rag", cfg.RAG).Str("provider", cfg.EmbedLLM.Provider).Msg("Loaded config")

	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		return nil, nil, err
	}
	return cfg, embedder, nil
}

func readFiles(paths []string) ([]models.File, error) {
	files := make([]models.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, models.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func storeSnapshot(ctx context.Context, cfg *config.Config, ix *index.Index) error {
	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		return err
	}
	bunDB := db.NewDB(sqldb, cfg.Database.Debug)
	defer bunDB.Close()

	if err := db.InitDB(ctx, bunDB); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	entries, err := ix.Records(ctx)
	if err != nil {
		return err
	}
	if err := db.ReplaceSnapshot(ctx, bunDB, db.ToRecords(ix.CorpusID(), ix.Embedder(), entries)); err != nil {
		return err
	}
	log.Info().Str("corpus", ix.CorpusID()).Int("chunks", len(entries)).Msg("Stored snapshot in postgres")
	return nil
}

func loadSnapshot(ctx context.Context, cfg *config.Config) (*index.Index, error) {
	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	bunDB := db.NewDB(sqldb, cfg.Database.Debug)
	defer bunDB.Close()

	records, err := db.LoadSnapshot(ctx, bunDB)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	entries, corpusID, embedder, err := db.FromRecords(records)
	if err != nil {
		return nil, err
	}
	return index.FromRecords(ctx, entries, embedder,
		index.WithCorpusID(corpusID),
		index.WithConcurrency(cfg.RAG.Concurrency),
	)
}
