package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/config"
	"rezoomai/resume-api/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Embed reference guidance documents into Qdrant",
	Long: `Extracts text from each PDF, DOCX or TXT file, splits it into chunks and stores
their embeddings in the guidance collection. Re-ingesting a file replaces its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		docType, _ := cmd.Flags().GetString("doc-type")
		return ingest(cmd.Context(), cfg, log, docType, args)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("doc-type", services.DocTypeResumeGuide, "document type stored with each chunk")
}

type ingester struct {
	embedder  services.Embedder
	store     services.GuidanceStore
	extractor services.TextExtractor
	chunker   services.TextChunker
	docType   string
	log       *zap.Logger
}

func ingest(ctx context.Context, cfg *config.Config, log *zap.Logger, docType string, paths []string) error {
	gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini: %w", err)
	}

	store, err := newGuidanceStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	in := &ingester{
		embedder:  gemini,
		store:     store,
		extractor: services.NewTextExtractor(),
		chunker:   services.NewTextChunker(),
		docType:   docType,
		log:       log,
	}

	var failed []string
	for _, path := range paths {
		if err := in.ingestFile(ctx, path); err != nil {
			log.Error("failed to ingest document", zap.String("path", path), zap.Error(err))
			failed = append(failed, path)
		}
	}

	log.Info("ingestion summary",
		zap.Int("successful", len(paths)-len(failed)),
		zap.Int("failed", len(failed)),
	)
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d documents failed to ingest: %v", len(failed), len(paths), failed)
	}
	return nil
}

// ingestFile replaces every chunk previously stored for path. A file fails
// when any chunk cannot be embedded or when no chunk could be stored.
func (in *ingester) ingestFile(ctx context.Context, path string) error {
	source := filepath.Base(path)
	log := in.log.With(zap.String("source", source), zap.String("doc_type", in.docType))

	kind, err := services.KindFromFilename(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	text, err := in.extractor.Extract(kind, data)
	if err != nil {
		return err
	}

	chunks := in.chunker.Chunk(text, services.DefaultChunkSize, services.DefaultChunkOverlap)
	if len(chunks) == 0 {
		return errors.New("no chunks produced")
	}
	log.Info("document extracted", zap.Int("chars", len([]rune(text))), zap.Int("chunks", len(chunks)))

	// Existing chunks stay in place unless every new chunk has an embedding.
	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		embedding, err := in.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to generate embedding for chunk %d: %w", i+1, err)
		}
		embeddings[i] = embedding
	}

	if err := in.store.DeleteSource(ctx, source); err != nil {
		return err
	}

	stored := 0
	for i, chunk := range chunks {
		err := in.store.UpsertChunk(ctx, services.GuidanceChunk{
			Source:  source,
			DocType: in.docType,
			Index:   i,
			Text:    chunk,
		}, embeddings[i])
		if err != nil {
			log.Warn("failed to store chunk", zap.Int("chunk", i+1), zap.Error(err))
			continue
		}
		stored++

		if stored%5 == 0 || i == len(chunks)-1 {
			log.Debug("progress", zap.Int("stored", stored), zap.Int("total", len(chunks)))
		}
	}

	if stored == 0 {
		return errors.New("no chunks stored")
	}
	log.Info("document ingested", zap.Int("stored", stored), zap.Int("total", len(chunks)))
	return nil
}
