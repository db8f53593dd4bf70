package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hrlawbot/hrlawbot/internal/ingestion"
)

// NewIngestCmd constructs the `hrlawbot ingest` command, which runs the
// document ingestion pipeline to populate the vector store.
func NewIngestCmd() *cobra.Command {
	var dataDir string
	var chunkSize int
	var chunkOverlap int
	var replace bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest HR/labour-law documents into the vector store",
		Long: `Scan a directory for PDF, TXT, and MD documents, extract and chunk their
text, embed each chunk, and store the results for retrieval.

Files that cannot be processed (unsupported format, empty after extraction,
unreadable) are logged and skipped; the rest of the batch always continues.

Relevant environment variables:
  DATA_DIR           Directory scanned for documents (default: ./sample_data)
  DB_PATH            Local chunk database directory (default: ./ragdb)
  COLLECTION         Chunk collection name (default: hrlaw)
  CHUNK_SIZE         Chunk window size in words (default: 1200)
  CHUNK_OVERLAP      Word overlap between chunks (default: 200)
  QDRANT_HOST        If set, store chunks in Qdrant instead of SQLite
  EMBEDDING_PROVIDER Embedding backend: ollama, openai, azure (default: ollama)
  EMBED_MODEL_NAME   Embedding model name

Examples:
  hrlawbot ingest
  hrlawbot ingest --data-dir ./docs --replace
  CHUNK_SIZE=800 CHUNK_OVERLAP=100 hrlawbot ingest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()

			if !cmd.Flags().Changed("data-dir") {
				dataDir = getEnvOrDefault("DATA_DIR", dataDir)
			}
			if !cmd.Flags().Changed("chunk-size") {
				chunkSize = getEnvInt("CHUNK_SIZE", chunkSize)
			}
			if !cmd.Flags().Changed("chunk-overlap") {
				chunkOverlap = getEnvInt("CHUNK_OVERLAP", chunkOverlap)
			}
			if !cmd.Flags().Changed("replace") {
				replace = os.Getenv("INGEST_REPLACE") == "true"
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			store, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer store.Close()

			pipeline, err := ingestion.NewPipeline(emb, store, &ingestion.Config{
				DataDir:      dataDir,
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
				Replace:      replace,
				Logger:       log,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			summary, err := pipeline.Run(ctx)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Printf("ingested %d file(s), %d chunk(s) stored, %d file(s) skipped\n",
				summary.FilesIngested, summary.ChunksStored, summary.FilesSkipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", "./sample_data", "Directory to scan for documents")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1200, "Chunk window size in words")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 200, "Word overlap between consecutive chunks")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete previously stored chunks for each document before adding")

	return cmd
}
