package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrlawbot/hrlawbot/internal/answer"
	"github.com/hrlawbot/hrlawbot/internal/provider"
	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// NewAskCmd constructs the `hrlawbot ask` command, which answers a single
// question from the ingested corpus and prints the reply with its sources.
func NewAskCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask an HR/labour-law question against the ingested documents",
		Long: `Answer a single natural language question using the ingested corpus.

The question is embedded, the closest document chunks are retrieved, and the
model generates an answer grounded strictly in that context. The cited source
documents are printed after the answer.

Examples:
  hrlawbot ask "how many vacation days do employees accrue per year?"
  hrlawbot ask --top-k 8 "what is the notice period for termination?"
  MODEL_PROVIDER=ollama hrlawbot ask "is overtime compensated?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			store, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer store.Close()

			retriever, err := rag.NewRetriever(emb, store, answer.DefaultTopK)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}
			generator, err := provider.NewChatGenerator(chatModel)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			svc, err := answer.NewService(retriever, generator, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			payload, err := svc.Ask(ctx, answer.Query{
				Question: strings.Join(args, " "),
				TopK:     topK,
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(payload.Answer)
			if len(payload.Sources) > 0 {
				fmt.Printf("\nSources: %s\n", strings.Join(payload.Sources, ", "))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to retrieve (default 5)")

	return cmd
}
