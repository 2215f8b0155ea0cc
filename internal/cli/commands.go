package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	var language string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the index",
		Long: `Embeds the question, retrieves the closest chunks and generates a cited
answer. The question is logged like one asked over HTTP.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, b Backend) error {
				result, err := b.Answer(ctx, args[0], language)
				if err != nil {
					return err
				}
				if asJSON {
					data, err := json.MarshalIndent(result, "", "  ")
					if err != nil {
						return fmt.Errorf("failed to marshal answer: %w", err)
					}
					cmd.Println(string(data))
					return nil
				}
				cmd.Println(result.Answer)
				cmd.Println()
				cmd.Printf("Confidence: %.2f (%s)  Query: %d\n", result.Confidence, result.ConfidenceLevel, result.Id)
				if result.Outcome.Degraded() {
					cmd.Printf("Outcome: %s\n", result.Outcome)
				}
				for i, src := range result.Sources {
					cmd.Printf("  [%d] %s (%s) document %d\n", i+1, src.DocumentTitle, src.Country, src.DocumentId)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "answer language (default en)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the full record as JSON")
	return cmd
}

func newIndexCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index [document-id]",
		Short: "Index one approved document now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentId(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, b Backend) error {
				result, err := b.IndexDocument(ctx, id)
				if err != nil {
					return fmt.Errorf("indexing document %d: %w", id, err)
				}
				cmd.Printf("Document %d: %s (%d chunks)\n", id, result.Status, result.ChunkCount)
				return nil
			})
		},
	}
}

func newIndexAllCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index-all",
		Short: "Sync the index with every approved document",
		Long: `Indexes approved documents that are missing or changed and retracts
indexed documents that are no longer approved. Runs until done.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, b Backend) error {
				summary, err := b.IndexAll(ctx)
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				cmd.Printf("Indexed: %d  Unchanged: %d  Retracted: %d  Failed: %d\n",
					summary.Indexed, summary.Unchanged, summary.Retracted, len(summary.Failed))
				if len(summary.Failed) == 0 {
					return nil
				}
				ids := make([]int64, 0, len(summary.Failed))
				for id := range summary.Failed {
					ids = append(ids, id)
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
				for _, id := range ids {
					cmd.Printf("  document %d: %v\n", id, summary.Failed[id])
				}
				return fmt.Errorf("%d documents failed", len(ids))
			})
		},
	}
}

func newRetractCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retract [document-id]",
		Short: "Remove a document from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentId(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, b Backend) error {
				if err := b.RetractDocument(ctx, id); err != nil {
					return fmt.Errorf("retracting document %d: %w", id, err)
				}
				cmd.Printf("Document %d removed from the index\n", id)
				return nil
			})
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show model availability and index size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, b Backend) error {
				health := b.Health(ctx)
				cmd.Printf("Embedder:   %s\n", availability(health.EmbedderAvailable))
				cmd.Printf("Generator:  %s\n", availability(health.GeneratorAvailable))
				cmd.Printf("Chunks:     %d\n", health.TotalChunks)
				if health.LastQueryAt != nil {
					cmd.Printf("Last query: %s\n", health.LastQueryAt.Format("2006-01-02 15:04:05 MST"))
				} else {
					cmd.Println("Last query: never")
				}
				return nil
			})
		},
	}
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func newAnalyticsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Summarise logged questions and feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, b Backend) error {
				a, err := b.Analytics(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("Questions:          %d\n", a.TotalQueries)
				cmd.Printf("Average confidence: %.2f\n", a.AverageConfidence)
				cmd.Printf("Average response:   %.0f ms\n", a.AverageResponseTimeMs)
				cmd.Printf("Feedback:           %d helpful, %d not helpful, %d none\n",
					a.FeedbackSummary.Helpful, a.FeedbackSummary.NotHelpful, a.FeedbackSummary.None)
				return nil
			})
		},
	}
}

func newResetIndexCommand(opts *rootOptions) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset-index",
		Short: "Delete every indexed chunk",
		Long: `Empties the index and forgets its embedding dimension. Needed after
changing the embedding model; run index-all afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("reset-index deletes the whole index; pass --yes to confirm")
			}
			return opts.run(cmd, func(ctx context.Context, b Backend) error {
				if err := b.ResetIndex(ctx); err != nil {
					return err
				}
				cmd.Println("Index reset. Run 'ragctl index-all' to rebuild it.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}
