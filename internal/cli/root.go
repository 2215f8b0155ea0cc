// Package cli implements ragctl, the operator command line for the index
// and the question log.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/spf13/cobra"
)

// Backend is the engine as ragctl sees it. *app.App implements it.
type Backend interface {
	Answer(ctx context.Context, question, language string) (ragModel.RAGQuery, error)
	Health(ctx context.Context) ragModel.IndexHealth
	Analytics(ctx context.Context) (ragModel.Analytics, error)
	IndexDocument(ctx context.Context, documentId int64) (ingest.Result, error)
	RetractDocument(ctx context.Context, documentId int64) error
	IndexAll(ctx context.Context) (ingest.SyncSummary, error)
	ResetIndex(ctx context.Context) error
	Close(ctx context.Context) error
}

// Opener builds a backend from the --config path.
type Opener func(ctx context.Context, configPath string) (Backend, error)

type rootOptions struct {
	configPath string
	open       Opener
}

func NewRootCommand(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}
	root := &cobra.Command{
		Use:   "ragctl",
		Short: "Operate the document question answering engine",
		Long: `ragctl answers questions, indexes approved documents and reports on
the question log, using the same configuration as the API server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $RAG_CONFIG)")

	root.AddCommand(
		newAskCommand(opts),
		newIndexCommand(opts),
		newIndexAllCommand(opts),
		newRetractCommand(opts),
		newStatusCommand(opts),
		newAnalyticsCommand(opts),
		newResetIndexCommand(opts),
	)
	return root
}

// run opens the backend for one command and always closes it.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := o.open(ctx, o.configPath)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer func() {
		err = errors.Join(err, backend.Close(context.WithoutCancel(ctx)))
	}()
	return fn(ctx, backend)
}

func parseDocumentId(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("document id must be a positive integer, got %q", raw)
	}
	return id, nil
}
