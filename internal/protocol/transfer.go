package protocol

import (
	"context"

	"go.uber.org/zap"
)

// TransferSink is the boundary to the transaction collaborator. The core
// only issues instructions; submission and broadcast mechanics live outside.
type TransferSink interface {
	// Transfer instructs moving amount (smallest currency units) from the
	// protocol escrow to the given destination.
	Transfer(ctx context.Context, destination string, amount int64, memo string) error
}

// LoggedTransfers records instructions to the log. It backs dev mode, where
// no transaction collaborator is wired.
type LoggedTransfers struct {
	logger *zap.Logger
}

func NewLoggedTransfers(logger *zap.Logger) *LoggedTransfers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggedTransfers{logger: logger}
}

func (t *LoggedTransfers) Transfer(_ context.Context, destination string, amount int64, memo string) error {
	t.logger.Info("transfer instructed",
		zap.String("destination", destination),
		zap.Int64("amount", amount),
		zap.String("memo", memo))
	return nil
}
