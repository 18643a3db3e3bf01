package storage

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rateAdjuster/internal/model"
)

// JournalNotifier records every configuration change into a Journal.
// Journal failures are logged; the change itself is already installed.
type JournalNotifier struct {
	journal Journal
	logger  *zap.Logger
	now     func() time.Time
}

func NewJournalNotifier(journal Journal, logger *zap.Logger) *JournalNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalNotifier{journal: journal, logger: logger, now: time.Now}
}

// Notify journals a single change.
func (n *JournalNotifier) Notify(ctx context.Context, caller common.Address, change model.ConfigChange) {
	record := model.ConfigChangeRecord{
		Event:      change.Event,
		Args:       append([]string(nil), change.Args...),
		Caller:     caller.Hex(),
		IngestedAt: n.now().UTC().Format(time.RFC3339Nano),
	}
	if err := n.journal.PutChanges(ctx, []model.ConfigChangeRecord{record}); err != nil {
		n.logger.Warn("journal config change failed", zap.String("event", change.Event), zap.Error(err))
	}
}

// Notifier is the subset of engine.Notifier implemented by sinks here.
type Notifier interface {
	Notify(ctx context.Context, caller common.Address, change model.ConfigChange)
}

// MultiNotifier fans a change out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, caller common.Address, change model.ConfigChange) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, caller, change)
		}
	}
}
