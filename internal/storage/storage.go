package storage

import (
	"context"

	"rateAdjuster/internal/model"
)

// DefaultLatestLimit is the number of records LatestChanges returns when
// asked for a non-positive limit.
const DefaultLatestLimit = 100

// Journal defines a sink for configuration change records.
type Journal interface {
	PutChanges(ctx context.Context, changes []model.ConfigChangeRecord) error
}
