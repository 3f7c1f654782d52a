package repository

import (
	"context"

	"learning-entitlement/internal/domain/model"
)

// ProgressRepository serves learning-path structure and per-learner
// completion facts. Both are owned by the content collaborator and are
// strictly read-only here.
type ProgressRepository interface {
	FindPath(ctx context.Context, tx Tx, pathID string) (*model.LearningPath, error)

	// FindFacts returns the learner's facts for a path. A learner with no
	// recorded progress gets empty facts, not an error.
	FindFacts(ctx context.Context, tx Tx, userID, pathID string) (*model.ProgressFacts, error)
}
