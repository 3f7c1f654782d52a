package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

// Compile-time check
var _ UnlockResolver = (*unlockResolver)(nil)

// UnlockResolver computes lock state from structure and progress facts on
// every call. Nothing is persisted: there is no unlock table to go stale.
//
// The policy is a monotone prefix unlock. A module at index i is unlocked
// iff every module before it satisfies the completion predicate; the same
// rule applies to chapters inside an unlocked module. Unlocking is always
// contiguous from the start, never sparse.
type UnlockResolver interface {
	ModuleAccess(ctx context.Context, userID, pathID string, moduleIndex int) (model.ModuleAccess, error)
	ChapterAccess(ctx context.Context, userID, pathID string, moduleIndex, chapterIndex int) (model.ModuleAccess, error)
}

type unlockResolver struct {
	progress repository.ProgressRepository
	complete model.CompletionPredicate
	log      *zerolog.Logger
}

func NewUnlockResolver(progress repository.ProgressRepository, complete model.CompletionPredicate, logger *zerolog.Logger) *unlockResolver {
	l := logger.With().Str("component", "UnlockResolver").Logger()
	return &unlockResolver{progress: progress, complete: complete, log: &l}
}

// load fetches structure and facts. A missing path is a deny, not a crash.
func (u *unlockResolver) load(ctx context.Context, userID, pathID string) (*model.LearningPath, *model.ProgressFacts, *model.ModuleAccess, error) {
	path, err := u.progress.FindPath(ctx, repository.NoTX, pathID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			denied := deny(model.ReasonPathNotFound)
			return nil, nil, &denied, nil
		}
		return nil, nil, nil, err
	}
	if len(path.Modules) == 0 {
		denied := deny(model.ReasonPathEmpty)
		return nil, nil, &denied, nil
	}
	facts, err := u.progress.FindFacts(ctx, repository.NoTX, userID, pathID)
	if err != nil {
		return nil, nil, nil, err
	}
	return path, facts, nil, nil
}

func (u *unlockResolver) ModuleAccess(ctx context.Context, userID, pathID string, moduleIndex int) (model.ModuleAccess, error) {
	if userID == "" || pathID == "" {
		return model.ModuleAccess{}, domain.ErrInvalidArgument
	}

	path, facts, denied, err := u.load(ctx, userID, pathID)
	if err != nil {
		return model.ModuleAccess{}, err
	}
	if denied != nil {
		return *denied, nil
	}

	unlocked := u.unlockedModuleCount(path, facts)
	if moduleIndex < 0 || moduleIndex >= len(path.Modules) {
		a := deny(model.ReasonIndexOutOfRange)
		a.UnlockedCount = unlocked
		return a, nil
	}
	if moduleIndex >= unlocked {
		a := deny(model.ReasonPreviousModuleIncomplete)
		a.UnlockedCount = unlocked
		return a, nil
	}
	return model.ModuleAccess{HasAccess: true, IsLocked: false, UnlockedCount: unlocked}, nil
}

func (u *unlockResolver) ChapterAccess(ctx context.Context, userID, pathID string, moduleIndex, chapterIndex int) (model.ModuleAccess, error) {
	mod, err := u.ModuleAccess(ctx, userID, pathID, moduleIndex)
	if err != nil {
		return model.ModuleAccess{}, err
	}
	if !mod.HasAccess {
		if mod.Reason == model.ReasonPreviousModuleIncomplete {
			mod.Reason = model.ReasonModuleLocked
		}
		return mod, nil
	}

	// Module is unlocked; apply the same prefix rule to its chapters.
	path, facts, denied, err := u.load(ctx, userID, pathID)
	if err != nil {
		return model.ModuleAccess{}, err
	}
	if denied != nil {
		return *denied, nil
	}

	chapters := path.Modules[moduleIndex].Chapters
	if chapterIndex < 0 || chapterIndex >= len(chapters) {
		a := deny(model.ReasonIndexOutOfRange)
		a.UnlockedCount = mod.UnlockedCount
		return a, nil
	}
	for i := 0; i < chapterIndex; i++ {
		if !facts.ChapterCompleted(chapters[i].ID) {
			a := deny(model.ReasonPreviousChapterIncomplete)
			a.UnlockedCount = mod.UnlockedCount
			return a, nil
		}
	}
	return model.ModuleAccess{HasAccess: true, IsLocked: false, UnlockedCount: mod.UnlockedCount}, nil
}

// unlockedModuleCount returns the length of the unlocked prefix: index 0 is
// always unlocked, and each further module requires every predecessor to be
// complete.
func (u *unlockResolver) unlockedModuleCount(path *model.LearningPath, facts *model.ProgressFacts) int {
	unlocked := 1
	for i := 0; i < len(path.Modules)-1; i++ {
		if !u.complete(path.Modules[i], facts) {
			break
		}
		unlocked++
	}
	return unlocked
}

func deny(reason string) model.ModuleAccess {
	return model.ModuleAccess{HasAccess: false, IsLocked: true, Reason: reason}
}
