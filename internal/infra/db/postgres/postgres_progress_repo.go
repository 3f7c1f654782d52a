package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

// Ensure progressRepo implements repository.ProgressRepository
var _ repository.ProgressRepository = (*progressRepo)(nil)

type progressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *progressRepo {
	return &progressRepo{pool: pool}
}

func (r *progressRepo) FindPath(ctx context.Context, tx repository.Tx, pathID string) (*model.LearningPath, error) {
	const qPath = `SELECT id, title FROM learning_paths WHERE id=$1;`
	row, err := queryRow(ctx, r.pool, tx, qPath, pathID)
	if err != nil {
		return nil, err
	}
	var p model.LearningPath
	if err := row.Scan(&p.ID, &p.Title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	// Modules and chapters come back in one ordered pass each.
	const qModules = `
SELECT id, title
  FROM path_modules
 WHERE path_id=$1
 ORDER BY position ASC;`
	rows, err := queryRows(ctx, r.pool, tx, qModules, pathID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	moduleIdx := make(map[string]int)
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.Title); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		moduleIdx[m.ID] = len(p.Modules)
		p.Modules = append(p.Modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}

	const qChapters = `
SELECT c.id, c.module_id, c.title, c.has_assessment
  FROM module_chapters c
  JOIN path_modules m ON m.id = c.module_id
 WHERE m.path_id=$1
 ORDER BY m.position ASC, c.position ASC;`
	crows, err := queryRows(ctx, r.pool, tx, qChapters, pathID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer crows.Close()
	for crows.Next() {
		var ch model.Chapter
		var moduleID string
		if err := crows.Scan(&ch.ID, &moduleID, &ch.Title, &ch.HasAssessment); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if i, ok := moduleIdx[moduleID]; ok {
			p.Modules[i].Chapters = append(p.Modules[i].Chapters, ch)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *progressRepo) FindFacts(ctx context.Context, tx repository.Tx, userID, pathID string) (*model.ProgressFacts, error) {
	const q = `
SELECT p.chapter_id, p.completed, p.assessment_score
  FROM chapter_progress p
  JOIN module_chapters c ON c.id = p.chapter_id
  JOIN path_modules m ON m.id = c.module_id
 WHERE p.user_id=$1 AND m.path_id=$2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, pathID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	facts := model.NewProgressFacts(userID, pathID)
	for rows.Next() {
		var cp model.ChapterProgress
		if err := rows.Scan(&cp.ChapterID, &cp.Completed, &cp.AssessmentScore); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		facts.Chapters[cp.ChapterID] = cp
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return facts, nil
}
