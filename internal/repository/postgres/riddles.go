package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

// RiddleRepository reads the riddle catalog.
type RiddleRepository struct {
	db pgExecutor
}

var _ port.RiddleRepository = (*RiddleRepository)(nil)

func NewRiddleRepository(pool *pgxpool.Pool) *RiddleRepository {
	return &RiddleRepository{db: pool}
}

type fileVariantRecord struct {
	Name       string `json:"name"`
	ObjectName string `json:"object_name"`
	Scale      int    `json:"scale"`
}

type riddleFileRecord struct {
	ObjectName string              `json:"object_name"`
	Name       string              `json:"name"`
	MimeType   string              `json:"mime_type"`
	Width      *int                `json:"width,omitempty"`
	Height     *int                `json:"height,omitempty"`
	Scale      *int                `json:"scale,omitempty"`
	Variants   []fileVariantRecord `json:"variants,omitempty"`
}

const riddleColumns = `id, level, difficulty, deduction, ignore_case,
	solution, task, debriefing, credits, files`

func scanRiddle(row pgx.Row) (*domain.Riddle, error) {
	var (
		riddle   domain.Riddle
		filesRaw []byte
	)
	err := row.Scan(&riddle.ID, &riddle.Level, &riddle.Difficulty,
		&riddle.Deduction, &riddle.IgnoreCase, &riddle.Solution,
		&riddle.Task, &riddle.Debriefing, &riddle.Credits, &filesRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan riddle: %w", err)
	}

	if len(filesRaw) > 0 {
		var records []riddleFileRecord
		if err := json.Unmarshal(filesRaw, &records); err != nil {
			return nil, fmt.Errorf("decode riddle files: %w", err)
		}
		for _, record := range records {
			file := domain.RiddleFile{
				ObjectName: record.ObjectName,
				Name:       record.Name,
				MimeType:   record.MimeType,
				Width:      record.Width,
				Height:     record.Height,
				Scale:      record.Scale,
			}
			for _, v := range record.Variants {
				file.Variants = append(file.Variants, domain.FileVariant(v))
			}
			riddle.Files = append(riddle.Files, file)
		}
	}
	return &riddle, nil
}

func (r *RiddleRepository) GetByID(ctx context.Context, id string) (*domain.Riddle, error) {
	query, args, err := statementBuilder.
		Select(riddleColumns).
		From("riddles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select riddle query: %w", err)
	}
	return scanRiddle(r.db.QueryRow(ctx, query, args...))
}

func (r *RiddleRepository) GetByLevel(ctx context.Context, level int) (*domain.Riddle, error) {
	query, args, err := statementBuilder.
		Select(riddleColumns).
		From("riddles").
		Where(squirrel.Eq{"level": level}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select riddle by level query: %w", err)
	}
	return scanRiddle(r.db.QueryRow(ctx, query, args...))
}
