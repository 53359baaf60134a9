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

// RoomRepository reads the static room graph.
type RoomRepository struct {
	db pgExecutor
}

var _ port.RoomRepository = (*RoomRepository)(nil)

func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: pool}
}

// doorwayRecord is the JSONB shape of one entry of a room's edge set.
type doorwayRecord struct {
	Direction string `json:"direction"`
	RiddleID  string `json:"riddle_id"`
	Level     int    `json:"level,omitempty"`
}

const roomColumns = "id, number, coords, game_id, neighbors, entry, exit"

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		room         domain.Room
		neighborsRaw []byte
	)
	err := row.Scan(&room.ID, &room.Number, &room.Coords, &room.GameID,
		&neighborsRaw, &room.Entry, &room.Exit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}

	if len(neighborsRaw) > 0 {
		var records []doorwayRecord
		if err := json.Unmarshal(neighborsRaw, &records); err != nil {
			return nil, fmt.Errorf("decode room neighbors: %w", err)
		}
		for _, r := range records {
			room.Neighbors = append(room.Neighbors, domain.Doorway(r))
		}
	}
	return &room, nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	query, args, err := statementBuilder.
		Select(roomColumns).
		From("rooms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select room query: %w", err)
	}
	return scanRoom(r.db.QueryRow(ctx, query, args...))
}

func (r *RoomRepository) FindBehind(ctx context.Context, direction, riddleID string) (*domain.Room, error) {
	probe, err := json.Marshal([]doorwayRecord{{Direction: direction, RiddleID: riddleID}})
	if err != nil {
		return nil, fmt.Errorf("encode doorway probe: %w", err)
	}

	query, args, err := statementBuilder.
		Select(roomColumns).
		From("rooms").
		Where(squirrel.Expr("neighbors @> ?::jsonb", string(probe))).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find-behind query: %w", err)
	}
	return scanRoom(r.db.QueryRow(ctx, query, args...))
}

func (r *RoomRepository) FindEntry(ctx context.Context, gameID string) (*domain.Room, error) {
	builder := statementBuilder.
		Select(roomColumns).
		From("rooms").
		Where(squirrel.Eq{"entry": true})
	if gameID != "" {
		builder = builder.Where(squirrel.Eq{"game_id": gameID})
	}

	query, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find-entry query: %w", err)
	}
	return scanRoom(r.db.QueryRow(ctx, query, args...))
}

func (r *RoomRepository) CountByGame(ctx context.Context, gameID string) (int, error) {
	query, args, err := statementBuilder.
		Select("COUNT(*)").
		From("rooms").
		Where(squirrel.Eq{"game_id": gameID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count rooms query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return count, nil
}

func (r *RoomRepository) CountDistinctRiddles(ctx context.Context, gameID string) (int, error) {
	const query = `
		SELECT COUNT(DISTINCT doorway->>'riddle_id')
		FROM rooms, jsonb_array_elements(neighbors) AS doorway
		WHERE game_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, gameID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count distinct riddles: %w", err)
	}
	return count, nil
}

func (r *RoomRepository) MaxScore(ctx context.Context, gameID string) (int, error) {
	const query = `
		SELECT COALESCE(SUM(difficulty), 0)
		FROM riddles
		WHERE id IN (
			SELECT DISTINCT doorway->>'riddle_id'
			FROM rooms, jsonb_array_elements(neighbors) AS doorway
			WHERE game_id = $1
		)`

	var sum int
	if err := r.db.QueryRow(ctx, query, gameID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum reachable difficulties: %w", err)
	}
	return sum, nil
}
