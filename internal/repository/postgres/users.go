package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

const uniqueViolation = "23505"

// UserRepository persists users and their game progress.
type UserRepository struct {
	db pgExecutor
}

var _ port.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

// attemptRecord is the JSONB shape of one solved (or in-progress)
// riddle attempt.
type attemptRecord struct {
	RiddleID string     `json:"riddle_id"`
	T0       *time.Time `json:"t0,omitempty"`
	TSolved  *time.Time `json:"t_solved,omitempty"`
}

type finishRecord struct {
	GameID    string    `json:"game_id"`
	Timestamp time.Time `json:"timestamp"`
}

func attemptsToJSON(attempts []domain.RiddleAttempt) ([]byte, error) {
	records := make([]attemptRecord, 0, len(attempts))
	for _, a := range attempts {
		records = append(records, attemptRecord(a))
	}
	return json.Marshal(records)
}

func attemptsFromJSON(raw []byte) ([]domain.RiddleAttempt, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var records []attemptRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	attempts := make([]domain.RiddleAttempt, 0, len(records))
	for _, r := range records {
		attempts = append(attempts, domain.RiddleAttempt(r))
	}
	return attempts, nil
}

const userColumns = `id, username, email, role, password_hash, pin, activated,
	created, registered, last_login, solved, current_attempt, rooms_entered,
	level, score, in_room, awaiting_second_factor, totp_key, recovery_keys,
	webauthn_credentials, finished`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user           domain.User
		pin            *int
		role           string
		solvedRaw      []byte
		attemptRaw     []byte
		credentialsRaw []byte
		finishedRaw    []byte
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &role, &user.PasswordHash,
		&pin, &user.Activated, &user.Created, &user.Registered,
		&user.LastLogin, &solvedRaw, &attemptRaw, &user.RoomsEntered,
		&user.Level, &user.Score, &user.InRoom, &user.AwaitingSecondFactor,
		&user.TOTPKey, &user.RecoveryKeys, &credentialsRaw, &finishedRaw,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Role = domain.ParseRole(role)
	if pin != nil {
		user.PIN = *pin
	}
	if user.Solved, err = attemptsFromJSON(solvedRaw); err != nil {
		return nil, fmt.Errorf("decode solved riddles: %w", err)
	}
	if len(attemptRaw) > 0 {
		var record attemptRecord
		if err := json.Unmarshal(attemptRaw, &record); err != nil {
			return nil, fmt.Errorf("decode current attempt: %w", err)
		}
		attempt := domain.RiddleAttempt(record)
		user.CurrentAttempt = &attempt
	}
	if len(credentialsRaw) > 0 {
		if err := json.Unmarshal(credentialsRaw, &user.WebauthnCredentials); err != nil {
			return nil, fmt.Errorf("decode webauthn credentials: %w", err)
		}
	}
	if len(finishedRaw) > 0 {
		var records []finishRecord
		if err := json.Unmarshal(finishedRaw, &records); err != nil {
			return nil, fmt.Errorf("decode finished games: %w", err)
		}
		for _, r := range records {
			user.Finished = append(user.Finished, domain.GameFinish(r))
		}
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	solvedJSON, err := attemptsToJSON(user.Solved)
	if err != nil {
		return fmt.Errorf("encode solved riddles: %w", err)
	}

	query, args, err := statementBuilder.
		Insert("users").
		Columns("id", "username", "email", "role", "password_hash", "pin",
			"activated", "created", "solved", "rooms_entered", "level",
			"score", "totp_key", "recovery_keys").
		Values(user.ID, user.Username, user.Email, string(user.Role),
			user.PasswordHash, user.PIN, user.Activated, user.Created,
			solvedJSON, user.RoomsEntered, user.Level, user.Score,
			user.TOTPKey, user.RecoveryKeys).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query, args, err := statementBuilder.
		Select(userColumns).
		From("users").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func (r *UserRepository) GetByUsernameAndPin(ctx context.Context, username string, pin int) (*domain.User, error) {
	query, args, err := statementBuilder.
		Select(userColumns).
		From("users").
		Where(squirrel.Eq{"username": username, "pin": pin, "activated": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select pending user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func (r *UserRepository) GetRole(ctx context.Context, username string) (domain.Role, error) {
	query, args, err := statementBuilder.
		Select("role").
		From("users").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select role query: %w", err)
	}

	var role string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("select role: %w", err)
	}
	return domain.ParseRole(role), nil
}

func (r *UserRepository) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	query, args, err := statementBuilder.
		Select("1").
		From("users").
		Where(squirrel.Or{
			squirrel.Eq{"username": username},
			squirrel.Eq{"email": email},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build taken query: %w", err)
	}

	var one int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check username or email taken: %w", err)
	}
	return true, nil
}

func (r *UserRepository) HasSolved(ctx context.Context, username, riddleID string) (bool, error) {
	probe, err := json.Marshal([]map[string]string{{"riddle_id": riddleID}})
	if err != nil {
		return false, fmt.Errorf("encode riddle probe: %w", err)
	}

	query, args, err := statementBuilder.
		Select("1").
		From("users").
		Where(squirrel.Eq{"username": username}).
		Where(squirrel.Expr("solved @> ?::jsonb", string(probe))).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build has-solved query: %w", err)
	}

	var one int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check solved riddle: %w", err)
	}
	return true, nil
}

func (r *UserRepository) Activate(ctx context.Context, user domain.User) error {
	query, args, err := statementBuilder.
		Update("users").
		Set("activated", true).
		Set("registered", user.Registered).
		Set("last_login", user.LastLogin).
		Set("in_room", user.InRoom).
		Set("rooms_entered", user.RoomsEntered).
		Set("recovery_keys", user.RecoveryKeys).
		Set("pin", nil).
		Where(squirrel.Eq{"username": user.Username, "activated": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build activate query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetCurrentAttempt(ctx context.Context, username string, attempt domain.RiddleAttempt) error {
	attemptJSON, err := json.Marshal(attemptRecord(attempt))
	if err != nil {
		return fmt.Errorf("encode current attempt: %w", err)
	}

	query, args, err := statementBuilder.
		Update("users").
		Set("current_attempt", attemptJSON).
		Where(squirrel.Eq{"username": username, "activated": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set attempt query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set current attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) RecordSolved(ctx context.Context, userID, riddleID string, solved []domain.RiddleAttempt, level, score int) error {
	solvedJSON, err := attemptsToJSON(solved)
	if err != nil {
		return fmt.Errorf("encode solved riddles: %w", err)
	}
	probe, err := json.Marshal([]map[string]string{{"riddle_id": riddleID}})
	if err != nil {
		return fmt.Errorf("encode riddle probe: %w", err)
	}

	// The containment guard keeps two concurrent solves of the same
	// riddle from both appending to the history.
	query, args, err := statementBuilder.
		Update("users").
		Set("solved", solvedJSON).
		Set("level", level).
		Set("score", score).
		Set("current_attempt", nil).
		Where(squirrel.Eq{"id": userID, "activated": true}).
		Where(squirrel.Expr("NOT (solved @> ?::jsonb)", string(probe))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record solved query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record solved riddle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateScore(ctx context.Context, userID string, score int) error {
	query, args, err := statementBuilder.
		Update("users").
		Set("score", score).
		Where(squirrel.Eq{"id": userID, "activated": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update score query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) MoveToRoom(ctx context.Context, userID, roomID string, finish *domain.GameFinish) error {
	builder := statementBuilder.
		Update("users").
		Set("in_room", roomID).
		Set("rooms_entered", squirrel.Expr(
			"CASE WHEN ? = ANY(rooms_entered) THEN rooms_entered ELSE array_append(rooms_entered, ?) END",
			roomID, roomID)).
		Where(squirrel.Eq{"id": userID, "activated": true})

	if finish != nil {
		finishJSON, err := json.Marshal([]finishRecord{finishRecord(*finish)})
		if err != nil {
			return fmt.Errorf("encode game finish: %w", err)
		}
		builder = builder.Set("finished", squirrel.Expr(
			"COALESCE(finished, '[]'::jsonb) || ?::jsonb", string(finishJSON)))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build move query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("move user to room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetAwaitingSecondFactor(ctx context.Context, userID string, awaiting bool) error {
	query, args, err := statementBuilder.
		Update("users").
		Set("awaiting_second_factor", awaiting).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build awaiting query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set awaiting second factor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) RecordLogin(ctx context.Context, username string) error {
	query, args, err := statementBuilder.
		Update("users").
		Set("last_login", time.Now().UTC()).
		Set("awaiting_second_factor", false).
		Where(squirrel.Eq{"username": username, "activated": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record login query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	query, args, err := statementBuilder.
		Update("users").
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"username": username, "activated": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetTOTPKey(ctx context.Context, username string, key []byte) error {
	query, args, err := statementBuilder.
		Update("users").
		Set("totp_key", key).
		Where(squirrel.Eq{"username": username, "activated": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set totp key query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set totp key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetRole(ctx context.Context, username string, role domain.Role) error {
	query, args, err := statementBuilder.
		Update("users").
		Set("role", string(role)).
		Where(squirrel.Eq{"username": username, "activated": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set role query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SaveWebauthnCredentials(ctx context.Context, username string, credentials []webauthn.Credential) error {
	credentialsJSON, err := json.Marshal(credentials)
	if err != nil {
		return fmt.Errorf("encode webauthn credentials: %w", err)
	}

	query, args, err := statementBuilder.
		Update("users").
		Set("webauthn_credentials", credentialsJSON).
		Where(squirrel.Eq{"username": username, "activated": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save credentials query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save webauthn credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
