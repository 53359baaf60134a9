package port

import (
	"context"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
)

// RiddleRepository exposes read access to the riddle catalog.
type RiddleRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Riddle, error)
	GetByLevel(ctx context.Context, level int) (*domain.Riddle, error)
}
