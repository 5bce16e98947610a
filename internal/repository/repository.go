package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/go-club-map/internal/models"
)

var ErrNotFound = errors.New("not found")

// DirectoryRepository stores the read-only club directory. List methods
// return records in base-collection order (ascending position).
type DirectoryRepository interface {
	// Reset removes every school and club so the next import starts
	// from an empty snapshot.
	Reset(ctx context.Context) error
	AddSchool(ctx context.Context, position int, s *models.School) error
	AddClub(ctx context.Context, position int, c *models.Club) error
	SchoolExists(ctx context.Context, id string) (bool, error)
	ClubExists(ctx context.Context, id string) (bool, error)
	GetClub(ctx context.Context, id string) (*models.Club, error)
	GetSchool(ctx context.Context, id string) (*models.School, error)
	ListClubs(ctx context.Context) ([]models.Club, error)
	ListSchools(ctx context.Context) ([]models.School, error)
}
