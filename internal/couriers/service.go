package couriers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
)

// Service exposes courier reference-data operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Courier, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	List(ctx context.Context) ([]models.Courier, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CreateInput carries the fields a new courier is created with.
type CreateInput struct {
	Name  string
	Phone *string
	Email *string
	Notes *string
}

type service struct {
	repo Repository
}

// NewService builds a courier service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("couriers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Courier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier name required")
	}

	courier := &models.Courier{
		Name:  name,
		Phone: input.Phone,
		Email: input.Email,
		Notes: input.Notes,
	}
	created, err := s.repo.Create(ctx, courier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create courier")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	courier, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}
	return courier, nil
}

func (s *service) List(ctx context.Context) ([]models.Courier, error) {
	couriers, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list couriers")
	}
	return couriers, nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}
