package locations

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

// Service exposes pickup location reference-data operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PickupLocation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PickupLocation, error)
	List(ctx context.Context) ([]models.PickupLocation, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CreateInput carries the fields a new pickup location is created with.
type CreateInput struct {
	Name    string
	Address *string
	Phone   *string
}

type service struct {
	repo Repository
}

// NewService builds a pickup location service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locations repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PickupLocation, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}

	location := &models.PickupLocation{
		Name:    name,
		Address: input.Address,
		Phone:   input.Phone,
	}
	created, err := s.repo.Create(ctx, location)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PickupLocation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	location, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}

func (s *service) List(ctx context.Context) ([]models.PickupLocation, error) {
	locations, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return locations, nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}
