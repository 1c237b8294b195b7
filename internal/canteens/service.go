package canteens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

// Service manages the canteen catalog.
type Service interface {
	Create(ctx context.Context, input CreateCanteenInput) (*models.Canteen, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error)
	List(ctx context.Context, includeInactive bool) ([]models.Canteen, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCanteenInput) (*models.Canteen, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CreateCanteenInput carries the fields for a new canteen.
type CreateCanteenInput struct {
	Name        string
	Description *string
	Location    *string
}

// UpdateCanteenInput applies partial updates; nil fields are untouched.
type UpdateCanteenInput struct {
	Name        *string
	Description *string
	Location    *string
	Status      *enums.RecordStatus
}

type service struct {
	repo Repository
}

// NewService wires a canteens service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("canteens repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateCanteenInput) (*models.Canteen, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen name is required")
	}

	canteen := &models.Canteen{
		Name:        name,
		Description: input.Description,
		Location:    input.Location,
		Status:      enums.RecordStatusActive,
	}
	created, err := s.repo.Create(ctx, canteen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create canteen")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}

	canteen, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "canteen not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load canteen")
	}
	return canteen, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Canteen, error) {
	status := enums.RecordStatusActive
	if includeInactive {
		status = ""
	}

	canteens, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list canteens")
	}
	return canteens, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCanteenInput) (*models.Canteen, error) {
	canteen, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen name cannot be empty")
		}
		canteen.Name = name
	}
	if input.Description != nil {
		canteen.Description = input.Description
	}
	if input.Location != nil {
		canteen.Location = input.Location
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *input.Status))
		}
		canteen.Status = *input.Status
	}

	updated, err := s.repo.Update(ctx, canteen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update canteen")
	}
	return updated, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, enums.RecordStatusInactive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate canteen")
	}
	return nil
}
