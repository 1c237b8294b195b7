package canteens

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

type stubCanteenRepo struct {
	byID    map[uuid.UUID]*models.Canteen
	listed  []models.Canteen
	updated *models.Canteen
}

func newStubCanteenRepo() *stubCanteenRepo {
	return &stubCanteenRepo{byID: map[uuid.UUID]*models.Canteen{}}
}

func (s *stubCanteenRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCanteenRepo) Create(_ context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	if canteen.ID == uuid.Nil {
		canteen.ID = uuid.New()
	}
	s.byID[canteen.ID] = canteen
	return canteen, nil
}

func (s *stubCanteenRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Canteen, error) {
	canteen, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return canteen, nil
}

func (s *stubCanteenRepo) List(_ context.Context, status enums.RecordStatus) ([]models.Canteen, error) {
	return s.listed, nil
}

func (s *stubCanteenRepo) Update(_ context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	s.updated = canteen
	s.byID[canteen.ID] = canteen
	return canteen, nil
}

func (s *stubCanteenRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.RecordStatus) error {
	if canteen, ok := s.byID[id]; ok {
		canteen.Status = status
	}
	return nil
}

func TestCreateRequiresName(t *testing.T) {
	svc, err := NewService(newStubCanteenRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateCanteenInput{Name: "   "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDefaultsToActive(t *testing.T) {
	repo := newStubCanteenRepo()
	svc, _ := NewService(repo)

	canteen, err := svc.Create(context.Background(), CreateCanteenInput{Name: " North Block "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if canteen.Name != "North Block" {
		t.Fatalf("expected trimmed name, got %q", canteen.Name)
	}
	if canteen.Status != enums.RecordStatusActive {
		t.Fatalf("expected active status, got %q", canteen.Status)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _ := NewService(newStubCanteenRepo())

	_, err := svc.GetByID(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	repo := newStubCanteenRepo()
	svc, _ := NewService(repo)

	created, err := svc.Create(context.Background(), CreateCanteenInput{Name: "Mess A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "Mess B"
	inactive := enums.RecordStatusInactive
	updated, err := svc.Update(context.Background(), created.ID, UpdateCanteenInput{Name: &newName, Status: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Mess B" || updated.Status != enums.RecordStatusInactive {
		t.Fatalf("unexpected update result %+v", updated)
	}
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	repo := newStubCanteenRepo()
	svc, _ := NewService(repo)
	created, _ := svc.Create(context.Background(), CreateCanteenInput{Name: "Mess A"})

	bad := enums.RecordStatus("archived")
	_, err := svc.Update(context.Background(), created.ID, UpdateCanteenInput{Status: &bad})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo := newStubCanteenRepo()
	svc, _ := NewService(repo)
	created, _ := svc.Create(context.Background(), CreateCanteenInput{Name: "Mess A"})

	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.byID[created.ID].Status != enums.RecordStatusInactive {
		t.Fatal("expected canteen to be inactive")
	}
}
