package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
)

type stubRepo struct {
	addresses []models.ShippingAddress
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error) {
	address.ID = uuid.New()
	s.addresses = append(s.addresses, *address)
	return address, nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	var out []models.ShippingAddress
	for _, address := range s.addresses {
		if address.UserID == userID {
			out = append(out, address)
		}
	}
	return out, nil
}

func validInput() AddInput {
	return AddInput{
		FullName: "Asha Verma",
		Phone:    "9876543210",
		Address:  "14 MG Road",
		City:     "Pune",
		State:    "Maharashtra",
		Pincode:  "411001",
	}
}

func TestAddAddress_DefaultsCountry(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	address, err := svc.AddAddress(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("add address: %v", err)
	}
	if address.Country != "India" {
		t.Fatalf("country default = %q, want India", address.Country)
	}
}

func TestAddAddress_MissingFieldsRejected(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := NewService(repo)

	input := validInput()
	input.Pincode = ""
	_, err := svc.AddAddress(context.Background(), uuid.New(), input)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListAddresses_ScopedToUser(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := NewService(repo)
	owner := uuid.New()

	if _, err := svc.AddAddress(context.Background(), owner, validInput()); err != nil {
		t.Fatalf("add owner address: %v", err)
	}
	if _, err := svc.AddAddress(context.Background(), uuid.New(), validInput()); err != nil {
		t.Fatalf("add other address: %v", err)
	}

	addresses, err := svc.ListAddresses(context.Background(), owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(addresses) != 1 {
		t.Fatalf("expected 1 address for owner, got %d", len(addresses))
	}
}
