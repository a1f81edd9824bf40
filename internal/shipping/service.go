package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
)

// AddInput is a new saved address.
type AddInput struct {
	FullName    string  `json:"full_name" validate:"required"`
	Phone       string  `json:"phone" validate:"required"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Address     string  `json:"address" validate:"required"`
	City        string  `json:"city" validate:"required"`
	State       string  `json:"state" validate:"required"`
	Country     string  `json:"country"`
	Pincode     string  `json:"pincode" validate:"required"`
	AddressType *string `json:"address_type,omitempty"`
}

// Service manages saved delivery addresses.
type Service interface {
	AddAddress(ctx context.Context, userID uuid.UUID, input AddInput) (*models.ShippingAddress, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error)
}

type service struct {
	repo Repository
}

// NewService builds the shipping address service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) AddAddress(ctx context.Context, userID uuid.UUID, input AddInput) (*models.ShippingAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.FullName == "" || input.Phone == "" || input.Address == "" ||
		input.City == "" || input.State == "" || input.Pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name, phone, address, city, state and pincode are required")
	}

	address := &models.ShippingAddress{
		UserID:      userID,
		FullName:    input.FullName,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
		City:        input.City,
		State:       input.State,
		Country:     input.Country,
		Pincode:     input.Pincode,
		AddressType: input.AddressType,
	}
	if address.Country == "" {
		address.Country = "India"
	}

	created, err := s.repo.Create(ctx, address)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping address")
	}
	return created, nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping addresses")
	}
	return addresses, nil
}
