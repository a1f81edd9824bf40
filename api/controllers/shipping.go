package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bazaarhq/bazaar-backend/api/responses"
	"github.com/bazaarhq/bazaar-backend/api/validators"
	shippingsvc "github.com/bazaarhq/bazaar-backend/internal/shipping"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
)

// ShippingAdd saves a delivery address for the caller.
func ShippingAdd(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shippingsvc.AddInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.AddAddress(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newShippingAddressResponse(address))
	}
}

// ShippingList returns the caller's saved addresses, newest first.
func ShippingList(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := svc.ListAddresses(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]shippingAddressResponse, 0, len(addresses))
		for i := range addresses {
			out = append(out, newShippingAddressResponse(&addresses[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type shippingAddressResponse struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	Email       *string   `json:"email,omitempty"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Pincode     string    `json:"pincode"`
	AddressType *string   `json:"address_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newShippingAddressResponse(address *models.ShippingAddress) shippingAddressResponse {
	return shippingAddressResponse{
		ID:          address.ID,
		FullName:    address.FullName,
		Phone:       address.Phone,
		Email:       address.Email,
		Address:     address.Address,
		City:        address.City,
		State:       address.State,
		Country:     address.Country,
		Pincode:     address.Pincode,
		AddressType: address.AddressType,
		CreatedAt:   address.CreatedAt,
	}
}
