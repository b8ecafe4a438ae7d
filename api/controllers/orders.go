package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/api/responses"
	"github.com/gbmoto/magazzino-backend/api/validators"
	"github.com/gbmoto/magazzino-backend/internal/fulfillment"
	"github.com/gbmoto/magazzino-backend/internal/orders"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
	"github.com/gbmoto/magazzino-backend/pkg/logger"
)

type importOrderLineRequest struct {
	ComponentID uuid.UUID `json:"component_id" validate:"required"`
	Qty         int       `json:"qty" validate:"required,gt=0"`
}

type importOrderRequest struct {
	ShopifyID     int64                    `json:"shopify_id" validate:"required,gt=0"`
	CustomerName  string                   `json:"customer_name" validate:"required"`
	CreatedAtShop *time.Time               `json:"created_at_shop,omitempty"`
	Lines         []importOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderImport registers an order pulled from the shop.
func OrderImport(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body importOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.ImportOrderInput{
			ShopifyID:    body.ShopifyID,
			CustomerName: body.CustomerName,
		}
		if body.CreatedAtShop != nil {
			input.CreatedAtShop = *body.CreatedAtShop
		}
		for _, line := range body.Lines {
			input.Lines = append(input.Lines, orders.ImportLineInput{
				ComponentID: line.ComponentID,
				Qty:         line.Qty,
			})
		}

		order, err := svc.Import(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.OrderStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeValidation, "invalid order status").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			status = &parsed
		}

		list, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderBeginPick moves a pending order into picking.
func OrderBeginPick(engine fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := engine.BeginPick(r.Context(), id, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCompletePick consumes stock and marks the order prepared.
func OrderCompletePick(engine fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := engine.CompletePick(r.Context(), id, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
