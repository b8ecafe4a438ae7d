package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/api/responses"
	"github.com/gbmoto/magazzino-backend/api/validators"
	"github.com/gbmoto/magazzino-backend/internal/deliveries"
	"github.com/gbmoto/magazzino-backend/internal/fulfillment"
	"github.com/gbmoto/magazzino-backend/pkg/logger"
)

type createDeliveryLineRequest struct {
	ComponentID uuid.UUID `json:"component_id" validate:"required"`
	QtyOrdered  int       `json:"qty_ordered" validate:"required,gt=0"`
}

type createDeliveryRequest struct {
	SupplierID uuid.UUID                   `json:"supplier_id" validate:"required"`
	OrderDate  *time.Time                  `json:"order_date,omitempty"`
	Lines      []createDeliveryLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type receiveDeliveryLineRequest struct {
	ComponentID uuid.UUID `json:"component_id" validate:"required"`
	QtyReceived int       `json:"qty_received" validate:"min=0"`
}

type receiveDeliveryRequest struct {
	ReceivedDate *time.Time                   `json:"received_date,omitempty"`
	Lines        []receiveDeliveryLineRequest `json:"lines" validate:"dive"`
	HasIssues    bool                         `json:"has_issues"`
	Notes        *string                      `json:"notes,omitempty"`
}

func DeliveryCreate(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createDeliveryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := deliveries.CreateDeliveryInput{SupplierID: body.SupplierID}
		if body.OrderDate != nil {
			input.OrderDate = *body.OrderDate
		}
		for _, line := range body.Lines {
			input.Lines = append(input.Lines, deliveries.CreateLineInput{
				ComponentID: line.ComponentID,
				QtyOrdered:  line.QtyOrdered,
			})
		}

		delivery, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, delivery)
	}
}

func DeliveryGet(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "deliveryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delivery, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

func DeliveryList(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		received, err := validators.ParseQueryBool(r, "received")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), received)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// DeliveryReceive closes a delivery with the counted quantities.
func DeliveryReceive(engine fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "deliveryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body receiveDeliveryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := fulfillment.ReceiveInput{
			DeliveryID: id,
			HasIssues:  body.HasIssues,
			Notes:      body.Notes,
			Actor:      actorFromContext(r),
		}
		if body.ReceivedDate != nil {
			input.ReceivedDate = *body.ReceivedDate
		}
		for _, line := range body.Lines {
			input.Lines = append(input.Lines, fulfillment.ReceiveLineInput{
				ComponentID: line.ComponentID,
				QtyReceived: line.QtyReceived,
			})
		}

		delivery, err := engine.Receive(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}
