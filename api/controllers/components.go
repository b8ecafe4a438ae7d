package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/api/responses"
	"github.com/gbmoto/magazzino-backend/api/validators"
	"github.com/gbmoto/magazzino-backend/internal/bom"
	"github.com/gbmoto/magazzino-backend/internal/catalog"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
	"github.com/gbmoto/magazzino-backend/pkg/logger"
)

type defineComponentRequest struct {
	SKU  string  `json:"sku" validate:"required"`
	Name string  `json:"name" validate:"required"`
	Code *string `json:"code,omitempty"`
	Kind string  `json:"kind" validate:"required"`
	Unit string  `json:"unit,omitempty"`
}

type updateComponentRequest struct {
	Name *string `json:"name,omitempty"`
	Code *string `json:"code,omitempty"`
	Unit *string `json:"unit,omitempty"`
}

type setPartRequest struct {
	Qty int `json:"qty" validate:"required,gt=0"`
}

// resolvedLine is the wire shape of one resolved raw requirement.
type resolvedLine struct {
	ComponentID uuid.UUID `json:"component_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	Qty         int       `json:"qty"`
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, apperrors.New(apperrors.CodeValidation, "path parameter must be a uuid").
			WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func ComponentCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body defineComponentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		component, err := svc.DefineComponent(r.Context(), catalog.DefineComponentInput{
			SKU:  body.SKU,
			Name: body.Name,
			Code: body.Code,
			Kind: enums.ComponentKind(body.Kind),
			Unit: body.Unit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, component)
	}
}

func ComponentList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components, err := svc.ListComponents(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, components)
	}
}

func ComponentGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		component, err := svc.GetComponent(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, component)
	}
}

func ComponentUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateComponentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		component, err := svc.UpdateComponent(r.Context(), id, catalog.UpdateComponentInput{
			Name: body.Name,
			Code: body.Code,
			Unit: body.Unit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, component)
	}
}

func ComponentDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteComponent(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ComponentScan resolves a barcode or QR value to its component.
func ComponentScan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		component, err := svc.FindByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, component)
	}
}

func ComponentFindBySKU(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		component, err := svc.FindBySKU(r.Context(), chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, component)
	}
}

func ComponentSetPart(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assemblyID, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partID, err := pathUUID(r, "partID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body setPartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetPart(r.Context(), assemblyID, partID, body.Qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "part_set"})
	}
}

func ComponentRemovePart(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assemblyID, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partID, err := pathUUID(r, "partID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemovePart(r.Context(), assemblyID, partID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "part_removed"})
	}
}

func ComponentListParts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assemblyID, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parts, err := svc.ListParts(r.Context(), assemblyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, parts)
	}
}

func ComponentListUsages(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partID, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		usages, err := svc.ListUsages(r.Context(), partID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, usages)
	}
}

// ComponentResolve expands a component into its raw requirements for the
// requested quantity.
func ComponentResolve(resolver *bom.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "componentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty, err := validators.ParseQueryInt(r, "qty", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := resolver.Resolve(r.Context(), id, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolved := make([]resolvedLine, 0, len(lines))
		for _, line := range lines {
			resolved = append(resolved, resolvedLine{
				ComponentID: line.Component.ID,
				SKU:         line.Component.SKU,
				Name:        line.Component.Name,
				Unit:        line.Component.Unit,
				Qty:         line.Qty,
			})
		}
		responses.WriteSuccess(w, resolved)
	}
}
