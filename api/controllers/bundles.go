package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftmarket/bundles-backend/api/middleware"
	"github.com/craftmarket/bundles-backend/api/responses"
	"github.com/craftmarket/bundles-backend/api/validators"
	"github.com/craftmarket/bundles-backend/internal/bundles"
	"github.com/craftmarket/bundles-backend/pkg/enums"
	pkgerrors "github.com/craftmarket/bundles-backend/pkg/errors"
	"github.com/craftmarket/bundles-backend/pkg/logger"
	"github.com/craftmarket/bundles-backend/pkg/pagination"
)

type draftHeaderRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r draftHeaderRequest) toInput() bundles.DraftHeaderInput {
	return bundles.DraftHeaderInput{Title: r.Title, Description: r.Description, IsActive: r.IsActive}
}

type addItemRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type reorderRequest struct {
	From *int `json:"from" validate:"required,gte=0"`
	To   *int `json:"to" validate:"required,gte=0"`
}

type discountRequest struct {
	Driver string `json:"driver" validate:"required,oneof=none amount percentage"`
	Value  string `json:"value" validate:"omitempty,numeric"`
}

func (r discountRequest) toDiscount() (bundles.Discount, error) {
	driver, err := enums.ParseDiscountDriver(strings.TrimSpace(r.Driver))
	if err != nil {
		return bundles.Discount{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount driver")
	}
	if driver == enums.DiscountDriverNone {
		return bundles.NoDiscount(), nil
	}
	if strings.TrimSpace(r.Value) == "" {
		return bundles.Discount{}, pkgerrors.New(pkgerrors.CodeValidation, "discount value is required").
			WithDetails(map[string]string{"value": "is required"})
	}
	value, err := decimal.NewFromString(strings.TrimSpace(r.Value))
	if err != nil {
		return bundles.Discount{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount value")
	}
	return bundles.Discount{Driver: driver, Value: value}, nil
}

func sellerFromRequest(r *http.Request) (uuid.UUID, error) {
	sellerID, ok := middleware.SellerIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller context missing")
	}
	return sellerID, nil
}

// draftHandler resolves the seller and draft id shared by every draft route.
func draftHandler(svc bundles.Service, logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		sellerID, err := sellerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := validators.ParseUUIDParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(w, r, sellerID, draftID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

// SellerCreateDraft starts an empty draft.
func SellerCreateDraft(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		sellerID, err := sellerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload draftHeaderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		view, err := svc.CreateDraft(r.Context(), sellerID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// SellerOpenBundle starts a draft from a saved bundle.
func SellerOpenBundle(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		sellerID, err := sellerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bundleID, err := validators.ParseUUIDParam(r, "bundleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.OpenBundle(r.Context(), sellerID, bundleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func SellerGetDraft(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		view, err := svc.GetDraft(r.Context(), sellerID, draftID)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

func SellerDiscardDraft(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		if err := svc.DiscardDraft(r.Context(), sellerID, draftID); err != nil {
			return err
		}
		responses.WriteNoContent(w)
		return nil
	})
}

func SellerUpdateDraft(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		var payload draftHeaderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		view, err := svc.UpdateDraft(r.Context(), sellerID, draftID, payload.toInput())
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

func SellerAddItem(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id")
		}
		view, err := svc.AddItem(r.Context(), sellerID, draftID, listingID, payload.Quantity)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

// SellerSetItemQuantity sets an item's quantity; values below 1 remove it.
func SellerSetItemQuantity(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return err
		}
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		view, err := svc.SetQuantity(r.Context(), sellerID, draftID, itemID, *payload.Quantity)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

func SellerRemoveItem(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return err
		}
		view, err := svc.RemoveItem(r.Context(), sellerID, draftID, itemID)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

func SellerReorderItems(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		var payload reorderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		view, err := svc.ReorderItems(r.Context(), sellerID, draftID, *payload.From, *payload.To)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

func SellerSetDiscount(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		discount, err := payload.toDiscount()
		if err != nil {
			return err
		}
		view, err := svc.SetDiscount(r.Context(), sellerID, draftID, discount)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

func SellerSaveDraft(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		view, err := svc.Save(r.Context(), sellerID, draftID)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

func SellerRetryItems(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sellerID, draftID uuid.UUID) error {
		view, err := svc.RetryItems(r.Context(), sellerID, draftID)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, view)
		return nil
	})
}

// SellerListBundles pages through the seller's saved bundles.
func SellerListBundles(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		sellerID, err := sellerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListBundles(r.Context(), sellerID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func SellerDeleteBundle(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		sellerID, err := sellerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bundleID, err := validators.ParseUUIDParam(r, "bundleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteBundle(r.Context(), sellerID, bundleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
