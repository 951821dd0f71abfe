package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rentease/rentease-backend/api/responses"
	"github.com/rentease/rentease-backend/api/validators"
	"github.com/rentease/rentease-backend/internal/billing"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/types"
)

// InvoiceService is the billing surface exposed over HTTP.
type InvoiceService interface {
	GetInvoice(ctx context.Context, actor types.Actor, invoiceID uuid.UUID) (*billing.InvoiceDTO, error)
	EnsureInvoice(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*billing.InvoiceDTO, error)
	Document(ctx context.Context, actor types.Actor, invoiceID uuid.UUID) ([]byte, string, error)
	Pay(ctx context.Context, actor types.Actor, invoiceID uuid.UUID, input billing.PayInput) (*billing.PaymentResult, error)
	RecordPayment(ctx context.Context, actor types.Actor, invoiceID uuid.UUID, input billing.RecordPaymentInput) (*billing.PaymentResult, error)
	EmailInvoice(ctx context.Context, actor types.Actor, invoiceID uuid.UUID) (*billing.EmailResult, error)
}

// InvoiceGet serves an invoice to its customer or the managing vendor.
func InvoiceGet(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("billing service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseURLUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GetInvoice(r.Context(), actor, invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func InvoicePDF(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("billing service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseURLUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body, filename, err := svc.Document(r.Context(), actor, invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteAttachment(w, "application/pdf", filename, body)
	}
}

// InvoicePay settles the outstanding balance with a simulated payment.
func InvoicePay(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("billing service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseURLUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body billing.PayInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Pay(r.Context(), actor, invoiceID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// InvoiceEnsure returns the order's invoice, creating it on first call.
func InvoiceEnsure(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("billing service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.EnsureInvoice(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func InvoiceRecordPayment(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("billing service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseURLUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body billing.RecordPaymentInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RecordPayment(r.Context(), actor, invoiceID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func InvoiceEmail(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("billing service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseURLUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.EmailInvoice(r.Context(), actor, invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
