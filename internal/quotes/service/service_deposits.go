package service

import (
	"context"
	"fmt"
	"strings"

	"studio_sales_backend/internal/events"
	"studio_sales_backend/internal/quotes/domain"
	"studio_sales_backend/internal/quotes/transport"
	"studio_sales_backend/platform/apperr"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// PaymentStatusPaid is the provider-defined paid condition on a session.
const PaymentStatusPaid = "paid"

// CheckoutSession is the provider session view the reconciler works with.
// Amounts are in whole currency units.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	Amount        int64
	Currency      string
	CustomerEmail string
	QuoteRef      string
}

// CreateSessionParams are the inputs for a new checkout session.
type CreateSessionParams struct {
	QuoteID       uuid.UUID
	Amount        int64
	CustomerEmail string
	Description   string
}

// CheckoutGateway is the external payment provider surface.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// CreateDeposit resolves the deposit amount, opens a checkout session for
// it, merges the deposit record, and advances the status to deposit_sent.
// An already-paid deposit is never regressed.
//
// Amount resolution: request value -> stored deposit amount ->
// max(100, round(finalPrice * 0.30)); finalPrice: request override ->
// stored final price -> estimate target.
func (s *Service) CreateDeposit(ctx context.Context, quoteID uuid.UUID, req transport.CreateDepositRequest) (*transport.DepositResponse, error) {
	if s.checkout == nil {
		return nil, apperr.Internal("checkout gateway is not configured")
	}

	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	lead, err := s.leads.GetByID(ctx, quote.LeadID)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(lead.Email, "@") {
		// Fail closed: no checkout session without a deliverable email.
		return nil, apperr.Validation("lead has no valid email on file")
	}

	finalPrice := domain.ResolveFinalPrice(req.FinalPrice, quote)
	amount := domain.ResolveDepositAmount(req.DepositAmount, quote, finalPrice)
	if amount <= 0 {
		return nil, apperr.Validation("deposit amount must be positive")
	}

	session, err := s.checkout.CreateSession(ctx, CreateSessionParams{
		QuoteID:       quote.ID,
		Amount:        amount,
		CustomerEmail: lead.Email,
		Description:   fmt.Sprintf("Project deposit for %s", quote.ProjectType),
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	expected := quote.Version
	oldStatus := quote.Status

	nextStatus := domain.DepositSentStatus(quote.Status, quote.DepositStatus)
	quote.FinalPrice = &finalPrice
	quote.DepositAmount = &amount
	quote.Deposit = &domain.DepositSession{
		SessionID: session.ID,
		URL:       session.URL,
		Amount:    amount,
		CreatedAt: now,
	}
	if quote.DepositStatus != domain.DepositPaid {
		quote.DepositStatus = domain.DepositPending
	}
	quote.ApplyStatus(nextStatus, now)
	quote.History = domain.AppendHistory(quote.History, now, domain.ActionDepositLinkCreated, quote.Status, map[string]interface{}{
		"sessionId": session.ID,
		"amount":    amount,
	})
	quote.UpdatedAt = now

	if err := s.repo.UpdateCAS(ctx, quote, expected); err != nil {
		return nil, err
	}

	s.publish(ctx, events.DepositLinkCreated{
		BaseEvent:     events.NewBaseEvent(),
		QuoteID:       quote.ID,
		LeadID:        quote.LeadID,
		SessionID:     session.ID,
		CheckoutURL:   session.URL,
		DepositAmount: amount,
		LeadEmail:     lead.Email,
		LeadName:      lead.Name,
	})
	s.publishStatusChange(ctx, quote, oldStatus, "admin", "deposit link created")

	return &transport.DepositResponse{
		Status:        string(quote.Status),
		DepositURL:    session.URL,
		SessionID:     session.ID,
		DepositAmount: amount,
	}, nil
}

// ConfirmDeposit reconciles a provider session: fetch it, check the paid
// condition, and merge the payment exactly once per session id. Repeating
// the confirmation for an already-merged session is a no-op success.
func (s *Service) ConfirmDeposit(ctx context.Context, quoteID *uuid.UUID, sessionID string) (*transport.ConfirmDepositResponse, error) {
	if s.checkout == nil {
		return nil, apperr.Internal("checkout gateway is not configured")
	}

	var quote *domain.Quote
	var err error
	if quoteID != nil {
		quote, err = s.repo.GetByID(ctx, *quoteID)
	} else {
		quote, err = s.repo.GetByDepositSession(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	// Idempotent replay: the payment for this session is already merged.
	if quote.HasPaymentForSession(sessionID) {
		return &transport.ConfirmDepositResponse{
			QuoteID:   quote.ID,
			Status:    string(quote.Status),
			Paid:      true,
			SessionID: sessionID,
		}, nil
	}

	session, err := s.checkout.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PaymentStatus != PaymentStatusPaid {
		return &transport.ConfirmDepositResponse{
			QuoteID:   quote.ID,
			Status:    string(quote.Status),
			Paid:      false,
			SessionID: sessionID,
		}, nil
	}

	oldStatus := quote.Status
	err = s.mutateWithRetry(ctx, quote.ID, func(q *domain.Quote) {
		if q.HasPaymentForSession(sessionID) {
			return
		}
		now := s.now()
		q.Payment = &domain.PaymentRecord{
			SessionID:  session.ID,
			Amount:     session.Amount,
			Currency:   session.Currency,
			PayerEmail: session.CustomerEmail,
			PaidAt:     now,
		}
		q.ApplyStatus(domain.StatusDepositPaid, now)
		q.History = domain.AppendHistory(q.History, now, domain.ActionPaymentConfirmed, q.Status, map[string]interface{}{
			"sessionId": session.ID,
			"amount":    session.Amount,
		})
		q.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}

	quote, err = s.repo.GetByID(ctx, quote.ID)
	if err != nil {
		return nil, err
	}

	if lead, leadErr := s.leads.GetByID(ctx, quote.LeadID); leadErr == nil {
		s.publish(ctx, events.DepositPaid{
			BaseEvent:     events.NewBaseEvent(),
			QuoteID:       quote.ID,
			LeadID:        quote.LeadID,
			SessionID:     session.ID,
			DepositAmount: session.Amount,
			LeadEmail:     lead.Email,
			LeadName:      lead.Name,
		})
	}
	s.publishStatusChange(ctx, quote, oldStatus, "system", "deposit payment confirmed")

	if s.log != nil {
		s.log.PaymentEvent("deposit_confirmed", quote.ID.String(), session.ID, session.Amount)
	}

	return &transport.ConfirmDepositResponse{
		QuoteID:   quote.ID,
		Status:    string(quote.Status),
		Paid:      true,
		SessionID: sessionID,
	}, nil
}

// DepositQR renders the deposit checkout URL as a PNG QR code.
func (s *Service) DepositQR(ctx context.Context, quoteID uuid.UUID) ([]byte, error) {
	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Deposit == nil || quote.Deposit.URL == "" {
		return nil, apperr.NotFound("no deposit link exists for this quote")
	}

	png, err := qrcode.Encode(quote.Deposit.URL, qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render QR code", err)
	}
	return png, nil
}
