package service

import (
	"fmt"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// PaymentLinkProvider produces a hosted checkout URL for one payment due
// date. Implementations must be safe for concurrent use.
type PaymentLinkProvider interface {
	LinkFor(class models.ClassDefinition, cfg models.PaymentConfig, due models.DateKey) (string, error)
}

// SnapLinkProvider creates Midtrans Snap transactions and returns their
// redirect URLs.
type SnapLinkProvider struct {
	client snap.Client
}

// NewSnapLinkProvider configures a Snap client against sandbox or production.
func NewSnapLinkProvider(serverKey string, production bool) *SnapLinkProvider {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	p := &SnapLinkProvider{}
	p.client.New(serverKey, env)
	return p
}

// LinkFor creates one Snap transaction per (class, due date). The order id is
// derived from the join key so retries reuse the same transaction upstream.
func (p *SnapLinkProvider) LinkFor(class models.ClassDefinition, cfg models.PaymentConfig, due models.DateKey) (string, error) {
	amount := int64(cfg.Amount)
	if amount <= 0 {
		return "", fmt.Errorf("invalid payment amount %.2f for class %s", cfg.Amount, class.ID)
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  models.JoinKey(class.ID, due),
			GrossAmt: amount,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       class.ID,
				Price:    amount,
				Qty:      1,
				Name:     fmt.Sprintf("%s tuition due %s", class.Name, due),
				Category: "tuition",
			},
		},
	}

	resp, err := p.client.CreateTransaction(req)
	if err != nil {
		return "", fmt.Errorf("create snap transaction: %w", err)
	}
	return resp.RedirectURL, nil
}
