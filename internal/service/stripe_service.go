package service

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeService collects booking deposits through Stripe Checkout.
type StripeService struct {
	SuccessURL string
	CancelURL  string
}

func NewStripeService(secretKey, successURL, cancelURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{SuccessURL: successURL, CancelURL: cancelURL}
}

// CreateCheckoutSession opens a checkout session for the booking deposit and
// returns its URL and id.
func (s *StripeService) CreateCheckoutSession(amountCents int64, currency, reference, customerEmail string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Booking deposit " + reference),
					},
					UnitAmount: stripe.Int64(amountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(s.SuccessURL),
		CancelURL:     stripe.String(s.CancelURL),
		CustomerEmail: stripe.String(customerEmail),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", err
	}
	return sess.URL, sess.ID, nil
}

// RefundBySessionID refunds the payment behind a completed checkout session.
func (s *StripeService) RefundBySessionID(sessionID string) error {
	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return err
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("no payment intent found for session %s", sessionID)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	_, err = refund.New(params)
	return err
}
