package lib

import (
	"context"
	"os"
	"time"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

type CreatePaymentIntentInput struct {
	// Amount in the currency's minor unit (centavos).
	Amount         int64
	Currency       string
	Description    string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentGateway is the slice of the payment provider the booking
// protocol consumes. The default implementation talks to Stripe;
// tests swap it via NewPaymentGateway.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, input *CreatePaymentIntentInput) (*stripe.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	RefundIntent(ctx context.Context, id string, amount int64) (*stripe.Refund, error)
	ListIntentsSince(ctx context.Context, since time.Time) ([]*stripe.PaymentIntent, error)
}

var paymentGateway PaymentGateway

func GetPaymentGateway() PaymentGateway {
	if paymentGateway != nil {
		return paymentGateway
	}
	paymentGateway = &stripeGateway{}
	return paymentGateway
}

// NewPaymentGateway replaces the gateway with a custom implementation.
func NewPaymentGateway(g PaymentGateway) PaymentGateway {
	paymentGateway = g
	return paymentGateway
}

type stripeGateway struct{}

func (s *stripeGateway) CreateIntent(ctx context.Context, input *CreatePaymentIntentInput) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	params := &stripe.PaymentIntentCreateParams{
		Amount:      stripe.Int64(input.Amount),
		Currency:    stripe.String(input.Currency),
		Description: stripe.String(input.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if input.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(input.ReceiptEmail)
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}
	if input.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(input.IdempotencyKey)
	}
	return sc.V1PaymentIntents.Create(ctx, params)
}

func (s *stripeGateway) RetrieveIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	return sc.V1PaymentIntents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
}

func (s *stripeGateway) CancelIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	return sc.V1PaymentIntents.Cancel(ctx, id, &stripe.PaymentIntentCancelParams{})
}

func (s *stripeGateway) RefundIntent(ctx context.Context, id string, amount int64) (*stripe.Refund, error) {
	sc := GetStripeClient()
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(id),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	return sc.V1Refunds.Create(ctx, params)
}

func (s *stripeGateway) ListIntentsSince(ctx context.Context, since time.Time) ([]*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	params := &stripe.PaymentIntentListParams{
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: since.Unix(),
		},
	}
	intents := []*stripe.PaymentIntent{}
	for pi, err := range sc.V1PaymentIntents.List(ctx, params) {
		if err != nil {
			return nil, err
		}
		intents = append(intents, pi)
	}
	return intents, nil
}
