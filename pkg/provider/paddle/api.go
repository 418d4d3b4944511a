package paddle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/subsync/pkg/provider"
)

// API is the part of the Paddle API the adapter calls.
type API interface {
	CreateTransaction(ctx context.Context, req *paddle.CreateTransactionRequest) (*paddle.Transaction, error)
	CancelSubscription(ctx context.Context, req *paddle.CancelSubscriptionRequest) (*paddle.Subscription, error)
}

type sdkAPI struct {
	client *paddle.SDK
}

// NewAPI creates an API client for the configured environment.
func NewAPI(cfg Config) (API, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("paddle: API key is required")
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("paddle: invalid environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("paddle: create client: %w", err)
	}
	return &sdkAPI{client: client}, nil
}

func (a *sdkAPI) CreateTransaction(ctx context.Context, req *paddle.CreateTransactionRequest) (*paddle.Transaction, error) {
	tx, err := a.client.TransactionsClient.CreateTransaction(ctx, req)
	if err != nil {
		return nil, errors.Join(provider.ErrAPI, err)
	}
	return tx, nil
}

func (a *sdkAPI) CancelSubscription(ctx context.Context, req *paddle.CancelSubscriptionRequest) (*paddle.Subscription, error) {
	sub, err := a.client.SubscriptionsClient.CancelSubscription(ctx, req)
	if err != nil {
		return nil, errors.Join(provider.ErrAPI, err)
	}
	return sub, nil
}
