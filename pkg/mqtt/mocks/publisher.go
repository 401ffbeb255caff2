package mocks

import (
	"context"

	"github.com/absmach/metricus/pkg/mqtt"
	"github.com/stretchr/testify/mock"
)

var _ mqtt.Publisher = (*Publisher)(nil)

type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, topic string, msg any) error {
	args := m.Called(ctx, topic, msg)

	return args.Error(0)
}

func (m *Publisher) Disconnect(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
