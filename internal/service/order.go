package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/petmat/checkout-service/internal/entities"
	"github.com/petmat/checkout-service/pkg/utils"
)

type OrderRepo interface {
	GetOrderByReference(ctx context.Context, reference string) (entities.Order, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Remove(key string)
}

type orderService struct {
	logger *slog.Logger
	repo   OrderRepo
	cache  Cache
}

func NewOrderService(logger *slog.Logger, repo OrderRepo, cache Cache) *orderService {
	return &orderService{
		logger: logger.With(slog.String("service", "order")),
		repo:   repo,
		cache:  cache,
	}
}

func (s *orderService) GetOrderByReference(ctx context.Context, reference string) (entities.Order, error) {
	if data, ok := s.cache.Get(reference); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err == nil {
			return order, nil
		}
		// A corrupt entry would otherwise poison every read until its TTL;
		// drop it and fall through to the store.
		s.logger.Warn("dropping corrupt cached order",
			slog.String("reference", reference))
		s.cache.Remove(reference)
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.GetOrderByReference(ctx, reference)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
	if err := utils.Retry(cfg, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order",
			slog.String("reference", reference), slog.Any("error", err))
		return order, nil
	}
	s.cache.Set(reference, data)
	return order, nil
}
