package contracts

import (
	"context"
	"maternity-service/internal/pkg/dto/requests"
)

type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, event *requests.SettlementEvent) error
	Close() error
}
