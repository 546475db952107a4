package producer

import (
	"context"
	"encoding/json"
	"time"

	skafka "github.com/betfoundry/pix-wallet-platform/internal/shared/kafka"
	"github.com/betfoundry/pix-wallet-platform/pkg/contracts/events"
)

// KafkaPublisher publica eventos da carteira nos tópicos de contratos.
// A chave é o id da entidade, mantendo a ordem por depósito/saque.
type KafkaPublisher struct {
	DepositPaidWriter       *skafka.Writer
	WithdrawRequestedWriter *skafka.Writer
}

func NewKafkaPublisher(depositPaid, withdrawRequested *skafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{
		DepositPaidWriter:       depositPaid,
		WithdrawRequestedWriter: withdrawRequested,
	}
}

func (p *KafkaPublisher) PublishDepositPaid(ctx context.Context, e events.DepositPaid) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, p.DepositPaidWriter, e.DepositID, b)
}

func (p *KafkaPublisher) PublishWithdrawRequested(ctx context.Context, e events.WithdrawRequested) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, p.WithdrawRequestedWriter, e.WithdrawalID, b)
}
