// Package service implementa os fluxos da carteira: iniciação de depósito,
// solicitação de saque e reconciliação de webhooks do gateway.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/gateway"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/pixel"
	"github.com/betfoundry/pix-wallet-platform/pkg/contracts/events"
)

var (
	ErrInvalidInput    = errors.New("dados inválidos")
	ErrGatewayInactive = errors.New("gateway não configurado")
)

// Gateway cria intenções de pagamento e normaliza webhooks
type Gateway interface {
	GatewayName() string
	CreatePayment(ctx context.Context, r gateway.PaymentRequest) (*gateway.Payment, error)
	ParseWebhook(raw []byte) (*gateway.Webhook, error)
}

// Attribution recebe eventos de conversão; entrega fire-and-forget
type Attribution interface {
	Dispatch(ev pixel.Event)
}

// Names resolve o nome do titular de um CPF; nunca falha, só devolve placeholder
type Names interface {
	ResolveName(ctx context.Context, cpf string) string
}

// Publisher publica eventos da carteira no broker
type Publisher interface {
	PublishDepositPaid(ctx context.Context, e events.DepositPaid) error
	PublishWithdrawRequested(ctx context.Context, e events.WithdrawRequested) error
}

// sanitizeCPF remove tudo que não é dígito; válido só com exatamente 11
func sanitizeCPF(cpf string) (string, bool) {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	return s, len(s) == 11
}
