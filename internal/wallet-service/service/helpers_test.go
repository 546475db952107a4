package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/gateway"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/pixel"
	"github.com/betfoundry/pix-wallet-platform/pkg/contracts/events"
)

// stubGateway responde CreatePayment com valores programados e normaliza
// webhooks de um JSON simples, imitando o contrato do cliente PixUp
type stubGateway struct {
	payment    *gateway.Payment
	paymentErr error

	mu       sync.Mutex
	requests []gateway.PaymentRequest
}

func (g *stubGateway) GatewayName() string { return "pixup" }

func (g *stubGateway) CreatePayment(ctx context.Context, r gateway.PaymentRequest) (*gateway.Payment, error) {
	g.mu.Lock()
	g.requests = append(g.requests, r)
	g.mu.Unlock()
	if g.paymentErr != nil {
		return nil, g.paymentErr
	}
	return g.payment, nil
}

func (g *stubGateway) ParseWebhook(raw []byte) (*gateway.Webhook, error) {
	var body struct {
		TransactionID string  `json:"transactionId"`
		ExternalID    string  `json:"external_id"`
		Status        string  `json:"status"`
		Amount        float64 `json:"amount"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.ErrInvalidPayload
	}
	if body.TransactionID == "" {
		return nil, gateway.ErrInvalidPayload
	}
	now := time.Now()
	return &gateway.Webhook{
		TransactionID: body.TransactionID,
		ExternalID:    body.ExternalID,
		Status:        body.Status,
		AmountCents:   int64(body.Amount * 100),
		PaidAt:        &now,
	}, nil
}

// recordingAttr registra eventos de pixel de forma síncrona
type recordingAttr struct {
	mu     sync.Mutex
	events []pixel.Event
}

func (a *recordingAttr) Dispatch(ev pixel.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAttr) all() []pixel.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]pixel.Event, len(a.events))
	copy(out, a.events)
	return out
}

// fixedNames resolve sempre o mesmo nome
type fixedNames struct{ name string }

func (n fixedNames) ResolveName(ctx context.Context, cpf string) string { return n.name }

// recordingPublisher registra eventos publicados
type recordingPublisher struct {
	mu                sync.Mutex
	depositPaid       []events.DepositPaid
	withdrawRequested []events.WithdrawRequested
	err               error
}

func (p *recordingPublisher) PublishDepositPaid(ctx context.Context, e events.DepositPaid) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.depositPaid = append(p.depositPaid, e)
	return nil
}

func (p *recordingPublisher) PublishWithdrawRequested(ctx context.Context, e events.WithdrawRequested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.withdrawRequested = append(p.withdrawRequested, e)
	return nil
}

// failingCommissionStore injeta falha no registro de comissão para o teste de
// atomicidade do reconciliador
type failingCommissionStore struct {
	*ledger.Memory
	commissionErr error
}

func (s *failingCommissionStore) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.Memory.WithTx(ctx, func(tx ledger.Tx) error {
		return fn(&failingCommissionTx{Tx: tx, err: s.commissionErr})
	})
}

type failingCommissionTx struct {
	ledger.Tx
	err error
}

func (t *failingCommissionTx) InsertCommissionEntry(ctx context.Context, e *ledger.CommissionEntry) error {
	return t.err
}

// seedPendingDeposit insere um depósito PENDING direto no store
func seedPendingDeposit(store ledger.Store, d *ledger.Deposit) error {
	return store.WithTx(context.Background(), func(tx ledger.Tx) error {
		if err := tx.InsertDeposit(context.Background(), d); err != nil {
			return err
		}
		return nil
	})
}
