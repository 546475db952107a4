package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/cpf"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"
)

const testCPF = "123.456.789-01"

func newWithdrawals(mem *ledger.Memory, publ *recordingPublisher) *Withdrawals {
	return NewWithdrawals(zap.NewNop(), mem, fixedNames{name: "Fulano de Tal"}, publ)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	mem := ledger.NewMemory()
	mem.PutAccount(&ledger.Account{ID: "u1", BalanceCents: 10000})
	s := newWithdrawals(mem, &recordingPublisher{})

	err := s.Request(context.Background(), "u1", 15000, testCPF)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("esperava ErrInsufficientFunds, obteve %v", err)
	}
	if got := mem.Balance("u1"); got != 10000 {
		t.Errorf("saldo mudou: %d", got)
	}
	if n := len(mem.Withdrawals()); n != 0 {
		t.Errorf("saques criados: %d", n)
	}
}

func TestWithdrawSuccessThenConflict(t *testing.T) {
	mem := ledger.NewMemory()
	mem.PutAccount(&ledger.Account{ID: "u1", BalanceCents: 10000})
	publ := &recordingPublisher{}
	s := newWithdrawals(mem, publ)
	ctx := context.Background()

	if err := s.Request(ctx, "u1", 5000, testCPF); err != nil {
		t.Fatalf("primeiro saque: %v", err)
	}
	if got := mem.Balance("u1"); got != 5000 {
		t.Errorf("saldo = %d, esperava 5000", got)
	}
	ws := mem.Withdrawals()
	if len(ws) != 1 {
		t.Fatalf("saques = %d, esperava 1", len(ws))
	}
	if ws[0].Status != ledger.WithdrawalPending {
		t.Errorf("status = %q", ws[0].Status)
	}
	if ws[0].Name != "Fulano de Tal" {
		t.Errorf("nome = %q", ws[0].Name)
	}
	if ws[0].CPF != "12345678901" {
		t.Errorf("cpf não sanitizado: %q", ws[0].CPF)
	}
	if len(publ.withdrawRequested) != 1 {
		t.Errorf("eventos withdraw_requested = %d", len(publ.withdrawRequested))
	}

	// Segundo saque antes da resolução do primeiro é rejeitado sem mutação
	err := s.Request(ctx, "u1", 1000, testCPF)
	if !errors.Is(err, ledger.ErrPendingWithdrawal) {
		t.Fatalf("esperava ErrPendingWithdrawal, obteve %v", err)
	}
	if got := mem.Balance("u1"); got != 5000 {
		t.Errorf("saldo mudou no conflito: %d", got)
	}
	if n := len(mem.Withdrawals()); n != 1 {
		t.Errorf("saques = %d, esperava 1", n)
	}
}

func TestWithdrawValidation(t *testing.T) {
	mem := ledger.NewMemory()
	mem.PutAccount(&ledger.Account{ID: "u1", BalanceCents: 10000})
	s := newWithdrawals(mem, &recordingPublisher{})
	ctx := context.Background()

	cases := []struct {
		name   string
		amount int64
		cpf    string
	}{
		{"valor zero", 0, testCPF},
		{"valor negativo", -100, testCPF},
		{"cpf curto", 1000, "12345"},
		{"cpf vazio", 1000, ""},
		{"cpf longo", 1000, "123456789012"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := s.Request(ctx, "u1", c.amount, c.cpf); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("esperava ErrInvalidInput, obteve %v", err)
			}
		})
	}
	if n := len(mem.Withdrawals()); n != 0 {
		t.Errorf("validação criou saques: %d", n)
	}
}

func TestWithdrawUnknownAccount(t *testing.T) {
	mem := ledger.NewMemory()
	s := newWithdrawals(mem, &recordingPublisher{})
	if err := s.Request(context.Background(), "ghost", 1000, testCPF); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("esperava ErrNotFound, obteve %v", err)
	}
}

// unreliableNames simula a API de CPF fora do ar; o saque segue com placeholder
type unreliableNames struct{}

func (unreliableNames) ResolveName(ctx context.Context, c string) string {
	return cpf.PlaceholderName
}

func TestWithdrawEnrichmentFailureUsesPlaceholder(t *testing.T) {
	mem := ledger.NewMemory()
	mem.PutAccount(&ledger.Account{ID: "u1", BalanceCents: 10000})
	s := NewWithdrawals(zap.NewNop(), mem, unreliableNames{}, &recordingPublisher{})

	if err := s.Request(context.Background(), "u1", 2000, testCPF); err != nil {
		t.Fatalf("saque deveria seguir com placeholder: %v", err)
	}
	ws := mem.Withdrawals()
	if len(ws) != 1 || ws[0].Name != cpf.PlaceholderName {
		t.Errorf("saques: %+v", ws)
	}
}

func TestWithdrawConcurrentNeverOverdraws(t *testing.T) {
	mem := ledger.NewMemory()
	mem.PutAccount(&ledger.Account{ID: "u1", BalanceCents: 10000})
	s := newWithdrawals(mem, &recordingPublisher{})
	ctx := context.Background()

	r := rand.New(rand.NewSource(42))
	amounts := make([]int64, 50)
	for i := range amounts {
		amounts[i] = int64(r.Intn(8000) + 1000)
	}

	var wg sync.WaitGroup
	for _, amt := range amounts {
		wg.Add(1)
		go func(a int64) {
			defer wg.Done()
			_ = s.Request(ctx, "u1", a, testCPF)
		}(amt)
	}
	wg.Wait()

	if bal := mem.Balance("u1"); bal < 0 {
		t.Fatalf("saldo negativo após saques concorrentes: %d", bal)
	}

	// No máximo um saque PENDING por conta; débitos batem com o saldo
	pending := 0
	var debited int64
	for _, w := range mem.Withdrawals() {
		if w.Status == ledger.WithdrawalPending {
			pending++
			debited += w.AmountCents
		}
	}
	if pending > 1 {
		t.Fatalf("saques PENDING simultâneos: %d", pending)
	}
	if got := mem.Balance("u1"); got != 10000-debited {
		t.Fatalf("saldo %d não bate com débitos %d", got, debited)
	}
}

func TestWithdrawPublisherFailureDoesNotUndo(t *testing.T) {
	mem := ledger.NewMemory()
	mem.PutAccount(&ledger.Account{ID: "u1", BalanceCents: 10000})
	publ := &recordingPublisher{err: fmt.Errorf("broker fora do ar")}
	s := newWithdrawals(mem, publ)

	if err := s.Request(context.Background(), "u1", 3000, testCPF); err != nil {
		t.Fatalf("falha de publish não deveria falhar o saque: %v", err)
	}
	if got := mem.Balance("u1"); got != 7000 {
		t.Errorf("saldo = %d", got)
	}
}
