package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"
	"github.com/betfoundry/pix-wallet-platform/pkg/contracts/events"
)

// Withdrawals processa solicitações de saque: valida, debita o saldo sob lock
// da conta e cria o saque PENDING. A aprovação é de um processo externo.
type Withdrawals struct {
	log   *zap.Logger
	store ledger.Store
	names Names
	publ  Publisher
}

func NewWithdrawals(log *zap.Logger, store ledger.Store, names Names, publ Publisher) *Withdrawals {
	return &Withdrawals{log: log, store: store, names: names, publ: publ}
}

// Request executa o saque em uma única transação: lock da conta, checagem de
// saldo, checagem de saque pendente, débito e inserção do saque. A resolução
// do nome acontece antes da transação para não segurar o lock durante a
// chamada externa; falha na consulta vira placeholder, nunca erro.
func (s *Withdrawals) Request(ctx context.Context, accountID string, amountCents int64, cpf string) error {
	if amountCents <= 0 {
		return ErrInvalidInput
	}
	doc, ok := sanitizeCPF(cpf)
	if !ok {
		return ErrInvalidInput
	}

	name := s.names.ResolveName(ctx, doc)

	w := &ledger.Withdrawal{
		ID:            uuid.NewString(),
		TransactionID: "WTH_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		AccountID:     accountID,
		Name:          name,
		CPF:           doc,
		AmountCents:   amountCents,
		Status:        ledger.WithdrawalPending,
	}

	err := s.store.WithTx(ctx, func(tx ledger.Tx) error {
		acct, err := tx.AccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if acct.BalanceCents < amountCents {
			return ledger.ErrInsufficientFunds
		}
		pending, err := tx.HasPendingWithdrawal(ctx, accountID)
		if err != nil {
			return err
		}
		if pending {
			return ledger.ErrPendingWithdrawal
		}
		if err := tx.DebitBalance(ctx, accountID, amountCents); err != nil {
			return err
		}
		return tx.InsertWithdrawal(ctx, w)
	})
	if err != nil {
		return err
	}

	s.log.Info("saque solicitado",
		zap.String("accountId", accountID),
		zap.String("transactionId", w.TransactionID),
		zap.Int64("amountCents", amountCents),
		zap.String("nome", name),
	)

	// Evento para o processo externo de aprovação; falha não desfaz o saque
	if s.publ != nil {
		if err := s.publ.PublishWithdrawRequested(ctx, events.WithdrawRequested{
			WithdrawalID:  w.ID,
			TransactionID: w.TransactionID,
			AccountID:     accountID,
			AmountCents:   amountCents,
		}); err != nil {
			s.log.Warn("publish withdraw_requested", zap.Error(err))
		}
	}
	return nil
}
