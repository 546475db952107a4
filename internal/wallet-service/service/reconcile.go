package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/commission"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/pixel"
	"github.com/betfoundry/pix-wallet-platform/pkg/contracts/events"
)

// Reconciler aplica entregas de webhook do gateway ao ledger de forma
// idempotente. Entregas são at-least-once: replays de depósitos já pagos
// respondem "já processado" sem nenhuma mutação.
type Reconciler struct {
	log   *zap.Logger
	store ledger.Store
	gw    Gateway
	attr  Attribution
	publ  Publisher
}

func NewReconciler(log *zap.Logger, store ledger.Store, gw Gateway, attr Attribution, publ Publisher) *Reconciler {
	return &Reconciler{log: log, store: store, gw: gw, attr: attr, publ: publ}
}

type ReconcileResult struct {
	AlreadyProcessed bool
	Paid             bool
	CommissionCents  int64
	Deposit          *ledger.Deposit
}

// Process normaliza o payload e aplica a transição de status em uma única
// transação: atualização do depósito, crédito do saldo e comissão CPA são
// atômicos. Pixel e evento kafka saem depois do commit, best-effort.
func (r *Reconciler) Process(ctx context.Context, raw []byte) (*ReconcileResult, error) {
	wh, err := r.gw.ParseWebhook(raw)
	if err != nil {
		return nil, err
	}

	res := &ReconcileResult{}
	err = r.store.WithTx(ctx, func(tx ledger.Tx) error {
		dep, err := tx.DepositForUpdate(ctx, wh.TransactionID, r.gw.GatewayName())
		if err != nil {
			return err
		}
		res.Deposit = dep

		// PAID é terminal: replay de entrega não mexe em nada
		if dep.Status == ledger.DepositPaid {
			res.AlreadyProcessed = true
			return nil
		}

		// PAID e o sinônimo APPROVED do provedor viram PAID; qualquer outro
		// status é gravado como veio
		if wh.Status != ledger.DepositPaid && wh.Status != "APPROVED" {
			return tx.UpdateDepositStatus(ctx, dep.ID, wh.Status, nil)
		}

		paidAt := time.Now()
		if wh.PaidAt != nil {
			paidAt = *wh.PaidAt
		}
		if err := tx.UpdateDepositStatus(ctx, dep.ID, ledger.DepositPaid, &paidAt); err != nil {
			return err
		}
		if err := tx.CreditBalance(ctx, dep.AccountID, dep.AmountCents); err != nil {
			return err
		}
		dep.Status = ledger.DepositPaid
		dep.PaidAt = &paidAt
		res.Paid = true

		return r.payCommission(ctx, tx, dep, res)
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyProcessed {
		r.log.Info("webhook já processado",
			zap.String("gatewayTxId", wh.TransactionID),
			zap.String("depositId", res.Deposit.ID),
		)
		return res, nil
	}

	r.log.Info("webhook aplicado",
		zap.String("gatewayTxId", wh.TransactionID),
		zap.String("depositId", res.Deposit.ID),
		zap.String("status", res.Deposit.Status),
		zap.Bool("paid", res.Paid),
	)

	if res.Paid {
		r.afterPaid(ctx, res)
	}
	return res, nil
}

// payCommission credita o CPA do afiliado na mesma transação do crédito do
// depósito: ou os dois entram, ou nenhum.
func (r *Reconciler) payCommission(ctx context.Context, tx ledger.Tx, dep *ledger.Deposit, res *ReconcileResult) error {
	acct, err := tx.AccountForUpdate(ctx, dep.AccountID)
	if err != nil {
		return err
	}
	if acct.ReferrerID == "" {
		return nil
	}

	referrer, err := tx.AccountForUpdate(ctx, acct.ReferrerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		return err
	}
	otherPaid, err := tx.CountOtherPaidDeposits(ctx, dep.AccountID, dep.ID)
	if err != nil {
		return err
	}

	c := commission.Evaluate(referrer, otherPaid)
	if !c.Eligible {
		return nil
	}

	if err := tx.CreditBalance(ctx, referrer.ID, c.AmountCents); err != nil {
		return err
	}
	if err := tx.InsertCommissionEntry(ctx, &ledger.CommissionEntry{
		ReferrerID:  referrer.ID,
		ReferredID:  dep.AccountID,
		DepositID:   dep.ID,
		AmountCents: c.AmountCents,
	}); err != nil {
		return err
	}
	res.CommissionCents = c.AmountCents

	r.log.Info("comissão CPA paga",
		zap.String("referrerId", referrer.ID),
		zap.String("referredId", dep.AccountID),
		zap.String("depositId", dep.ID),
		zap.Int64("amountCents", c.AmountCents),
	)
	return nil
}

// afterPaid roda fora da transação: Purchase pixel (join pela sessão de
// checkout via ExternalID, não pelo id do gateway) e evento deposit_paid.
func (r *Reconciler) afterPaid(ctx context.Context, res *ReconcileResult) {
	dep := res.Deposit

	sess, err := r.store.GetCheckoutSession(ctx, dep.ExternalID)
	switch {
	case err == nil:
		r.attr.Dispatch(pixel.Event{
			Name:        "Purchase",
			EventID:     "purchase_" + sess.ExternalID,
			Email:       sess.Email,
			Phone:       sess.Phone,
			AmountCents: sess.AmountCents,
			FBP:         sess.FBP,
			FBC:         sess.FBC,
			IPAddress:   sess.IPAddress,
			UserAgent:   sess.UserAgent,
		})
	case errors.Is(err, ledger.ErrNotFound):
		r.log.Warn("sessão de checkout não encontrada", zap.String("externalId", dep.ExternalID))
	default:
		r.log.Warn("consulta de sessão de checkout", zap.Error(err))
	}

	if r.publ != nil {
		paidAt := time.Now()
		if dep.PaidAt != nil {
			paidAt = *dep.PaidAt
		}
		if err := r.publ.PublishDepositPaid(ctx, events.DepositPaid{
			DepositID:       dep.ID,
			AccountID:       dep.AccountID,
			AmountCents:     dep.AmountCents,
			Gateway:         dep.Gateway,
			CommissionCents: res.CommissionCents,
			PaidAt:          paidAt,
		}); err != nil {
			r.log.Warn("publish deposit_paid", zap.Error(err))
		}
	}
}
