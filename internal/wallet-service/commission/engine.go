// Package commission avalia a elegibilidade de comissão CPA de afiliados.
// A avaliação é pura; o crédito e o registro acontecem na mesma transação do
// crédito do depósito, no reconciliador de webhooks.
package commission

import "github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"

type Result struct {
	Eligible    bool
	AmountCents int64
}

// Evaluate decide se o primeiro depósito pago de um usuário indicado gera CPA.
// Regras: afiliado existe, não está banido, tem CPA configurado e este é o
// primeiro depósito PAID do indicado (otherPaidDeposits não conta o atual).
func Evaluate(referrer *ledger.Account, otherPaidDeposits int) Result {
	if referrer == nil || referrer.Banned {
		return Result{}
	}
	if referrer.CommissionCents <= 0 {
		return Result{}
	}
	if otherPaidDeposits != 0 {
		return Result{}
	}
	return Result{Eligible: true, AmountCents: referrer.CommissionCents}
}
