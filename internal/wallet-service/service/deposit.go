package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/gateway"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/money"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/pixel"
)

// Deposits inicia depósitos Pix: cria a intenção no gateway, persiste o
// depósito PENDING com a sessão de checkout e dispara o InitiateCheckout.
type Deposits struct {
	log   *zap.Logger
	store ledger.Store
	gw    Gateway
	attr  Attribution
}

func NewDeposits(log *zap.Logger, store ledger.Store, gw Gateway, attr Attribution) *Deposits {
	return &Deposits{log: log, store: store, gw: gw, attr: attr}
}

type DepositRequest struct {
	AccountID   string
	AmountCents int64
	CPF         string

	// Dados de atribuição capturados da requisição
	FBP       string
	FBC       string
	IPAddress string
	UserAgent string
}

type DepositResult struct {
	Status       string
	QRCode       string
	QRCodeBase64 string
	Gateway      string
}

func (s *Deposits) Initiate(ctx context.Context, r DepositRequest) (*DepositResult, error) {
	if r.AmountCents <= 0 {
		return nil, ErrInvalidInput
	}
	doc, ok := sanitizeCPF(r.CPF)
	if !ok {
		return nil, ErrInvalidInput
	}

	// O gateway ativo precisa ser o provedor que este serviço implementa
	active, err := s.store.ActiveGateway(ctx)
	if err != nil {
		return nil, fmt.Errorf("gateway ativo: %w", err)
	}
	if active != s.gw.GatewayName() {
		return nil, ErrGatewayInactive
	}

	acct, err := s.store.GetAccount(ctx, r.AccountID)
	if err != nil {
		return nil, err
	}

	externalID := "dep_" + uuid.NewString()
	idempotencyKey := uuid.NewString()

	// Chamada ao gateway antes de abrir a transação; falha não persiste nada
	pay, err := s.gw.CreatePayment(ctx, gateway.PaymentRequest{
		AmountCents:   r.AmountCents,
		ExternalID:    externalID,
		Description:   "Depósito de R$ " + money.FormatBRL(r.AmountCents),
		PayerName:     acct.Name,
		PayerDocument: doc,
		PayerEmail:    acct.Email,
	})
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx ledger.Tx) error {
		if err := tx.InsertDeposit(ctx, &ledger.Deposit{
			ID:             uuid.NewString(),
			GatewayTxID:    pay.TransactionID,
			ExternalID:     externalID,
			AccountID:      acct.ID,
			Name:           acct.Name,
			CPF:            doc,
			AmountCents:    r.AmountCents,
			Status:         pay.Status,
			QRCode:         pay.QRCode,
			Gateway:        s.gw.GatewayName(),
			IdempotencyKey: idempotencyKey,
		}); err != nil {
			return err
		}
		return tx.UpsertCheckoutSession(ctx, &ledger.CheckoutSession{
			ExternalID:  externalID,
			AccountID:   acct.ID,
			Email:       acct.Email,
			Phone:       doc,
			AmountCents: r.AmountCents,
			FBP:         r.FBP,
			FBC:         r.FBC,
			IPAddress:   r.IPAddress,
			UserAgent:   r.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("depósito iniciado",
		zap.String("accountId", acct.ID),
		zap.String("externalId", externalID),
		zap.String("gatewayTxId", pay.TransactionID),
		zap.Int64("amountCents", r.AmountCents),
	)

	s.attr.Dispatch(pixel.Event{
		Name:        "InitiateCheckout",
		EventID:     externalID,
		Email:       acct.Email,
		Phone:       doc,
		AmountCents: r.AmountCents,
		FBP:         r.FBP,
		FBC:         r.FBC,
		IPAddress:   r.IPAddress,
		UserAgent:   r.UserAgent,
	})

	return &DepositResult{
		Status:       pay.Status,
		QRCode:       pay.QRCode,
		QRCodeBase64: pay.QRCodeBase64,
		Gateway:      s.gw.GatewayName(),
	}, nil
}
