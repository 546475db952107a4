package ledger

import (
	"context"
	"database/sql"
	"time"
)

// Postgres implementa o Store sobre Postgres com lock pessimista de linha
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	dbtx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbtx.Rollback()

	if err := fn(&pgTx{tx: dbtx}); err != nil {
		return err
	}
	return dbtx.Commit()
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (*Account, error) {
	return scanAccount(p.db.QueryRowContext(ctx, `
		SELECT id, name, email, balance_cents, COALESCE(referrer_id,''), COALESCE(commission_cents,0), banned
		FROM accounts WHERE id=$1`, id))
}

func (p *Postgres) GetCheckoutSession(ctx context.Context, externalID string) (*CheckoutSession, error) {
	s := &CheckoutSession{}
	err := p.db.QueryRowContext(ctx, `
		SELECT external_id, account_id, email, phone, amount_cents,
		       COALESCE(fbp,''), COALESCE(fbc,''), COALESCE(ip_address,''), COALESCE(user_agent,'')
		FROM checkout_sessions WHERE external_id=$1`, externalID).
		Scan(&s.ExternalID, &s.AccountID, &s.Email, &s.Phone, &s.AmountCents,
			&s.FBP, &s.FBC, &s.IPAddress, &s.UserAgent)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Postgres) ActiveGateway(ctx context.Context) (string, error) {
	var active string
	err := p.db.QueryRowContext(ctx, `SELECT active FROM gateways LIMIT 1`).Scan(&active)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return active, err
}

// pgTx implementa Tx sobre uma *sql.Tx aberta
type pgTx struct{ tx *sql.Tx }

func (t *pgTx) AccountForUpdate(ctx context.Context, id string) (*Account, error) {
	return scanAccount(t.tx.QueryRowContext(ctx, `
		SELECT id, name, email, balance_cents, COALESCE(referrer_id,''), COALESCE(commission_cents,0), banned
		FROM accounts WHERE id=$1 FOR UPDATE`, id))
}

func (t *pgTx) DepositForUpdate(ctx context.Context, gatewayTxID, gateway string) (*Deposit, error) {
	d := &Deposit{}
	var paidAt sql.NullTime
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, gateway_tx_id, external_id, account_id, name, cpf, amount_cents,
		       status, COALESCE(qrcode,''), gateway, idempotency_key, created_at, paid_at
		FROM deposits WHERE gateway_tx_id=$1 AND gateway=$2 LIMIT 1 FOR UPDATE`,
		gatewayTxID, gateway).
		Scan(&d.ID, &d.GatewayTxID, &d.ExternalID, &d.AccountID, &d.Name, &d.CPF, &d.AmountCents,
			&d.Status, &d.QRCode, &d.Gateway, &d.IdempotencyKey, &d.CreatedAt, &paidAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		d.PaidAt = &paidAt.Time
	}
	return d, nil
}

func (t *pgTx) InsertDeposit(ctx context.Context, d *Deposit) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO deposits (id, gateway_tx_id, external_id, account_id, name, cpf,
		                      amount_cents, status, qrcode, gateway, idempotency_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())`,
		d.ID, d.GatewayTxID, d.ExternalID, d.AccountID, d.Name, d.CPF,
		d.AmountCents, d.Status, d.QRCode, d.Gateway, d.IdempotencyKey)
	return err
}

func (t *pgTx) UpsertCheckoutSession(ctx context.Context, s *CheckoutSession) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO checkout_sessions (external_id, account_id, email, phone, amount_cents,
		                               fbp, fbc, ip_address, user_agent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (external_id) DO UPDATE SET
			email=EXCLUDED.email, phone=EXCLUDED.phone, amount_cents=EXCLUDED.amount_cents,
			fbp=EXCLUDED.fbp, fbc=EXCLUDED.fbc,
			ip_address=EXCLUDED.ip_address, user_agent=EXCLUDED.user_agent`,
		s.ExternalID, s.AccountID, s.Email, s.Phone, s.AmountCents,
		s.FBP, s.FBC, s.IPAddress, s.UserAgent)
	return err
}

func (t *pgTx) UpdateDepositStatus(ctx context.Context, depositID, status string, paidAt *time.Time) error {
	if paidAt != nil {
		_, err := t.tx.ExecContext(ctx,
			`UPDATE deposits SET status=$1, paid_at=$2, updated_at=NOW() WHERE id=$3`,
			status, *paidAt, depositID)
		return err
	}
	_, err := t.tx.ExecContext(ctx,
		`UPDATE deposits SET status=$1, updated_at=NOW() WHERE id=$2`, status, depositID)
	return err
}

func (t *pgTx) CreditBalance(ctx context.Context, accountID string, cents int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + $1 WHERE id=$2`, cents, accountID)
	return err
}

func (t *pgTx) DebitBalance(ctx context.Context, accountID string, cents int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents - $1 WHERE id=$2`, cents, accountID)
	return err
}

func (t *pgTx) HasPendingWithdrawal(ctx context.Context, accountID string) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM withdrawals WHERE account_id=$1 AND status='PENDING'`, accountID).Scan(&n)
	return n > 0, err
}

func (t *pgTx) InsertWithdrawal(ctx context.Context, w *Withdrawal) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, transaction_id, account_id, name, cpf, amount_cents, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
		w.ID, w.TransactionID, w.AccountID, w.Name, w.CPF, w.AmountCents, w.Status)
	return err
}

func (t *pgTx) CountOtherPaidDeposits(ctx context.Context, accountID, excludeDepositID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM deposits
		WHERE account_id=$1 AND status='PAID' AND id != $2`, accountID, excludeDepositID).Scan(&n)
	return n, err
}

func (t *pgTx) InsertCommissionEntry(ctx context.Context, e *CommissionEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO commission_entries (referrer_id, referred_id, deposit_id, amount_cents, created_at)
		VALUES ($1,$2,$3,$4,NOW())`,
		e.ReferrerID, e.ReferredID, e.DepositID, e.AmountCents)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanAccount(row rowScanner) (*Account, error) {
	a := &Account{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.BalanceCents, &a.ReferrerID, &a.CommissionCents, &a.Banned)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
