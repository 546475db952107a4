package ledger

import (
	"context"
	"sync"
	"time"
)

// Memory implementa o Store em memória. Usado nos testes de serviço: o mutex
// único serializa as transações, equivalente ao lock de linha do Postgres, e o
// snapshot no início de cada transação dá rollback completo em caso de erro.
type Memory struct {
	mu sync.Mutex

	accounts    map[string]*Account
	deposits    map[string]*Deposit // por ID
	byGatewayTx map[string]string   // gateway+"/"+gatewayTxID -> deposit ID
	withdrawals []*Withdrawal
	sessions    map[string]*CheckoutSession
	commissions []*CommissionEntry
	gateway     string
}

func NewMemory() *Memory {
	return &Memory{
		accounts:    map[string]*Account{},
		deposits:    map[string]*Deposit{},
		byGatewayTx: map[string]string{},
		sessions:    map[string]*CheckoutSession{},
	}
}

// PutAccount insere ou substitui uma conta (setup de testes)
func (m *Memory) PutAccount(a *Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.ID] = &cp
}

// SetActiveGateway define o gateway ativo (setup de testes)
func (m *Memory) SetActiveGateway(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateway = name
}

// Balance retorna o saldo atual de uma conta (asserções de testes)
func (m *Memory) Balance(accountID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[accountID]; ok {
		return a.BalanceCents
	}
	return 0
}

// Deposits retorna uma cópia dos depósitos (asserções de testes)
func (m *Memory) Deposits() []*Deposit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Deposit, 0, len(m.deposits))
	for _, d := range m.deposits {
		cp := *d
		out = append(out, &cp)
	}
	return out
}

// Withdrawals retorna uma cópia dos saques (asserções de testes)
func (m *Memory) Withdrawals() []*Withdrawal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Withdrawal, len(m.withdrawals))
	for i, w := range m.withdrawals {
		cp := *w
		out[i] = &cp
	}
	return out
}

// Commissions retorna uma cópia das comissões (asserções de testes)
func (m *Memory) Commissions() []*CommissionEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*CommissionEntry, len(m.commissions))
	for i, e := range m.commissions {
		cp := *e
		out[i] = &cp
	}
	return out
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memTx{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *Memory) GetAccount(ctx context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) GetCheckoutSession(ctx context.Context, externalID string) (*CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) ActiveGateway(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gateway == "" {
		return "", ErrNotFound
	}
	return m.gateway, nil
}

type memState struct {
	accounts    map[string]*Account
	deposits    map[string]*Deposit
	byGatewayTx map[string]string
	withdrawals []*Withdrawal
	sessions    map[string]*CheckoutSession
	commissions []*CommissionEntry
	gateway     string
}

func (m *Memory) snapshot() memState {
	s := memState{
		accounts:    make(map[string]*Account, len(m.accounts)),
		deposits:    make(map[string]*Deposit, len(m.deposits)),
		byGatewayTx: make(map[string]string, len(m.byGatewayTx)),
		withdrawals: make([]*Withdrawal, len(m.withdrawals)),
		sessions:    make(map[string]*CheckoutSession, len(m.sessions)),
		commissions: make([]*CommissionEntry, len(m.commissions)),
		gateway:     m.gateway,
	}
	for k, v := range m.accounts {
		cp := *v
		s.accounts[k] = &cp
	}
	for k, v := range m.deposits {
		cp := *v
		s.deposits[k] = &cp
	}
	for k, v := range m.byGatewayTx {
		s.byGatewayTx[k] = v
	}
	for i, v := range m.withdrawals {
		cp := *v
		s.withdrawals[i] = &cp
	}
	for k, v := range m.sessions {
		cp := *v
		s.sessions[k] = &cp
	}
	for i, v := range m.commissions {
		cp := *v
		s.commissions[i] = &cp
	}
	return s
}

func (m *Memory) restore(s memState) {
	m.accounts = s.accounts
	m.deposits = s.deposits
	m.byGatewayTx = s.byGatewayTx
	m.withdrawals = s.withdrawals
	m.sessions = s.sessions
	m.commissions = s.commissions
	m.gateway = s.gateway
}

// memTx opera direto no estado do Memory; o lock já foi adquirido em WithTx
type memTx struct{ m *Memory }

func (t *memTx) AccountForUpdate(ctx context.Context, id string) (*Account, error) {
	a, ok := t.m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (t *memTx) DepositForUpdate(ctx context.Context, gatewayTxID, gateway string) (*Deposit, error) {
	id, ok := t.m.byGatewayTx[gateway+"/"+gatewayTxID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t.m.deposits[id]
	return &cp, nil
}

func (t *memTx) InsertDeposit(ctx context.Context, d *Deposit) error {
	cp := *d
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.m.deposits[cp.ID] = &cp
	t.m.byGatewayTx[cp.Gateway+"/"+cp.GatewayTxID] = cp.ID
	return nil
}

func (t *memTx) UpsertCheckoutSession(ctx context.Context, s *CheckoutSession) error {
	cp := *s
	t.m.sessions[cp.ExternalID] = &cp
	return nil
}

func (t *memTx) UpdateDepositStatus(ctx context.Context, depositID, status string, paidAt *time.Time) error {
	d, ok := t.m.deposits[depositID]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	if paidAt != nil {
		at := *paidAt
		d.PaidAt = &at
	}
	return nil
}

func (t *memTx) CreditBalance(ctx context.Context, accountID string, cents int64) error {
	a, ok := t.m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.BalanceCents += cents
	return nil
}

func (t *memTx) DebitBalance(ctx context.Context, accountID string, cents int64) error {
	a, ok := t.m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.BalanceCents -= cents
	return nil
}

func (t *memTx) HasPendingWithdrawal(ctx context.Context, accountID string) (bool, error) {
	for _, w := range t.m.withdrawals {
		if w.AccountID == accountID && w.Status == WithdrawalPending {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertWithdrawal(ctx context.Context, w *Withdrawal) error {
	cp := *w
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.m.withdrawals = append(t.m.withdrawals, &cp)
	return nil
}

func (t *memTx) CountOtherPaidDeposits(ctx context.Context, accountID, excludeDepositID string) (int, error) {
	n := 0
	for _, d := range t.m.deposits {
		if d.AccountID == accountID && d.Status == DepositPaid && d.ID != excludeDepositID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertCommissionEntry(ctx context.Context, e *CommissionEntry) error {
	cp := *e
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.m.commissions = append(t.m.commissions, &cp)
	return nil
}
