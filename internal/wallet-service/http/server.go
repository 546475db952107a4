package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/dto"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/gateway"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/money"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/service"
)

// Deposits inicia depósitos Pix
type Deposits interface {
	Initiate(ctx context.Context, r service.DepositRequest) (*service.DepositResult, error)
}

// Withdrawals processa solicitações de saque
type Withdrawals interface {
	Request(ctx context.Context, accountID string, amountCents int64, cpf string) error
}

// Callbacks reconcilia entregas de webhook de um gateway
type Callbacks interface {
	Process(ctx context.Context, raw []byte) (*service.ReconcileResult, error)
}

// Server expõe os endpoints HTTP da carteira
type Server struct {
	log         *zap.Logger
	sessions    Sessions
	deposits    Deposits
	withdrawals Withdrawals
	callbacks   map[string]Callbacks // por nome de gateway
}

func NewServer(log *zap.Logger, sessions Sessions, d Deposits, w Withdrawals, callbacks map[string]Callbacks) *Server {
	return &Server{log: log, sessions: sessions, deposits: d, withdrawals: w, callbacks: callbacks}
}

// Router retorna o mux HTTP com as rotas da carteira
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/deposit", s.deposit)    // POST (form)
	mux.HandleFunc("/withdraw", s.withdraw)  // POST (json)
	mux.HandleFunc("/callback/", s.callback) // POST /callback/{gateway}
	return mux
}

// deposit inicia um depósito Pix para a conta autenticada
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeStatusJSON(w, http.StatusMethodNotAllowed, dto.DepositResponse{Success: false, Message: "Método não permitido"})
		return
	}
	accountID, ok := s.sessions.AccountID(r)
	if !ok {
		writeStatusJSON(w, http.StatusUnauthorized, dto.DepositResponse{Success: false, Message: "Usuário não autenticado"})
		return
	}

	amountCents, err := money.ParseBRL(r.PostFormValue("amount"))
	if err != nil || amountCents <= 0 {
		writeStatusJSON(w, http.StatusBadRequest, dto.DepositResponse{Success: false, Message: "Dados inválidos"})
		return
	}

	fbp, fbc := cookieValue(r, "_fbp"), cookieValue(r, "_fbc")
	res, err := s.deposits.Initiate(r.Context(), service.DepositRequest{
		AccountID:   accountID,
		AmountCents: amountCents,
		CPF:         r.PostFormValue("cpf"),
		FBP:         fbp,
		FBC:         fbc,
		IPAddress:   clientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		s.log.Warn("deposit", zap.String("accountId", accountID), zap.Error(err))
		status, msg := depositErrorStatus(err)
		writeStatusJSON(w, status, dto.DepositResponse{Success: false, Message: msg})
		return
	}

	writeStatusJSON(w, http.StatusOK, dto.DepositResponse{
		Success:      true,
		Status:       res.Status,
		QRCode:       res.QRCode,
		QRCodeBase64: res.QRCodeBase64,
		Gateway:      res.Gateway,
	})
}

// withdraw solicita um saque para a conta autenticada
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeStatusJSON(w, http.StatusMethodNotAllowed, dto.WithdrawResponse{Success: false, Message: "Método não permitido"})
		return
	}
	accountID, ok := s.sessions.AccountID(r)
	if !ok {
		writeStatusJSON(w, http.StatusUnauthorized, dto.WithdrawResponse{Success: false, Message: "Usuário não autenticado"})
		return
	}

	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 || req.CPF == "" {
		writeStatusJSON(w, http.StatusBadRequest, dto.WithdrawResponse{Success: false, Message: "Dados incompletos"})
		return
	}

	err := s.withdrawals.Request(r.Context(), accountID, money.FromReais(req.Amount), req.CPF)
	if err != nil {
		s.log.Warn("withdraw", zap.String("accountId", accountID), zap.Error(err))
		status, msg := withdrawErrorStatus(err)
		writeStatusJSON(w, status, dto.WithdrawResponse{Success: false, Message: msg})
		return
	}

	writeStatusJSON(w, http.StatusOK, dto.WithdrawResponse{Success: true, Message: "Saque solicitado com sucesso!"})
}

// callback aplica um webhook de gateway; sem autenticação, mas idempotente e
// inofensivo para replays de ids desconhecidos
func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeStatusJSON(w, http.StatusMethodNotAllowed, dto.CallbackResponse{Error: "Método não permitido"})
		return
	}
	gwName := strings.TrimPrefix(r.URL.Path, "/callback/")
	rec, ok := s.callbacks[gwName]
	if !ok {
		writeStatusJSON(w, http.StatusNotFound, dto.CallbackResponse{Error: "Gateway desconhecido"})
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeStatusJSON(w, http.StatusBadRequest, dto.CallbackResponse{Error: "Payload inválido"})
		return
	}

	res, err := rec.Process(r.Context(), raw)
	switch {
	case errors.Is(err, gateway.ErrInvalidPayload):
		writeStatusJSON(w, http.StatusBadRequest, dto.CallbackResponse{Error: "Payload inválido"})
	case errors.Is(err, ledger.ErrNotFound):
		writeStatusJSON(w, http.StatusNotFound, dto.CallbackResponse{Error: "Depósito não encontrado"})
	case err != nil:
		s.log.Error("callback", zap.String("gateway", gwName), zap.Error(err))
		writeStatusJSON(w, http.StatusInternalServerError, dto.CallbackResponse{Error: "Erro interno"})
	case res.AlreadyProcessed:
		writeStatusJSON(w, http.StatusOK, dto.CallbackResponse{Message: "Já processado"})
	default:
		writeStatusJSON(w, http.StatusOK, dto.CallbackResponse{Message: "OK"})
	}
}

// depositErrorStatus mapeia erros da iniciação de depósito para HTTP
func depositErrorStatus(err error) (int, string) {
	var apiErr *gateway.APIError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Dados inválidos"
	case errors.As(err, &apiErr):
		// Falha do provedor: mensagem repassada ao caller
		return http.StatusBadRequest, apiErr.Message
	case errors.Is(err, service.ErrGatewayInactive):
		return http.StatusInternalServerError, "Somente PixUp está configurado como gateway."
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusInternalServerError, "Usuário não encontrado."
	default:
		return http.StatusInternalServerError, "Erro interno"
	}
}

// withdrawErrorStatus mapeia erros do saque para HTTP
func withdrawErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "CPF inválido"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusInternalServerError, "Saldo insuficiente para realizar o saque"
	case errors.Is(err, ledger.ErrPendingWithdrawal):
		return http.StatusInternalServerError, "Você já possui um saque pendente. Aguarde a conclusão para solicitar outro."
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusInternalServerError, "Usuário não encontrado"
	default:
		return http.StatusInternalServerError, "Erro interno"
	}
}

func cookieValue(r *http.Request, name string) string {
	if c, err := r.Cookie(name); err == nil {
		return c.Value
	}
	return ""
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeStatusJSON serializa e envia resposta JSON com o status dado
func writeStatusJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
