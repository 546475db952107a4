// Package gateway implementa o cliente do gateway de pagamentos Pix (PixUp):
// autenticação client-credentials, geração de QR Code e normalização dos
// payloads de webhook.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/money"
)

const Name = "pixup"

const tokenCacheKey = "pixup:token"

// ErrInvalidPayload indica webhook sem transactionId ou payload fora do formato esperado
var ErrInvalidPayload = errors.New("payload inválido")

// APIError é uma falha reportada pelo provedor; a mensagem é repassada ao caller
type APIError struct{ Message string }

func (e *APIError) Error() string { return e.Message }

// PaymentRequest é a intenção de pagamento enviada ao gateway
type PaymentRequest struct {
	AmountCents   int64
	ExternalID    string
	Description   string
	PayerName     string
	PayerDocument string
	PayerEmail    string
}

// Payment é o resultado da criação de um pagamento Pix
type Payment struct {
	TransactionID string
	Status        string
	QRCode        string
	QRCodeBase64  string
}

// Webhook é o registro normalizado de uma entrega de webhook do gateway
type Webhook struct {
	TransactionID string
	ExternalID    string
	Status        string
	AmountCents   int64
	PaidAt        *time.Time
	PayerName     string
	PayerEmail    string
	PayerDocument string
}

type Pixup struct {
	baseURL      string
	backendURL   string
	clientID     string
	clientSecret string
	http         *http.Client
	rdb          *redis.Client // cache de token; opcional
	log          *zap.Logger
}

func NewPixup(log *zap.Logger, rdb *redis.Client, baseURL, backendURL, clientID, clientSecret string) *Pixup {
	return &Pixup{
		baseURL:      strings.TrimRight(baseURL, "/"),
		backendURL:   strings.TrimRight(backendURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
		rdb:          rdb,
		log:          log,
	}
}

func (p *Pixup) GatewayName() string { return Name }

// token retorna um access token válido, usando o cache redis quando disponível
func (p *Pixup) token(ctx context.Context) (string, error) {
	if p.rdb != nil {
		if tok, err := p.rdb.Get(ctx, tokenCacheKey).Result(); err == nil && tok != "" {
			return tok, nil
		}
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/oauth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pixup auth: %w", err)
	}
	defer res.Body.Close()

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	body, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(body, &out); err != nil || res.StatusCode >= 400 || out.AccessToken == "" {
		p.log.Warn("pixup auth falhou", zap.Int("http", res.StatusCode))
		return "", &APIError{Message: "Falha na autenticação PixUp"}
	}

	if p.rdb != nil {
		ttl := time.Duration(out.ExpiresIn-60) * time.Second
		if ttl < time.Minute {
			ttl = time.Minute
		}
		if err := p.rdb.Set(ctx, tokenCacheKey, out.AccessToken, ttl).Err(); err != nil {
			p.log.Warn("cache de token pixup", zap.Error(err))
		}
	}
	return out.AccessToken, nil
}

// CreatePayment cria uma intenção de pagamento Pix e retorna o QR Code.
// Falhas do provedor viram *APIError com a mensagem original.
func (p *Pixup) CreatePayment(ctx context.Context, r PaymentRequest) (*Payment, error) {
	tok, err := p.token(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"amount":        money.Reais(r.AmountCents),
		"payerQuestion": r.Description,
		"external_id":   r.ExternalID,
		"postbackUrl":   p.backendURL + "/callback/" + Name,
		"payer": map[string]any{
			"name":     r.PayerName,
			"document": r.PayerDocument,
			"email":    r.PayerEmail,
		},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pix/qrcode", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixup qrcode: %w", err)
	}
	defer res.Body.Close()

	var out struct {
		ID            string `json:"id"`
		TransactionID string `json:"transactionId"`
		EMV           string `json:"emv"`
		QRCode        string `json:"qrcode"`
		Base64Image   string `json:"base64Image"`
		Status        string `json:"status"`
		Message       string `json:"message"`
	}
	raw, _ := io.ReadAll(res.Body)
	_ = json.Unmarshal(raw, &out)

	qr := out.EMV
	if qr == "" {
		qr = out.QRCode
	}
	if res.StatusCode >= 400 || qr == "" {
		msg := out.Message
		if msg == "" {
			msg = "Erro ao gerar QRCode PixUp"
		}
		p.log.Warn("pixup qrcode falhou", zap.Int("http", res.StatusCode), zap.String("message", msg))
		return nil, &APIError{Message: msg}
	}

	txID := out.ID
	if txID == "" {
		txID = out.TransactionID
	}
	status := out.Status
	if status == "" {
		status = "PENDING"
	}

	return &Payment{
		TransactionID: txID,
		Status:        status,
		QRCode:        qr,
		QRCodeBase64:  out.Base64Image,
	}, nil
}

// webhookBody é o corpo cru do webhook PixUp; alguns envios vêm aninhados em requestBody
type webhookBody struct {
	TransactionID string  `json:"transactionId"`
	ExternalID    string  `json:"external_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	DateApproval  string  `json:"dateApproval"`
	CreditParty   struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		TaxID string `json:"taxId"`
	} `json:"creditParty"`
}

// ParseWebhook normaliza uma entrega de webhook. Falha fechado: sem
// transactionId o payload é rejeitado com ErrInvalidPayload.
func (p *Pixup) ParseWebhook(raw []byte) (*Webhook, error) {
	var envelope struct {
		RequestBody json.RawMessage `json:"requestBody"`
	}
	body := raw
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, ErrInvalidPayload
	}
	if len(envelope.RequestBody) > 0 && string(envelope.RequestBody) != "null" {
		body = envelope.RequestBody
	}

	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, ErrInvalidPayload
	}
	if wb.TransactionID == "" {
		return nil, ErrInvalidPayload
	}

	w := &Webhook{
		TransactionID: wb.TransactionID,
		ExternalID:    wb.ExternalID,
		Status:        strings.ToUpper(wb.Status),
		AmountCents:   money.FromReais(wb.Amount),
		PayerName:     wb.CreditParty.Name,
		PayerEmail:    wb.CreditParty.Email,
		PayerDocument: wb.CreditParty.TaxID,
	}
	if wb.DateApproval != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
			if at, err := time.Parse(layout, wb.DateApproval); err == nil {
				w.PaidAt = &at
				break
			}
		}
	}
	return w, nil
}
