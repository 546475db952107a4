// Package pixel envia eventos de conversão (Conversions API do Facebook).
// Entrega best-effort: falhas são apenas logadas e nunca chegam ao fluxo
// principal da carteira.
package pixel

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/money"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

// Event é um evento de conversão (InitiateCheckout, Purchase)
type Event struct {
	Name        string
	EventID     string
	Email       string
	Phone       string
	AmountCents int64
	FBP         string
	FBC         string
	IPAddress   string
	UserAgent   string
}

type Client struct {
	pixelID       string
	accessToken   string
	testEventCode string
	baseURL       string
	http          *http.Client
	log           *zap.Logger
}

func NewClient(log *zap.Logger, pixelID, accessToken, testEventCode string) *Client {
	return &Client{
		pixelID:       pixelID,
		accessToken:   accessToken,
		testEventCode: testEventCode,
		baseURL:       defaultBaseURL,
		http:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// Enabled indica se o pixel está configurado; desabilitado, Send é no-op
func (c *Client) Enabled() bool {
	return c.pixelID != "" && c.accessToken != ""
}

func (c *Client) Send(ctx context.Context, ev Event) error {
	if !c.Enabled() {
		return nil
	}

	userData := map[string]any{
		"em": []string{hashSHA256(strings.ToLower(strings.TrimSpace(ev.Email)))},
		"ph": []string{hashSHA256(onlyDigits(ev.Phone))},
	}
	if ev.IPAddress != "" {
		userData["client_ip_address"] = ev.IPAddress
	}
	if ev.UserAgent != "" {
		userData["client_user_agent"] = ev.UserAgent
	}
	if ev.FBP != "" {
		userData["fbp"] = ev.FBP
	}
	if ev.FBC != "" {
		userData["fbc"] = ev.FBC
	}

	payload := map[string]any{
		"data": []map[string]any{{
			"event_name":    ev.Name,
			"event_time":    time.Now().Unix(),
			"event_id":      ev.EventID,
			"action_source": "website",
			"user_data":     userData,
			"custom_data": map[string]any{
				"currency": "BRL",
				"value":    money.Reais(ev.AmountCents),
			},
		}},
		"access_token": c.accessToken,
	}
	if c.testEventCode != "" {
		payload["test_event_code"] = c.testEventCode
	}

	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/%s/events", c.baseURL, c.pixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("pixel http %d", res.StatusCode)
	}
	return nil
}

// Sender é o destino de eventos; o Dispatcher aceita qualquer implementação
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// Dispatcher entrega eventos de forma assíncrona com timeout próprio.
// Dispatch nunca bloqueia nem propaga erro para o chamador.
type Dispatcher struct {
	log    *zap.Logger
	sender Sender
}

func NewDispatcher(log *zap.Logger, sender Sender) *Dispatcher {
	return &Dispatcher{log: log, sender: sender}
}

func (d *Dispatcher) Dispatch(ev Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := d.sender.Send(ctx, ev); err != nil {
			d.log.Warn("pixel dispatch",
				zap.String("event", ev.Name),
				zap.String("eventId", ev.EventID),
				zap.Error(err),
			)
		}
	}()
}

func hashSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
