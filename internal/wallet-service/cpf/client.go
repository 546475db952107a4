// Package cpf consulta o nome do titular de um CPF em uma API externa.
// Enriquecimento best-effort: qualquer falha resolve para o placeholder,
// nunca para um erro.
package cpf

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// PlaceholderName é usado quando a consulta falha ou não retorna nome
const PlaceholderName = "Nome não encontrado"

type Client struct {
	baseURL string
	host    string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(log *zap.Logger, baseURL, host, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		host:    host,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

// ResolveName retorna o nome do titular do CPF ou o placeholder.
// Timeout de 5s; nunca retorna erro para não bloquear o fluxo de saque.
func (c *Client) ResolveName(ctx context.Context, cpf string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?cpf="+cpf, nil)
	if err != nil {
		return PlaceholderName
	}
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("x-rapidapi-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("consulta cpf", zap.Error(err))
		return PlaceholderName
	}
	defer res.Body.Close()

	var out struct {
		Code int `json:"code"`
		Data struct {
			Nome string `json:"nome"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		c.log.Warn("resposta cpf malformada", zap.Error(err))
		return PlaceholderName
	}
	if out.Code != 200 || out.Data.Nome == "" {
		return PlaceholderName
	}
	return out.Data.Nome
}
