package http

import (
	"net/http"

	"github.com/redis/go-redis/v9"
)

const sessionCookie = "session_id"

// Sessions resolve a conta autenticada de uma requisição. A criação de sessão
// (login) é de outro serviço; aqui a sessão é somente lida.
type Sessions interface {
	AccountID(r *http.Request) (string, bool)
}

// RedisSessions lê sessões do redis: cookie session_id -> chave session:<id>
// com o id da conta como valor
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func (s *RedisSessions) AccountID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	accountID, err := s.rdb.Get(r.Context(), "session:"+c.Value).Result()
	if err != nil || accountID == "" {
		return "", false
	}
	return accountID, true
}
