package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("valor inválido")

// ParseBRL converte um valor decimal em reais ("150,50" ou "150.50") para centavos.
// Aceita vírgula ou ponto como separador decimal.
func ParseBRL(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return FromReais(v), nil
}

// FromReais converte reais (float) em centavos, arredondando para o centavo mais próximo
func FromReais(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Reais converte centavos para reais (float), usado em payloads de gateway/pixel
func Reais(cents int64) float64 {
	return float64(cents) / 100
}

// FormatBRL formata centavos como valor decimal com vírgula, ex: 15050 -> "150,50"
func FormatBRL(cents int64) string {
	neg := ""
	if cents < 0 {
		neg = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d", neg, cents/100, cents%100)
}
