package scraper

import (
	"errors"
	"fmt"
)

// NetworkError indica falha de conexão, DNS, timeout ou erro do servidor.
// É o tipo de falha que vale a pena tentar de novo.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("erro de rede: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RateLimitError indica bloqueio anti-bot ou limite de requisições (401/403)
type RateLimitError struct {
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("limite de requisições atingido (status %d)", e.StatusCode)
}

// ParseError indica conteúdo malformado vindo do site. Não adianta tentar
// de novo; o item é registrado e pulado.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("erro de parsing: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("erro de parsing: %s", e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsRetryable informa se o erro é transitório (rede ou rate-limit)
func IsRetryable(err error) bool {
	var netErr *NetworkError
	var rateErr *RateLimitError
	return errors.As(err, &netErr) || errors.As(err, &rateErr)
}
