package scraper

import (
	"context"
	"log"
	"time"
)

// RetryPolicy define quantas tentativas fazer e o atraso base entre elas.
// O atraso dobra a cada tentativa (backoff exponencial).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy retorna a política padrão: 3 tentativas a partir de 1s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
}

// WithRetry executa fn repetindo em caso de falha transitória (ver
// IsRetryable). Resultados não-transitórios — incluindo o "não encontrado"
// limpo, que fn retorna como valor zero sem erro — saem imediatamente.
// Esgotadas as tentativas, o último erro é propagado ao chamador.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == policy.MaxRetries-1 {
			break
		}

		delay := policy.BaseDelay * (1 << attempt)
		log.Printf("Tentativa %d/%d falhou (%s): %v. Tentando de novo em %v", attempt+1, policy.MaxRetries, op, err, delay)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	log.Printf("Todas as %d tentativas falharam (%s): %v", policy.MaxRetries, op, lastErr)
	return zero, lastErr
}
