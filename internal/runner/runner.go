// Package runner executa lotes de operações independentes com limite global
// de concorrência e espaçamento fixo entre requisições. É o primitivo de
// fan-out usado pelas três tarefas do monitoramento.
package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Result associa o resultado de um item à chave que o originou. As tarefas
// reconciliam por identidade (URL ou id), não por posição.
type Result[K comparable, T any] struct {
	Key   K
	Value T
	Err   error
}

// Run executa fn para cada chave, com no máximo limit execuções simultâneas.
// O intervalo pace é aguardado após cada item ainda segurando a vaga, para
// espaçar as requisições ao site; liberada a vaga, o próximo item da fila
// começa imediatamente. A falha de um item nunca aborta o lote: cada
// resultado carrega seu próprio erro.
func Run[K comparable, T any](ctx context.Context, keys []K, limit int64, pace time.Duration, fn func(context.Context, K) (T, error)) []Result[K, T] {
	if limit <= 0 {
		limit = 1
	}

	sem := semaphore.NewWeighted(limit)
	results := make([]Result[K, T], len(keys))
	var wg sync.WaitGroup

	for i, key := range keys {
		if err := sem.Acquire(ctx, 1); err != nil {
			// contexto cancelado: os itens restantes falham sem executar
			results[i] = Result[K, T]{Key: key, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, key K) {
			defer wg.Done()
			defer sem.Release(1)

			v, err := fn(ctx, key)
			results[i] = Result[K, T]{Key: key, Value: v, Err: err}

			if pace > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(pace):
				}
			}
		}(i, key)
	}

	wg.Wait()
	return results
}
