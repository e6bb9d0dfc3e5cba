// Package monitor orquestra as tarefas recorrentes do monitoramento:
// descoberta de anúncios novos, verificação de preço dos acompanhados e
// verificação de status dos ativos.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"monitor-olx/internal/database"
	"monitor-olx/internal/models"
	"monitor-olx/internal/notify"
	"monitor-olx/internal/runner"
	"monitor-olx/internal/scraper"
)

// Nomes das tarefas, usados nos flags de execução e nos resultados
const (
	TaskSearch      = "search"
	TaskPriceCheck  = "price_check"
	TaskStatusCheck = "status_check"
)

// Espaçamento entre requisições dentro de um lote
const (
	fetchPace  = time.Second
	statusPace = 500 * time.Millisecond
)

// Result resume a última execução de uma tarefa
type Result struct {
	Success         bool
	TotalNew        int
	PriceChanges    int
	AlertsTriggered int
	Deactivated     int
	FinishedAt      time.Time
	Err             error
}

// Monitor executa as tarefas do monitoramento. Cada tarefa roda no máximo
// uma vez por vez: disparos com a tarefa em andamento são recusados.
type Monitor struct {
	db       *database.DB
	scraper  scraper.Scraper
	notifier notify.Notifier
	logs     *LogBuffer
	retry    scraper.RetryPolicy

	cheapThreshold float64
	maxConcurrent  int64

	searchRunning atomic.Bool
	priceRunning  atomic.Bool
	statusRunning atomic.Bool

	mu      sync.Mutex
	results map[string]Result
}

// New cria o monitor. notifier pode ser nil (sem chat configurado); os
// eventos continuam indo para o log.
func New(db *database.DB, s scraper.Scraper, notifier notify.Notifier, cheapThreshold float64, maxConcurrent int64) *Monitor {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Monitor{
		db:             db,
		scraper:        s,
		notifier:       notifier,
		logs:           NewLogBuffer(),
		retry:          scraper.DefaultRetryPolicy(),
		cheapThreshold: cheapThreshold,
		maxConcurrent:  maxConcurrent,
		results:        make(map[string]Result),
	}
}

// Logs expõe o log de atividade do monitor
func (m *Monitor) Logs() *LogBuffer {
	return m.logs
}

func (m *Monitor) flag(task string) *atomic.Bool {
	switch task {
	case TaskSearch:
		return &m.searchRunning
	case TaskPriceCheck:
		return &m.priceRunning
	default:
		return &m.statusRunning
	}
}

// IsRunning diz se a tarefa está em execução
func (m *Monitor) IsRunning(task string) bool {
	return m.flag(task).Load()
}

// LastResult retorna o resumo da última execução da tarefa (zero se nunca
// rodou)
func (m *Monitor) LastResult(task string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[task]
}

// finalize grava o resultado e libera o flag da tarefa, aconteça o que
// acontecer durante a execução
func (m *Monitor) finalize(task string, res *Result) {
	res.FinishedAt = time.Now()

	m.mu.Lock()
	m.results[task] = *res
	m.mu.Unlock()

	m.flag(task).Store(false)

	// a sessão só é encerrada com todas as tarefas paradas, para não
	// rotacionar a identidade de uma tarefa irmã no meio da execução
	if !m.searchRunning.Load() && !m.priceRunning.Load() && !m.statusRunning.Load() {
		m.scraper.Close()
	}
}

// tryStart adquire o flag da tarefa. Retorna false (com aviso no log) quando
// ela já está em execução.
func (m *Monitor) tryStart(task, busyMsg string) bool {
	if !m.flag(task).CompareAndSwap(false, true) {
		m.logs.Add("warning", busyMsg)
		return false
	}
	return true
}

func (m *Monitor) notifyEvent(ctx context.Context, n notify.Notification) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Send(ctx, n); err != nil {
		m.logs.Add("warning", "Falha ao enviar notificação (%s): %v", n.Tag, err)
	}
}

// thresholdFor retorna o limiar de "barato" da busca, caindo para o global
// quando a busca não define um
func (m *Monitor) thresholdFor(s models.Search) float64 {
	if s.CheapThreshold > 0 {
		return s.CheapThreshold
	}
	return m.cheapThreshold
}

// RunSearch executa a descoberta de anúncios novos em todas as buscas
// ativas e bloqueia até terminar. Retorna false se a descoberta já estava
// em andamento (o disparo é ignorado).
func (m *Monitor) RunSearch(ctx context.Context) bool {
	if !m.tryStart(TaskSearch, "Busca já em andamento, disparo ignorado") {
		return false
	}

	m.runSearch(ctx)
	return true
}

// StartSearch dispara a descoberta em segundo plano. O flag é adquirido
// antes do retorno: true significa que esta chamada é a dona da execução.
func (m *Monitor) StartSearch(ctx context.Context) bool {
	if !m.tryStart(TaskSearch, "Busca já em andamento, disparo ignorado") {
		return false
	}

	go m.runSearch(ctx)
	return true
}

func (m *Monitor) runSearch(ctx context.Context) {
	res := Result{Success: true}
	defer m.finalize(TaskSearch, &res)

	m.logs.Add("info", "Iniciando busca de anúncios novos")

	searches, err := m.db.GetActiveSearches()
	if err != nil {
		res.Success = false
		res.Err = err
		m.logs.Add("error", "Erro ao carregar buscas: %v", err)
		return
	}
	if len(searches) == 0 {
		m.logs.Add("info", "Nenhuma busca ativa configurada")
		return
	}

	for _, s := range searches {
		novos, err := m.discoverSearch(ctx, s)
		if err != nil {
			// uma busca com problema não derruba as demais
			m.logs.Add("error", "Busca '%s' falhou: %v", s.Name, err)
			res.Success = false
			res.Err = err
			continue
		}
		res.TotalNew += novos
	}

	m.logs.Add("info", "Busca concluída: %d anúncio(s) novo(s)", res.TotalNew)
}

// discoverSearch roda uma busca configurada: coleta as URLs de todas as
// queries, filtra e deduplica, baixa só os anúncios inéditos e os grava
func (m *Monitor) discoverSearch(ctx context.Context, s models.Search) (int, error) {
	var urls []string
	seen := make(map[string]bool)

	// busca sem queries varre a categoria inteira da URL base
	queries := s.Queries
	if len(queries) == 0 {
		queries = []string{""}
	}

	for _, q := range queries {
		searchURL := m.scraper.BuildSearchURL(s.BaseURL, q)
		pageURLs, err := scraper.WithRetry(ctx, m.retry, "página de busca", func(ctx context.Context) ([]string, error) {
			return m.scraper.GetAdURLs(ctx, searchURL, s.Categories)
		})
		if err != nil {
			// página indisponível: segue para a próxima query
			m.logs.Add("warning", "Busca '%s': falha na query '%s': %v", s.Name, q, err)
			continue
		}
		for _, u := range pageURLs {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}

	urls = scraper.FilterURLsByKeywords(urls, s.ExcludeKeywords)
	if len(urls) == 0 {
		return 0, nil
	}

	existing, err := m.db.GetExistingURLs(urls)
	if err != nil {
		return 0, err
	}

	var pending []string
	for _, u := range urls {
		if !existing[u] {
			pending = append(pending, u)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	m.logs.Add("info", "Busca '%s': %d URL(s) inédita(s) para baixar", s.Name, len(pending))

	results := runner.Run(ctx, pending, m.maxConcurrent, fetchPace, func(ctx context.Context, url string) (*models.Ad, error) {
		return scraper.WithRetry(ctx, m.retry, "anúncio", func(ctx context.Context) (*models.Ad, error) {
			return m.scraper.GetAdInfo(ctx, url)
		})
	})

	threshold := m.thresholdFor(s)
	novos := 0
	for _, r := range results {
		if r.Err != nil {
			m.logs.Add("warning", "Falha ao baixar %s: %v", r.Key, r.Err)
			continue
		}
		if r.Value == nil {
			// anúncio sumiu entre a listagem e o download
			continue
		}

		ad := r.Value
		ad.SearchID = s.ID
		_, created, err := m.db.CreateAd(ad)
		if err != nil {
			m.logs.Add("error", "Erro ao gravar anúncio %s: %v", ad.URL, err)
			continue
		}
		if !created {
			// outra descoberta chegou primeiro na mesma URL
			continue
		}
		novos++

		if notify.IsCheap(ad.Price, threshold) {
			m.notifyEvent(ctx, notify.Notification{
				Title:    "Anúncio barato encontrado!",
				Body:     fmt.Sprintf("%s\nR$ %s — %s", ad.Title, ad.Price, ad.Location()),
				URL:      ad.URL,
				Tag:      notify.CheapTag(ad.ID),
				ImageURL: ad.FirstImage(),
			})
		}
	}
	return novos, nil
}

// RunPriceCheck executa a verificação de preço dos anúncios acompanhados e
// bloqueia até terminar. Retorna false se a verificação já estava em
// andamento.
func (m *Monitor) RunPriceCheck(ctx context.Context) bool {
	if !m.tryStart(TaskPriceCheck, "Verificação de preços já em andamento, disparo ignorado") {
		return false
	}

	m.runPriceCheck(ctx)
	return true
}

// StartPriceCheck dispara a verificação de preços em segundo plano, com a
// mesma garantia de posse do StartSearch
func (m *Monitor) StartPriceCheck(ctx context.Context) bool {
	if !m.tryStart(TaskPriceCheck, "Verificação de preços já em andamento, disparo ignorado") {
		return false
	}

	go m.runPriceCheck(ctx)
	return true
}

func (m *Monitor) runPriceCheck(ctx context.Context) {
	res := Result{Success: true}
	defer m.finalize(TaskPriceCheck, &res)

	m.logs.Add("info", "Iniciando verificação de preços")

	ads, err := m.db.GetWatchingAds()
	if err != nil {
		res.Success = false
		res.Err = err
		m.logs.Add("error", "Erro ao carregar acompanhados: %v", err)
		return
	}
	if len(ads) == 0 {
		m.logs.Add("info", "Nenhum anúncio acompanhado")
		return
	}

	byID := make(map[int64]models.Ad, len(ads))
	ids := make([]int64, 0, len(ads))
	for _, a := range ads {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	results := runner.Run(ctx, ids, m.maxConcurrent, fetchPace, func(ctx context.Context, id int64) (string, error) {
		return scraper.WithRetry(ctx, m.retry, "preço", func(ctx context.Context) (string, error) {
			return m.scraper.GetCurrentPrice(ctx, byID[id].URL)
		})
	})

	current := make(map[int64]string, len(results))
	for _, r := range results {
		ad := byID[r.Key]
		if r.Err != nil {
			m.logs.Add("warning", "Falha ao verificar preço de '%s': %v", ad.Title, r.Err)
			continue
		}
		if r.Value == "" {
			// anúncio saiu do ar; a verificação de status cuida disso
			continue
		}

		newPrice := r.Value
		current[r.Key] = newPrice

		// referência: última amostra registrada, ou o preço salvo do anúncio
		reference := ad.Price
		if last, err := m.db.GetLastPriceCheck(ad.ID); err == nil && last != nil {
			reference = last.Price
		}

		// toda verificação vira amostra, mesmo sem mudança
		if err := m.db.AddPriceHistory(ad.ID, newPrice); err != nil {
			m.logs.Add("error", "Erro ao registrar histórico de '%s': %v", ad.Title, err)
		}

		if newPrice != reference {
			res.PriceChanges++
			if err := m.db.UpdateAdPrice(ad.ID, newPrice); err != nil {
				m.logs.Add("error", "Erro ao atualizar preço de '%s': %v", ad.Title, err)
			}
			m.logs.Add("info", "Preço de '%s' mudou: R$ %s → R$ %s", ad.Title, reference, newPrice)

			if notify.IsPriceDrop(reference, newPrice) {
				m.notifyEvent(ctx, notify.Notification{
					Title:    "Queda de preço!",
					Body:     fmt.Sprintf("%s\nDe R$ %s por R$ %s", ad.Title, reference, newPrice),
					URL:      ad.URL,
					Tag:      notify.PriceDropTag(ad.ID),
					ImageURL: ad.FirstImage(),
				})
			}
		}
	}

	res.AlertsTriggered = m.evaluateAlerts(ctx, current)
	m.logs.Add("info", "Verificação de preços concluída: %d mudança(s), %d alerta(s)", res.PriceChanges, res.AlertsTriggered)
}

// evaluateAlerts avalia os alertas de preço ativos contra os preços recém
// verificados (ou o preço salvo, para anúncios fora do lote). Alertas já
// disparados ficam quietos até serem rearmados.
func (m *Monitor) evaluateAlerts(ctx context.Context, current map[int64]string) int {
	alerts, err := m.db.GetActivePriceAlerts()
	if err != nil {
		m.logs.Add("error", "Erro ao carregar alertas: %v", err)
		return 0
	}

	triggered := 0
	for _, alert := range alerts {
		if !alert.TriggeredAt.IsZero() {
			continue
		}

		price, ok := current[alert.AdID]
		if !ok {
			price = alert.Price
		}

		if !notify.ShouldTriggerAlert(price, alert.TargetPrice, alert.NotifyBelow) {
			continue
		}

		if err := m.db.MarkAlertTriggered(alert.AdID); err != nil {
			m.logs.Add("error", "Erro ao marcar alerta do anúncio %d: %v", alert.AdID, err)
			continue
		}
		triggered++

		direction := "abaixo de"
		if !alert.NotifyBelow {
			direction = "acima de"
		}
		imageURL := ""
		if len(alert.Images) > 0 {
			imageURL = alert.Images[0]
		}
		m.notifyEvent(ctx, notify.Notification{
			Title:    "Alerta de preço atingido!",
			Body:     fmt.Sprintf("%s\nR$ %s (%s R$ %.2f)", alert.Title, price, direction, alert.TargetPrice),
			URL:      alert.URL,
			Tag:      notify.AlertTag(alert.AdID),
			ImageURL: imageURL,
		})
	}
	return triggered
}

// RunStatusCheck executa a verificação de status dos anúncios ativos e
// bloqueia até terminar. Retorna false se a verificação já estava em
// andamento.
func (m *Monitor) RunStatusCheck(ctx context.Context) bool {
	if !m.tryStart(TaskStatusCheck, "Verificação de status já em andamento, disparo ignorado") {
		return false
	}

	m.runStatusCheck(ctx)
	return true
}

// StartStatusCheck dispara a verificação de status em segundo plano, com a
// mesma garantia de posse do StartSearch
func (m *Monitor) StartStatusCheck(ctx context.Context) bool {
	if !m.tryStart(TaskStatusCheck, "Verificação de status já em andamento, disparo ignorado") {
		return false
	}

	go m.runStatusCheck(ctx)
	return true
}

func (m *Monitor) runStatusCheck(ctx context.Context) {
	res := Result{Success: true}
	defer m.finalize(TaskStatusCheck, &res)

	m.logs.Add("info", "Iniciando verificação de status")

	refs, err := m.db.GetAdsToCheck()
	if err != nil {
		res.Success = false
		res.Err = err
		m.logs.Add("error", "Erro ao carregar anúncios ativos: %v", err)
		return
	}
	if len(refs) == 0 {
		m.logs.Add("info", "Nenhum anúncio ativo para verificar")
		return
	}

	results := runner.Run(ctx, refs, m.maxConcurrent, statusPace, func(ctx context.Context, ref database.AdRef) (string, error) {
		return scraper.WithRetry(ctx, m.retry, "status", func(ctx context.Context) (string, error) {
			return m.scraper.CheckAdStatus(ctx, ref.URL)
		})
	})

	for _, r := range results {
		if r.Err != nil {
			// resposta ambígua ou bloqueio: o status salvo não muda
			m.logs.Add("warning", "Status de %s inconclusivo: %v", r.Key.URL, r.Err)
			continue
		}
		if r.Value != models.StatusInactive {
			continue
		}

		if err := m.db.UpdateAdStatus(r.Key.ID, models.StatusInactive); err != nil {
			m.logs.Add("error", "Erro ao desativar anúncio %d: %v", r.Key.ID, err)
			continue
		}
		res.Deactivated++
	}

	m.logs.Add("info", "Verificação de status concluída: %d desativado(s)", res.Deactivated)
}
