package monitor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"monitor-olx/internal/database"
)

// Chaves de configuração dos intervalos, em minutos (a hora do status é
// "hh:mm")
const (
	SettingSearchInterval  = "search_interval"
	SettingPriceInterval   = "price_interval"
	SettingStatusCheckHour = "status_check_hour"
)

const (
	defaultIntervalMinutes = 20
	minIntervalMinutes     = 5
	maxIntervalMinutes     = 120
	defaultStatusHour      = "00:00"
)

// Scheduler dispara as tarefas do monitor nos intervalos configurados: a
// busca e a verificação de preços em intervalos fixos, a verificação de
// status uma vez por dia no horário configurado.
type Scheduler struct {
	mon *Monitor
	db  *database.DB

	mu         sync.Mutex
	started    bool
	quit       chan struct{}
	reschedule chan struct{}
	wg         sync.WaitGroup
}

// NewScheduler cria o agendador sobre o monitor
func NewScheduler(mon *Monitor, db *database.DB) *Scheduler {
	return &Scheduler{mon: mon, db: db}
}

// interval lê um intervalo das configurações, em minutos, limitado à faixa
// aceita
func (s *Scheduler) interval(key string) time.Duration {
	raw := s.db.GetSetting(key, strconv.Itoa(defaultIntervalMinutes))
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		minutes = defaultIntervalMinutes
	}
	if minutes < minIntervalMinutes {
		minutes = minIntervalMinutes
	}
	if minutes > maxIntervalMinutes {
		minutes = maxIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// nextStatusCheck calcula quanto falta até a próxima verificação diária de
// status. Horário inválido nas configurações cai para a meia-noite.
func (s *Scheduler) nextStatusCheck(now time.Time) time.Duration {
	raw := s.db.GetSetting(SettingStatusCheckHour, defaultStatusHour)
	at, err := time.Parse("15:04", raw)
	if err != nil {
		at, _ = time.Parse("15:04", defaultStatusHour)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// Start inicia os disparos agendados. Chamadas repetidas não criam laços
// duplicados.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.quit = make(chan struct{})
	s.reschedule = make(chan struct{}, 1)

	s.wg.Add(1)
	go s.loop(ctx)

	s.mon.Logs().Add("info", "Agendador iniciado (busca a cada %v, preços a cada %v)",
		s.interval(SettingSearchInterval), s.interval(SettingPriceInterval))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	searchTicker := time.NewTicker(s.interval(SettingSearchInterval))
	priceTicker := time.NewTicker(s.interval(SettingPriceInterval))
	statusTimer := time.NewTimer(s.nextStatusCheck(time.Now()))
	defer searchTicker.Stop()
	defer priceTicker.Stop()
	defer statusTimer.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		case <-searchTicker.C:
			s.mon.StartSearch(ctx)
		case <-priceTicker.C:
			s.mon.StartPriceCheck(ctx)
		case <-statusTimer.C:
			s.mon.StartStatusCheck(ctx)
			statusTimer.Reset(s.nextStatusCheck(time.Now()))
		case <-s.reschedule:
			searchTicker.Reset(s.interval(SettingSearchInterval))
			priceTicker.Reset(s.interval(SettingPriceInterval))
			if !statusTimer.Stop() {
				select {
				case <-statusTimer.C:
				default:
				}
			}
			statusTimer.Reset(s.nextStatusCheck(time.Now()))
			s.mon.Logs().Add("info", "Intervalos reagendados (busca %v, preços %v)",
				s.interval(SettingSearchInterval), s.interval(SettingPriceInterval))
		}
	}
}

// Reschedule aplica os intervalos atuais das configurações sem reiniciar o
// agendador
func (s *Scheduler) Reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	select {
	case s.reschedule <- struct{}{}:
	default:
	}
}

// Stop encerra os disparos agendados; tarefas já em andamento terminam
// normalmente
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
}

// RunSearchNow dispara a busca imediatamente, em segundo plano. O retorno
// vem direto da aquisição do flag: false significa que ela já estava
// rodando, sem janela entre a checagem e o disparo.
func (s *Scheduler) RunSearchNow(ctx context.Context) bool {
	return s.mon.StartSearch(ctx)
}

// RunPriceCheckNow dispara a verificação de preços imediatamente, em
// segundo plano. Mesma garantia do RunSearchNow.
func (s *Scheduler) RunPriceCheckNow(ctx context.Context) bool {
	return s.mon.StartPriceCheck(ctx)
}

// RunStatusCheckNow dispara a verificação de status imediatamente, em
// segundo plano. Mesma garantia do RunSearchNow.
func (s *Scheduler) RunStatusCheckNow(ctx context.Context) bool {
	return s.mon.StartStatusCheck(ctx)
}
