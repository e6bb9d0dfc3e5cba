package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitor-olx/internal/database"
)

func newTestScheduler(t *testing.T) (*Scheduler, *database.DB) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mon := New(db, newFakeScraper(), nil, 150, 5)
	return NewScheduler(mon, db), db
}

func TestIntervalDefaultsAndClamping(t *testing.T) {
	sched, db := newTestScheduler(t)

	// sem configuração: padrão
	assert.Equal(t, 20*time.Minute, sched.interval(SettingSearchInterval))

	require.NoError(t, db.SetSetting(SettingSearchInterval, "45"))
	assert.Equal(t, 45*time.Minute, sched.interval(SettingSearchInterval))

	// fora da faixa: limitado
	require.NoError(t, db.SetSetting(SettingSearchInterval, "2"))
	assert.Equal(t, 5*time.Minute, sched.interval(SettingSearchInterval))

	require.NoError(t, db.SetSetting(SettingSearchInterval, "500"))
	assert.Equal(t, 120*time.Minute, sched.interval(SettingSearchInterval))

	// valor inválido: padrão
	require.NoError(t, db.SetSetting(SettingSearchInterval, "abc"))
	assert.Equal(t, 20*time.Minute, sched.interval(SettingSearchInterval))
}

func TestNextStatusCheck(t *testing.T) {
	sched, db := newTestScheduler(t)
	require.NoError(t, db.SetSetting(SettingStatusCheckHour, "03:30"))

	now := time.Date(2024, 5, 10, 1, 0, 0, 0, time.Local)
	assert.Equal(t, 2*time.Hour+30*time.Minute, sched.nextStatusCheck(now))

	// horário já passou hoje: agenda para amanhã
	now = time.Date(2024, 5, 10, 4, 0, 0, 0, time.Local)
	assert.Equal(t, 23*time.Hour+30*time.Minute, sched.nextStatusCheck(now))

	// horário inválido cai para meia-noite
	require.NoError(t, db.SetSetting(SettingStatusCheckHour, "banana"))
	now = time.Date(2024, 5, 10, 23, 0, 0, 0, time.Local)
	assert.Equal(t, time.Hour, sched.nextStatusCheck(now))
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	sched, _ := newTestScheduler(t)

	ctx := context.Background()
	sched.Start(ctx)
	sched.Start(ctx) // segunda chamada não cria outro laço

	sched.Reschedule()

	sched.Stop()
	sched.Stop() // parar de novo não bloqueia nem entra em pânico
}

func TestRunNowRespectsRunningTask(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	createSearch(t, db)

	fake := newFakeScraper()
	fake.block = make(chan struct{})
	mon := New(db, fake, nil, 150, 5)
	sched := NewScheduler(mon, db)

	ctx := context.Background()
	require.True(t, sched.RunSearchNow(ctx))

	// o flag já foi adquirido quando RunSearchNow retorna: a recusa do
	// segundo disparo é imediata, sem depender do agendamento da goroutine
	assert.True(t, mon.IsRunning(TaskSearch))
	assert.False(t, sched.RunSearchNow(ctx))

	close(fake.block)
	require.Eventually(t, func() bool {
		return !mon.IsRunning(TaskSearch)
	}, time.Second, 5*time.Millisecond)
}
