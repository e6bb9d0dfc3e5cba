package monitor

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const maxLogEntries = 100

// LogEntry é uma linha do log de atividade exibido no bot
type LogEntry struct {
	Timestamp time.Time
	Level     string // "info", "warning" ou "error"
	Message   string
}

// LogBuffer guarda as últimas linhas de atividade em memória, da mais
// recente para a mais antiga. Tudo que entra aqui também vai para o log
// padrão do processo.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogBuffer cria um buffer vazio
func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

// Add registra uma linha formatada no buffer e no log do processo
func (b *LogBuffer) Add(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append([]LogEntry{{Timestamp: time.Now(), Level: level, Message: msg}}, b.entries...)
	if len(b.entries) > maxLogEntries {
		b.entries = b.entries[:maxLogEntries]
	}
}

// Entries retorna uma cópia das linhas, da mais recente para a mais antiga
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Clear descarta todas as linhas
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}
