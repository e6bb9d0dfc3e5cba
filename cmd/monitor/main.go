package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"monitor-olx/config"
	"monitor-olx/internal/bot"
	"monitor-olx/internal/database"
	"monitor-olx/internal/delivery"
	"monitor-olx/internal/images"
	"monitor-olx/internal/monitor"
	"monitor-olx/internal/notify"
	"monitor-olx/internal/scraper"

	"github.com/joho/godotenv"
)

func main() {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		log.Println("Arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializar banco de dados
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Erro ao inicializar banco de dados: %v", err)
	}
	defer db.Close()

	// Inicializar bot do Telegram
	telegramBot, err := bot.Init(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Erro ao inicializar bot do Telegram: %v", err)
	}

	// Notificações só saem se houver um chat configurado
	var notifier notify.Notifier
	if cfg.TelegramChatID != 0 {
		notifier = notify.NewTelegramNotifier(telegramBot, cfg.TelegramChatID)
	} else {
		log.Println("TELEGRAM_CHAT_ID não configurado, notificações desativadas")
	}

	olx := scraper.NewOlxScraper()
	mon := monitor.New(db, olx, notifier, cfg.CheapThreshold, cfg.MaxConcurrent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Iniciar os disparos agendados
	sched := monitor.NewScheduler(mon, db)
	sched.Start(ctx)

	// Configurar comandos do bot
	go bot.SetupCommands(telegramBot, db, mon, sched, delivery.NewClient(), images.NewStore(cfg.ImagesDir))

	// Aguardar sinal de interrupção
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Encerrando monitoramento...")
	cancel()
	sched.Stop()
}
