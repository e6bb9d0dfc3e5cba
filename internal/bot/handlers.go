package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"monitor-olx/internal/database"
	"monitor-olx/internal/delivery"
	"monitor-olx/internal/images"
	"monitor-olx/internal/models"
	"monitor-olx/internal/monitor"
	"monitor-olx/internal/validators"
)

// escapeHTML escapa caracteres especiais do HTML
func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// sendHTML envia uma mensagem formatada, caindo para texto puro se a
// formatação for rejeitada
func sendHTML(bot *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	if _, err := bot.Send(msg); err != nil {
		log.Printf("Erro ao enviar mensagem com HTML: %v", err)
		msg.ParseMode = ""
		bot.Send(msg)
	}
}

func sendPlain(bot *tgbotapi.BotAPI, chatID int64, text string) {
	bot.Send(tgbotapi.NewMessage(chatID, text))
}

// SetupCommands configura os handlers de comandos do bot
func SetupCommands(bot *tgbotapi.BotAPI, db *database.DB, mon *monitor.Monitor, sched *monitor.Scheduler, deliv *delivery.Client, imgs *images.Store) {
	authorizedChatID, hasAuth := GetAuthorizedChatID()
	ctx := context.Background()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		text := update.Message.Text
		if text == "" {
			continue
		}

		parts := strings.Fields(text)
		if len(parts) == 0 {
			continue
		}

		command := strings.ToLower(parts[0])
		// Remover @botname se presente
		if idx := strings.Index(command, "@"); idx > 0 {
			command = command[:idx]
		}

		// Comandos públicos (não precisam de autorização)
		isPublicCommand := command == "/start" || command == "/help"

		if !isPublicCommand && hasAuth && update.Message.Chat.ID != authorizedChatID {
			sendPlain(bot, update.Message.Chat.ID, "Você não está autorizado a usar este bot.")
			continue
		}

		switch command {
		case "/start", "/help":
			handleHelp(bot, update.Message.Chat.ID)
		case "/buscas":
			handleListSearches(bot, update.Message.Chat.ID, db)
		case "/novabusca":
			handleNewSearch(bot, update.Message, db)
		case "/removerbusca":
			handleRemoveSearch(bot, update.Message, db)
		case "/togglebusca":
			handleToggleSearch(bot, update.Message, db)
		case "/anuncios":
			handleListAds(bot, update.Message, db)
		case "/inativos":
			handleListInactive(bot, update.Message.Chat.ID, db)
		case "/acompanhar":
			handleToggleWatching(bot, update.Message, db, imgs)
		case "/acompanhados":
			handleListWatching(bot, update.Message.Chat.ID, db)
		case "/alerta":
			handleCreateAlert(bot, update.Message, db)
		case "/removeralerta":
			handleRemoveAlert(bot, update.Message, db)
		case "/historico":
			handlePriceHistory(bot, update.Message, db)
		case "/frete":
			handleDeliveryQuote(bot, update.Message, db, deliv)
		case "/buscar":
			handleRunNow(bot, update.Message.Chat.ID, "Busca", sched.RunSearchNow(ctx))
		case "/precos":
			handleRunNow(bot, update.Message.Chat.ID, "Verificação de preços", sched.RunPriceCheckNow(ctx))
		case "/checarstatus":
			handleRunNow(bot, update.Message.Chat.ID, "Verificação de status", sched.RunStatusCheckNow(ctx))
		case "/status":
			handleStatus(bot, update.Message.Chat.ID, mon)
		case "/logs":
			handleLogs(bot, update.Message.Chat.ID, mon)
		case "/limparlogs":
			mon.Logs().Clear()
			sendPlain(bot, update.Message.Chat.ID, "✅ Logs limpos.")
		case "/intervalo":
			handleSetInterval(bot, update.Message, db, sched)
		default:
			sendPlain(bot, update.Message.Chat.ID, "Comando não reconhecido. Use /help para ver os comandos disponíveis.")
		}
	}
}

func handleHelp(bot *tgbotapi.BotAPI, chatID int64) {
	helpText := `🤖 <b>Monitor de Anúncios OLX</b>

<b>Buscas:</b>
/buscas - Listar buscas configuradas
/novabusca &lt;nome&gt; | &lt;url base&gt; | &lt;query1, query2&gt; [| palavras excluídas] - Criar busca
Exemplo: /novabusca Consoles | https://www.olx.com.br/hobbies-e-colecoes | nintendo switch, ps5 | lite, defeito
/removerbusca &lt;id&gt; - Remover busca
/togglebusca &lt;id&gt; - Ativar/pausar busca

<b>Anúncios:</b>
/anuncios [novos|texto] - Listar anúncios encontrados
/inativos - Listar anúncios desativados
/acompanhar &lt;id&gt; - Acompanhar/parar de acompanhar um anúncio
/acompanhados - Listar anúncios acompanhados

<b>Preços:</b>
/alerta &lt;id&gt; &lt;preço&gt; - Criar alerta de preço (ex: /alerta 12 1.500,00)
/removeralerta &lt;id&gt; - Remover alerta
/historico &lt;id&gt; - Histórico de preços do anúncio
/frete &lt;id&gt; [cep] - Cotar frete do anúncio (o CEP fica salvo)

<b>Monitoramento:</b>
/buscar - Buscar anúncios novos agora
/precos - Verificar preços agora
/checarstatus - Verificar status agora
/status - Estado das tarefas
/intervalo &lt;busca|precos&gt; &lt;minutos&gt; - Ajustar intervalo (5 a 120)
/logs - Últimas atividades
/limparlogs - Limpar o log de atividades

/help - Mostrar esta mensagem de ajuda
`
	sendHTML(bot, chatID, helpText)
}

func handleListSearches(bot *tgbotapi.BotAPI, chatID int64, db *database.DB) {
	searches, err := db.GetAllSearches()
	if err != nil {
		sendPlain(bot, chatID, fmt.Sprintf("❌ Erro ao listar buscas: %v", err))
		return
	}
	if len(searches) == 0 {
		sendPlain(bot, chatID, "📋 Nenhuma busca configurada. Use /novabusca para criar uma.")
		return
	}

	var response strings.Builder
	response.WriteString("📋 <b>Buscas configuradas:</b>\n\n")
	for _, s := range searches {
		state := "✅ ativa"
		if !s.Active {
			state = "⏸ pausada"
		}
		response.WriteString(fmt.Sprintf("🆔 <b>ID: %d</b> — %s (%s)\n", s.ID, escapeHTML(s.Name), state))
		response.WriteString(fmt.Sprintf("🔎 Queries: %s\n", escapeHTML(strings.Join(s.Queries, ", "))))
		if len(s.ExcludeKeywords) > 0 {
			response.WriteString(fmt.Sprintf("🚫 Excluir: %s\n", escapeHTML(strings.Join(s.ExcludeKeywords, ", "))))
		}
		if s.CheapThreshold > 0 {
			response.WriteString(fmt.Sprintf("💰 Limiar de barato: R$ %.2f\n", s.CheapThreshold))
		}
		response.WriteString("\n")
	}
	sendHTML(bot, chatID, response.String())
}

func handleNewSearch(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB) {
	args := strings.TrimSpace(strings.TrimPrefix(message.Text, "/novabusca"))
	segments := strings.Split(args, "|")
	if len(segments) < 3 {
		sendPlain(bot, message.Chat.ID, "❌ Formato incorreto.\n\nUso: /novabusca <nome> | <url base> | <query1, query2> [| palavras excluídas]\n\nExemplo: /novabusca Consoles | https://www.olx.com.br/hobbies-e-colecoes | nintendo switch, ps5 | lite")
		return
	}

	name, err := validators.ValidateSearchName(segments[0])
	if err != nil {
		sendPlain(bot, message.Chat.ID, "❌ "+err.Error())
		return
	}

	baseURL := strings.TrimSpace(segments[1])
	if err := validators.ValidateOlxURL(baseURL); err != nil {
		sendPlain(bot, message.Chat.ID, "❌ "+err.Error())
		return
	}

	queries := splitList(segments[2])
	if len(queries) == 0 {
		sendPlain(bot, message.Chat.ID, "❌ Informe ao menos uma query de busca.")
		return
	}

	var exclude []string
	if len(segments) > 3 {
		exclude = splitList(segments[3])
	}

	search := &models.Search{
		Name:            name,
		BaseURL:         baseURL,
		Queries:         queries,
		ExcludeKeywords: exclude,
		Active:          true,
	}
	id, err := db.CreateSearch(search)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			sendPlain(bot, message.Chat.ID, "❌ Já existe uma busca com esse nome.")
		} else {
			sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao criar busca: %v", err))
		}
		return
	}

	sendPlain(bot, message.Chat.ID, fmt.Sprintf("✅ Busca criada! (ID: %d)\nEla entra na próxima rodada, ou use /buscar para rodar agora.", id))
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if clean := validators.SanitizeText(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func handleRemoveSearch(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB) {
	id, ok := parseIDArg(bot, message, "/removerbusca <id>")
	if !ok {
		return
	}

	search, err := db.GetSearchByID(id)
	if err != nil || search == nil {
		sendPlain(bot, message.Chat.ID, "❌ Busca não encontrada.")
		return
	}

	if err := db.DeleteSearch(id); err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao remover busca: %v", err))
		return
	}
	sendPlain(bot, message.Chat.ID, fmt.Sprintf("✅ Busca removida: %s", search.Name))
}

func handleToggleSearch(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB) {
	id, ok := parseIDArg(bot, message, "/togglebusca <id>")
	if !ok {
		return
	}

	search, err := db.GetSearchByID(id)
	if err != nil || search == nil {
		sendPlain(bot, message.Chat.ID, "❌ Busca não encontrada.")
		return
	}

	if err := db.ToggleSearchActive(id); err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao alterar busca: %v", err))
		return
	}

	if search.Active {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("⏸ Busca pausada: %s", search.Name))
	} else {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("✅ Busca reativada: %s", search.Name))
	}
}

func handleListAds(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB) {
	parts := strings.Fields(message.Text)

	filter := database.AdFilter{AdStatus: models.StatusActive, Limit: 10}
	if len(parts) > 1 {
		if strings.EqualFold(parts[1], "novos") {
			filter.Status = "new"
		} else {
			filter.Text = validators.SanitizeText(strings.Join(parts[1:], " "))
		}
	}

	ads, err := db.GetAds(filter)
	if err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao listar anúncios: %v", err))
		return
	}
	if len(ads) == 0 {
		sendPlain(bot, message.Chat.ID, "📋 Nenhum anúncio encontrado.")
		return
	}

	total, _ := db.CountAds(filter)

	var response strings.Builder
	response.WriteString(fmt.Sprintf("📋 <b>Anúncios (%d no total):</b>\n\n", total))
	for _, a := range ads {
		response.WriteString(formatAd(a))
		if err := db.MarkAdSeen(a.ID); err != nil {
			log.Printf("Erro ao marcar anúncio %d como visto: %v", a.ID, err)
		}
	}
	sendHTML(bot, message.Chat.ID, response.String())
}

func formatAd(a models.Ad) string {
	var b strings.Builder
	marker := ""
	if !a.Seen {
		marker = " 🆕"
	}
	if a.Watching {
		marker += " 👁"
	}
	b.WriteString(fmt.Sprintf("🆔 <b>ID: %d</b>%s\n", a.ID, marker))
	b.WriteString(fmt.Sprintf("📦 %s\n", escapeHTML(a.Title)))
	b.WriteString(fmt.Sprintf("💰 <b>R$ %s</b>\n", escapeHTML(a.Price)))
	if loc := a.Location(); loc != "" {
		b.WriteString(fmt.Sprintf("📍 %s\n", escapeHTML(loc)))
	}
	b.WriteString(fmt.Sprintf("🔗 %s\n\n", a.URL))
	return b.String()
}

func handleListInactive(bot *tgbotapi.BotAPI, chatID int64, db *database.DB) {
	ads, err := db.GetInactiveAds()
	if err != nil {
		sendPlain(bot, chatID, fmt.Sprintf("❌ Erro ao listar anúncios: %v", err))
		return
	}
	if len(ads) == 0 {
		sendPlain(bot, chatID, "📋 Nenhum anúncio desativado.")
		return
	}

	var response strings.Builder
	response.WriteString("📋 <b>Anúncios desativados:</b>\n\n")
	for i, a := range ads {
		if i >= 10 {
			response.WriteString(fmt.Sprintf("… e mais %d.\n", len(ads)-i))
			break
		}
		response.WriteString(fmt.Sprintf("🆔 <b>ID: %d</b> — %s (R$ %s)\n", a.ID, escapeHTML(a.Title), escapeHTML(a.Price)))
		if !a.DeactivatedAt.IsZero() {
			response.WriteString(fmt.Sprintf("🕐 Desativado em: %s\n", a.DeactivatedAt.Format("02/01/2006 15:04")))
		}
		response.WriteString("\n")
	}
	sendHTML(bot, chatID, response.String())
}

func handleToggleWatching(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB, imgs *images.Store) {
	id, ok := parseIDArg(bot, message, "/acompanhar <id>")
	if !ok {
		return
	}

	ad, err := db.GetAdByID(id)
	if err != nil || ad == nil {
		sendPlain(bot, message.Chat.ID, "❌ Anúncio não encontrado.")
		return
	}

	watching, err := db.ToggleAdWatching(id)
	if err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao alterar acompanhamento: %v", err))
		return
	}

	if watching {
		// guardar as fotos enquanto o anúncio ainda está no ar
		go func() {
			if err := imgs.Download(ad.ID, ad.Images); err != nil {
				log.Printf("Erro ao baixar imagens do anúncio %d: %v", ad.ID, err)
			}
		}()
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("👁 Acompanhando: %s\nO preço será verificado a cada rodada.", ad.Title))
	} else {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("✅ Parou de acompanhar: %s", ad.Title))
	}
}

func handleListWatching(bot *tgbotapi.BotAPI, chatID int64, db *database.DB) {
	ads, err := db.GetWatchingAds()
	if err != nil {
		sendPlain(bot, chatID, fmt.Sprintf("❌ Erro ao listar acompanhados: %v", err))
		return
	}
	if len(ads) == 0 {
		sendPlain(bot, chatID, "📋 Nenhum anúncio acompanhado. Use /acompanhar <id>.")
		return
	}

	var response strings.Builder
	response.WriteString("👁 <b>Anúncios acompanhados:</b>\n\n")
	for _, a := range ads {
		response.WriteString(formatAd(a))
	}
	sendHTML(bot, chatID, response.String())
}

func handleCreateAlert(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB) {
	parts := strings.Fields(message.Text)
	if len(parts) < 3 {
		sendPlain(bot, message.Chat.ID, "❌ Formato incorreto.\n\nUso: /alerta <id> <preço>\n\nExemplo: /alerta 12 1.500,00")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		sendPlain(bot, message.Chat.ID, "❌ ID inválido.")
		return
	}

	target, err := validators.ValidatePriceAlert(parts[2])
	if err != nil {
		sendPlain(bot, message.Chat.ID, "❌ "+err.Error())
		return
	}

	ad, err := db.GetAdByID(id)
	if err != nil || ad == nil {
		sendPlain(bot, message.Chat.ID, "❌ Anúncio não encontrado.")
		return
	}

	if err := db.CreatePriceAlert(id, target, true); err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao criar alerta: %v", err))
		return
	}
	sendPlain(bot, message.Chat.ID, fmt.Sprintf("🔔 Alerta criado: %s\nVocê será avisado quando o preço ficar abaixo de R$ %.2f.", ad.Title, target))
}

func handleRemoveAlert(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB) {
	id, ok := parseIDArg(bot, message, "/removeralerta <id>")
	if !ok {
		return
	}

	alert, err := db.GetPriceAlert(id)
	if err != nil || alert == nil {
		sendPlain(bot, message.Chat.ID, "❌ Este anúncio não tem alerta.")
		return
	}

	if err := db.DeletePriceAlert(id); err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao remover alerta: %v", err))
		return
	}
	sendPlain(bot, message.Chat.ID, "✅ Alerta removido.")
}

func handlePriceHistory(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB) {
	id, ok := parseIDArg(bot, message, "/historico <id>")
	if !ok {
		return
	}

	ad, err := db.GetAdByID(id)
	if err != nil || ad == nil {
		sendPlain(bot, message.Chat.ID, "❌ Anúncio não encontrado.")
		return
	}

	history, err := db.GetPriceHistory(id)
	if err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao buscar histórico: %v", err))
		return
	}
	if len(history) == 0 {
		sendPlain(bot, message.Chat.ID, "📋 Nenhuma verificação de preço registrada ainda.")
		return
	}

	var response strings.Builder
	response.WriteString(fmt.Sprintf("📊 <b>Histórico de preços: %s</b>\n\n", escapeHTML(ad.Title)))

	start := 0
	if len(history) > 15 {
		start = len(history) - 15
		response.WriteString(fmt.Sprintf("(últimas 15 de %d verificações)\n\n", len(history)))
	}
	for _, h := range history[start:] {
		response.WriteString(fmt.Sprintf("🕐 %s — R$ %s\n", h.CheckedAt.Format("02/01 15:04"), escapeHTML(h.Price)))
	}

	if len(history) >= 2 {
		_, label := models.PriceVariation(history)
		response.WriteString(fmt.Sprintf("\n📈 Variação desde a primeira verificação: %s\n", label))
	}
	sendHTML(bot, message.Chat.ID, response.String())
}

func handleDeliveryQuote(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB, deliv *delivery.Client) {
	parts := strings.Fields(message.Text)
	if len(parts) < 2 {
		sendPlain(bot, message.Chat.ID, "❌ Formato incorreto.\n\nUso: /frete <id> [cep]\n\nExemplo: /frete 12 01310-100\nO CEP informado fica salvo para as próximas cotações.")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		sendPlain(bot, message.Chat.ID, "❌ ID inválido.")
		return
	}

	// CEP informado fica salvo como destino padrão
	var cep string
	if len(parts) >= 3 {
		cep = validators.SanitizeCEP(parts[2])
		if err := validators.ValidateZipcode(cep); err != nil {
			sendPlain(bot, message.Chat.ID, "❌ "+err.Error())
			return
		}
		if err := db.SetSetting("delivery_zipcode", cep); err != nil {
			log.Printf("Erro ao salvar CEP padrão: %v", err)
		}
	} else {
		cep = db.GetSetting("delivery_zipcode", "")
		if cep == "" {
			sendPlain(bot, message.Chat.ID, "❌ Nenhum CEP salvo. Use /frete <id> <cep> na primeira cotação.")
			return
		}
	}

	ad, err := db.GetAdByID(id)
	if err != nil || ad == nil {
		sendPlain(bot, message.Chat.ID, "❌ Anúncio não encontrado.")
		return
	}

	sendPlain(bot, message.Chat.ID, "⏳ Cotando frete...")

	quote, err := deliv.GetQuote(context.Background(), ad.URL, cep)
	if err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao cotar frete: %v", err))
		return
	}
	if len(quote.Options) == 0 {
		sendPlain(bot, message.Chat.ID, "📦 Este anúncio não tem entrega disponível para o CEP informado.")
		return
	}

	var response strings.Builder
	response.WriteString(fmt.Sprintf("📦 <b>Frete: %s</b>\n\n", escapeHTML(ad.Title)))
	for _, opt := range quote.Options {
		response.WriteString(fmt.Sprintf("🚚 %s — R$ %.2f (%d dia(s) útil(eis))\n", escapeHTML(opt.Name), opt.Price, opt.Days))
	}
	if best := quote.Cheapest(); best != nil {
		response.WriteString(fmt.Sprintf("\n💰 Mais barato: %s por R$ %.2f\n", escapeHTML(best.Name), best.Price))
	}
	sendHTML(bot, message.Chat.ID, response.String())
}

func handleRunNow(bot *tgbotapi.BotAPI, chatID int64, task string, started bool) {
	if started {
		sendPlain(bot, chatID, fmt.Sprintf("⏳ %s iniciada. Use /status para acompanhar.", task))
	} else {
		sendPlain(bot, chatID, fmt.Sprintf("⚠️ %s já está em andamento.", task))
	}
}

func handleStatus(bot *tgbotapi.BotAPI, chatID int64, mon *monitor.Monitor) {
	var response strings.Builder
	response.WriteString("📊 <b>Estado do monitoramento:</b>\n\n")

	tasks := []struct {
		name string
		task string
	}{
		{"Busca de anúncios", monitor.TaskSearch},
		{"Verificação de preços", monitor.TaskPriceCheck},
		{"Verificação de status", monitor.TaskStatusCheck},
	}

	for _, t := range tasks {
		response.WriteString(fmt.Sprintf("<b>%s</b>\n", t.name))
		if mon.IsRunning(t.task) {
			response.WriteString("⏳ Em andamento\n\n")
			continue
		}

		res := mon.LastResult(t.task)
		if res.FinishedAt.IsZero() {
			response.WriteString("💤 Nunca executada\n\n")
			continue
		}

		if res.Success {
			response.WriteString("✅ Última execução OK")
		} else {
			response.WriteString(fmt.Sprintf("❌ Última execução falhou: %v", res.Err))
		}
		switch t.task {
		case monitor.TaskSearch:
			response.WriteString(fmt.Sprintf(" — %d novo(s)", res.TotalNew))
		case monitor.TaskPriceCheck:
			response.WriteString(fmt.Sprintf(" — %d mudança(s), %d alerta(s)", res.PriceChanges, res.AlertsTriggered))
		case monitor.TaskStatusCheck:
			response.WriteString(fmt.Sprintf(" — %d desativado(s)", res.Deactivated))
		}
		response.WriteString(fmt.Sprintf("\n🕐 %s\n\n", res.FinishedAt.Format("02/01/2006 15:04")))
	}
	sendHTML(bot, chatID, response.String())
}

func handleLogs(bot *tgbotapi.BotAPI, chatID int64, mon *monitor.Monitor) {
	entries := mon.Logs().Entries()
	if len(entries) == 0 {
		sendPlain(bot, chatID, "📋 Nenhuma atividade registrada.")
		return
	}

	var response strings.Builder
	response.WriteString("📋 <b>Últimas atividades:</b>\n\n")
	for i, e := range entries {
		if i >= 20 {
			break
		}
		icon := "ℹ️"
		switch e.Level {
		case "warning":
			icon = "⚠️"
		case "error":
			icon = "❌"
		}
		response.WriteString(fmt.Sprintf("%s %s — %s\n", icon, e.Timestamp.Format("15:04:05"), escapeHTML(e.Message)))
	}
	sendHTML(bot, chatID, response.String())
}

func handleSetInterval(bot *tgbotapi.BotAPI, message *tgbotapi.Message, db *database.DB, sched *monitor.Scheduler) {
	parts := strings.Fields(message.Text)
	if len(parts) < 3 {
		sendPlain(bot, message.Chat.ID, "❌ Formato incorreto.\n\nUso: /intervalo <busca|precos> <minutos>\n\nExemplo: /intervalo busca 30")
		return
	}

	var key string
	switch strings.ToLower(parts[1]) {
	case "busca":
		key = monitor.SettingSearchInterval
	case "precos", "preços":
		key = monitor.SettingPriceInterval
	default:
		sendPlain(bot, message.Chat.ID, "❌ Tarefa desconhecida. Use 'busca' ou 'precos'.")
		return
	}

	minutes, err := strconv.Atoi(parts[2])
	if err != nil || minutes < 5 || minutes > 120 {
		sendPlain(bot, message.Chat.ID, "❌ Intervalo inválido. Use um valor entre 5 e 120 minutos.")
		return
	}

	if err := db.SetSetting(key, strconv.Itoa(minutes)); err != nil {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Erro ao salvar intervalo: %v", err))
		return
	}
	sched.Reschedule()
	sendPlain(bot, message.Chat.ID, fmt.Sprintf("✅ Intervalo ajustado para %d minutos.", minutes))
}

// parseIDArg extrai o argumento <id> de um comando de um argumento só
func parseIDArg(bot *tgbotapi.BotAPI, message *tgbotapi.Message, usage string) (int64, bool) {
	parts := strings.Fields(message.Text)
	if len(parts) < 2 {
		sendPlain(bot, message.Chat.ID, fmt.Sprintf("❌ Formato incorreto.\n\nUso: %s", usage))
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		sendPlain(bot, message.Chat.ID, "❌ ID inválido.")
		return 0, false
	}
	return id, true
}
