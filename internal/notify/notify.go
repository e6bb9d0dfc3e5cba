// Package notify entrega notificações de eventos do monitoramento (anúncio
// barato, queda de preço, alerta atingido) pelo Telegram.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"monitor-olx/internal/models"
)

// Notification é um evento pronto para entrega. Tag identifica o evento de
// forma estável (mesmo evento → mesma tag), permitindo que o canal de
// entrega colapse duplicatas.
type Notification struct {
	Title    string
	Body     string
	URL      string
	Tag      string
	ImageURL string
}

// Notifier entrega notificações por algum canal
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// TelegramNotifier entrega notificações em um chat do Telegram
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier cria um notificador para o chat informado
func NewTelegramNotifier(api *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

// Send envia a notificação. Se houver imagem, envia como foto com legenda;
// falhando a foto (URL expirada, formato não aceito), cai para texto puro.
func (t *TelegramNotifier) Send(ctx context.Context, n Notification) error {
	text := fmt.Sprintf("<b>%s</b>\n\n%s", n.Title, n.Body)
	if n.URL != "" {
		text += fmt.Sprintf("\n\n<a href=\"%s\">Ver anúncio</a>", n.URL)
	}

	if n.ImageURL != "" {
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(n.ImageURL))
		photo.Caption = text
		photo.ParseMode = "HTML"
		if _, err := t.api.Send(photo); err == nil {
			return nil
		}
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = false
	_, err := t.api.Send(msg)
	return err
}

// IsCheap diz se o preço está no limiar de "barato" ou abaixo dele. Preço
// que não parseia nunca é barato.
func IsCheap(price string, threshold float64) bool {
	v, ok := models.ParsePrice(price)
	if !ok {
		return false
	}
	return v <= threshold
}

// IsPriceDrop diz se houve queda de preço entre duas amostras. Qualquer
// lado que não parseie invalida a comparação.
func IsPriceDrop(oldPrice, newPrice string) bool {
	oldV, ok := models.ParsePrice(oldPrice)
	if !ok {
		return false
	}
	newV, ok := models.ParsePrice(newPrice)
	if !ok {
		return false
	}
	return newV < oldV
}

// ShouldTriggerAlert avalia se o preço atual cruza o alvo do alerta
func ShouldTriggerAlert(current string, target float64, notifyBelow bool) bool {
	v, ok := models.ParsePrice(current)
	if !ok {
		return false
	}
	if notifyBelow {
		return v <= target
	}
	return v >= target
}

// CheapTag gera a tag estável do evento "anúncio barato"
func CheapTag(adID int64) string {
	return fmt.Sprintf("cheap-ad-%d", adID)
}

// PriceDropTag gera a tag estável do evento "queda de preço"
func PriceDropTag(adID int64) string {
	return fmt.Sprintf("price-drop-%d", adID)
}

// AlertTag gera a tag estável do evento "alerta de preço"
func AlertTag(adID int64) string {
	return fmt.Sprintf("price-alert-%d", adID)
}
