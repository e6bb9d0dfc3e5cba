package scraper

import (
	"context"
	"strings"

	"monitor-olx/internal/models"
)

// Scraper define o contrato de extração para um site de classificados.
// Todos os métodos distinguem "anúncio não existe mais" (resultado vazio,
// sem erro) de falha transitória (erro retryable).
type Scraper interface {
	// BuildSearchURL monta a URL de busca com a query e a ordenação
	// por mais recentes
	BuildSearchURL(baseURL, query string) string

	// GetAdURLs busca uma página de resultados e extrai as URLs de
	// anúncio. Se categoryPatterns não for vazio, só URLs que casam com
	// ao menos um padrão são retornadas (corta patrocinados de outras
	// categorias).
	GetAdURLs(ctx context.Context, searchURL string, categoryPatterns []string) ([]string, error)

	// GetAdInfo busca e extrai o anúncio completo. Retorna (nil, nil)
	// quando o anúncio não existe mais.
	GetAdInfo(ctx context.Context, url string) (*models.Ad, error)

	// GetCurrentPrice retorna só o preço atual ("" quando o anúncio
	// não existe mais)
	GetCurrentPrice(ctx context.Context, url string) (string, error)

	// CheckAdStatus classifica o anúncio como models.StatusActive,
	// models.StatusInactive ou "" (ambíguo, não alterar o status salvo)
	CheckAdStatus(ctx context.Context, url string) (string, error)

	// Close encerra a sessão atual; a próxima requisição abre outra
	// com nova identidade
	Close()
}

// FilterURLsByKeywords remove URLs que contêm alguma palavra-chave de
// exclusão (comparação case-insensitive na URL inteira)
func FilterURLsByKeywords(urls []string, excludeKeywords []string) []string {
	if len(excludeKeywords) == 0 {
		return urls
	}
	filtered := make([]string, 0, len(urls))
	for _, u := range urls {
		lower := strings.ToLower(u)
		excluded := false
		for _, kw := range excludeKeywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				excluded = true
				break
			}
		}
		if !excluded {
			filtered = append(filtered, u)
		}
	}
	return filtered
}
