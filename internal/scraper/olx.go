package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"monitor-olx/internal/models"
)

const requestTimeout = 30 * time.Second

// User-Agents realistas de browsers populares
var userAgents = []string{
	// Chrome Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Chrome Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	// Firefox Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	// Firefox Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.3; rv:122.0) Gecko/20100101 Firefox/122.0",
	// Safari Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_3) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	// Edge Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36 Edg/121.0.0.0",
}

// URLs de anúncio do OLX: domínio (com ou sem subdomínio de estado) e path
// terminando em id numérico
var adURLPattern = regexp.MustCompile(`https://(?:[a-z]{2}\.)?olx\.com\.br/[\w\-/]+-\d+`)

// O OLX devolve HTTP 200 para muitas páginas de anúncio removido; o status
// real precisa ser inferido por estes marcadores no conteúdo
var notFoundMarkers = []string{"não encontrado", "página não foi encontrada"}

// OlxScraper busca e extrai anúncios do OLX Brasil
type OlxScraper struct {
	mu      sync.Mutex
	client  *http.Client
	headers map[string]string
}

// NewOlxScraper cria uma nova instância do scraper do OLX
func NewOlxScraper() *OlxScraper {
	s := &OlxScraper{}
	s.rotateHeaders()
	return s
}

// rotateHeaders gera headers realistas com User-Agent aleatório. Chamado a
// cada nova sessão, não a cada requisição, para a identidade parecer
// consistente ao site.
func (s *OlxScraper) rotateHeaders() {
	s.headers = map[string]string{
		"User-Agent":                userAgents[rand.Intn(len(userAgents))],
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Ch-Ua":                 `"Not A(Brand";v="99", "Google Chrome";v="121", "Chromium";v="121"`,
		"Sec-Ch-Ua-Mobile":          "?0",
		"Sec-Ch-Ua-Platform":        `"Windows"`,
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Cache-Control":             "max-age=0",
		"Referer":                   "https://www.olx.com.br/",
	}
}

// getClient retorna o cliente HTTP da sessão atual, criando um novo (com
// identidade rotacionada e pool de conexões limitado) se necessário
func (s *OlxScraper) getClient() *http.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		s.rotateHeaders()
		jar, _ := cookiejar.New(nil)
		s.client = &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return s.client
}

// Close encerra a sessão atual. A próxima requisição cria outra sessão com
// novos headers e cookies.
func (s *OlxScraper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.CloseIdleConnections()
		s.client = nil
	}
}

// doGet executa um GET e devolve status e corpo. Falhas de conexão/timeout
// viram NetworkError; o status HTTP é repassado para o chamador interpretar.
func (s *OlxScraper) doGet(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}

	s.mu.Lock()
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	s.mu.Unlock()

	resp, err := s.getClient().Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	return resp.StatusCode, body, nil
}

// BuildSearchURL adiciona a query e o flag de ordenação por mais recentes
// (sf=1) à URL base da busca
func (s *OlxScraper) BuildSearchURL(baseURL, query string) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	if query == "" {
		return baseURL + sep + "sf=1"
	}
	return baseURL + sep + "q=" + url.QueryEscape(query) + "&sf=1"
}

// GetAdURLs busca uma página de resultados e extrai as URLs de anúncio
func (s *OlxScraper) GetAdURLs(ctx context.Context, searchURL string, categoryPatterns []string) ([]string, error) {
	status, body, err := s.doGet(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	if err := transientStatusError(status); err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		log.Printf("Falha ao buscar página de resultados %s: status %d", searchURL, status)
		return nil, nil
	}
	return ExtractAdURLs(body, categoryPatterns)
}

// GetAdInfo busca e extrai um anúncio completo. Retorna (nil, nil) quando o
// anúncio não existe mais.
func (s *OlxScraper) GetAdInfo(ctx context.Context, adURL string) (*models.Ad, error) {
	status, body, err := s.doGet(ctx, adURL)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || status == http.StatusGone {
		return nil, nil
	}
	if err := transientStatusError(status); err != nil {
		return nil, err
	}
	return ParseAdInfo(adURL, body)
}

// GetCurrentPrice busca só o preço atual de um anúncio ("" quando o anúncio
// não existe mais)
func (s *OlxScraper) GetCurrentPrice(ctx context.Context, adURL string) (string, error) {
	status, body, err := s.doGet(ctx, adURL)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound || status == http.StatusGone {
		return "", nil
	}
	if err := transientStatusError(status); err != nil {
		return "", err
	}
	return ParseAdPrice(body)
}

// CheckAdStatus verifica se um anúncio ainda está ativo no site. Rate-limit
// (401/403) e erro do servidor (5xx) viram erros transitórios — depois de
// esgotadas as tentativas o item é pulado sem mudar o status salvo.
func (s *OlxScraper) CheckAdStatus(ctx context.Context, adURL string) (string, error) {
	status, body, err := s.doGet(ctx, adURL)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		log.Printf("Limite de requisições (%d) para %s", status, adURL)
		return "", &RateLimitError{StatusCode: status}
	case status >= 500:
		log.Printf("Erro do servidor (%d) para %s", status, adURL)
		return "", &NetworkError{Err: fmt.Errorf("erro do servidor: status %d", status)}
	}
	return ClassifyStatus(status, body), nil
}

// transientStatusError converte códigos HTTP transitórios no erro retryable
// correspondente; retorna nil para os demais
func transientStatusError(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &RateLimitError{StatusCode: status}
	case status >= 500:
		return &NetworkError{Err: fmt.Errorf("erro do servidor: status %d", status)}
	}
	return nil
}

// ==================== EXTRAÇÃO (puro, sem I/O) ====================

// ExtractAdURLs extrai do HTML as URLs que têm formato de anúncio,
// de-duplicadas. Com categoryPatterns, a URL precisa casar com ao menos um
// padrão para entrar no resultado.
func ExtractAdURLs(body []byte, categoryPatterns []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Msg: "falha ao ler página de resultados", Err: err}
	}

	compiled := make([]*regexp.Regexp, 0, len(categoryPatterns))
	for _, p := range categoryPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Printf("Padrão de categoria inválido ignorado: %q", p)
			continue
		}
		compiled = append(compiled, re)
	}

	seen := make(map[string]bool)
	var urls []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !adURLPattern.MatchString(href) {
			return
		}
		if len(compiled) > 0 {
			matched := false
			for _, re := range compiled {
				if re.MatchString(href) {
					matched = true
					break
				}
			}
			if !matched {
				return
			}
		}
		if !seen[href] {
			seen[href] = true
			urls = append(urls, href)
		}
	})
	return urls, nil
}

// jsonLD cobre os campos usados do bloco application/ld+json
type jsonLD struct {
	Description string `json:"description"`
	Image       []struct {
		ContentURL string `json:"contentUrl"`
	} `json:"image"`
}

// dataLayerEntry cobre os campos usados do objeto window.dataLayer
type dataLayerEntry struct {
	Page struct {
		Detail struct {
			Price       json.RawMessage `json:"price"`
			Zipcode     string          `json:"zipcode"`
			OlxPay      map[string]any  `json:"olxPay"`
			OlxDelivery struct {
				Enabled bool `json:"enabled"`
			} `json:"olxDelivery"`
		} `json:"detail"`
		AdDetail struct {
			Subject       string `json:"subject"`
			State         string `json:"state"`
			Municipality  string `json:"municipality"`
			Neighbourhood string `json:"neighbourhood"`
			SellerName    string `json:"sellerName"`
			Condition     string `json:"hobbies_condition"`
			AdDate        string `json:"adDate"`
			MainCategory  string `json:"mainCategory"`
			SubCategory   string `json:"subCategory"`
			HobbieType    string `json:"hobbies_collections_type"`
		} `json:"adDetail"`
	} `json:"page"`
}

// rawToString converte um valor bruto do dataLayer em string (o preço às
// vezes vem como número)
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// extractDataLayer localiza o script com window.dataLayer e decodifica o
// array JSON embutido. Retorna nil sem erro quando a página não tem o
// objeto (sinal de anúncio removido).
func extractDataLayer(doc *goquery.Document) (*dataLayerEntry, error) {
	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if strings.Contains(text, "window.dataLayer") {
			raw = text
			return false
		}
		return true
	})
	if raw == "" {
		return nil, nil
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, &ParseError{Msg: "dataLayer sem array JSON"}
	}

	var entries []dataLayerEntry
	if err := json.Unmarshal([]byte(raw[start:end+1]), &entries); err != nil {
		return nil, &ParseError{Msg: "falha ao decodificar dataLayer", Err: err}
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// extractJSONLD decodifica o bloco application/ld+json (descrição e imagens)
func extractJSONLD(doc *goquery.Document) jsonLD {
	var data jsonLD
	sel := doc.Find(`script[type="application/ld+json"]`).First()
	if sel.Length() == 0 {
		return data
	}
	// campos cosméticos: erro de decodificação vira dados vazios
	_ = json.Unmarshal([]byte(sel.Text()), &data)
	return data
}

// isNotFoundPrice detecta o marcador de página removida dentro do campo de
// preço (o OLX às vezes devolve a mensagem no lugar do valor)
func isNotFoundPrice(price string) bool {
	lower := strings.ToLower(price)
	return strings.Contains(lower, "página não foi encontrada")
}

// ParseAdInfo extrai o anúncio completo do HTML. Retorna (nil, nil) quando a
// página sinaliza anúncio removido ou o preço está ausente — esse é o sinal
// primário de "anúncio não existe mais", independente do status HTTP.
func ParseAdInfo(adURL string, body []byte) (*models.Ad, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Msg: "falha ao ler página do anúncio", Err: err}
	}

	ld := extractJSONLD(doc)
	description := strings.ReplaceAll(ld.Description, "<br>", "\n")
	var images []string
	for _, img := range ld.Image {
		if img.ContentURL != "" {
			images = append(images, img.ContentURL)
		}
	}

	layer, err := extractDataLayer(doc)
	if err != nil {
		return nil, err
	}
	if layer == nil {
		log.Printf("dataLayer ausente para %s", adURL)
		return nil, nil
	}

	detail := layer.Page.Detail
	info := layer.Page.AdDetail

	price := rawToString(detail.Price)
	if price == "" || isNotFoundPrice(price) {
		log.Printf("Anúncio removido ou sem preço: %s", adURL)
		return nil, nil
	}

	state := info.State
	if state != "" {
		state = "#" + state
	}

	return &models.Ad{
		URL:           adURL,
		Title:         strings.ReplaceAll(info.Subject, "<br>", ""),
		Price:         price,
		Description:   description,
		State:         state,
		Municipality:  info.Municipality,
		Neighbourhood: info.Neighbourhood,
		Zipcode:       detail.Zipcode,
		Seller:        info.SellerName,
		Condition:     info.Condition,
		PublishedAt:   info.AdDate,
		MainCategory:  info.MainCategory,
		SubCategory:   info.SubCategory,
		HobbieType:    info.HobbieType,
		Images:        images,
		OlxPay:        len(detail.OlxPay) > 0,
		OlxDelivery:   detail.OlxDelivery.Enabled,
		Status:        models.StatusActive,
	}, nil
}

// ParseAdPrice extrai só o preço do HTML ("" quando o anúncio foi removido)
func ParseAdPrice(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", &ParseError{Msg: "falha ao ler página do anúncio", Err: err}
	}

	layer, err := extractDataLayer(doc)
	if err != nil {
		return "", err
	}
	if layer == nil {
		return "", nil
	}

	price := rawToString(layer.Page.Detail.Price)
	if price == "" || isNotFoundPrice(price) {
		return "", nil
	}
	return price, nil
}

// ClassifyStatus infere o status do anúncio a partir do código HTTP e do
// conteúdo. HTTP 200 com marcador de "não encontrado" é inativo; 200 normal
// é ativo; 404/410 é inativo; qualquer outro código é ambíguo ("") e não
// deve alterar o status salvo.
func ClassifyStatus(httpStatus int, body []byte) string {
	switch {
	case httpStatus == http.StatusOK:
		lower := strings.ToLower(string(body))
		for _, marker := range notFoundMarkers {
			if strings.Contains(lower, marker) {
				return models.StatusInactive
			}
		}
		return models.StatusActive
	case httpStatus == http.StatusNotFound || httpStatus == http.StatusGone:
		return models.StatusInactive
	default:
		return ""
	}
}
