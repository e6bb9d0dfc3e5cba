package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitor-olx/internal/models"
)

const adPageHTML = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">{"description":"Console em ótimo estado<br>Acompanha caixa","image":[{"contentUrl":"https://img.olx.com.br/1.jpg"},{"contentUrl":"https://img.olx.com.br/2.jpg"}]}</script>
<script>window.dataLayer = [{"page":{"detail":{"price":"1.500,00","zipcode":"80000000","olxPay":{"enabled":true},"olxDelivery":{"enabled":true}},"adDetail":{"subject":"Nintendo Switch","state":"PR","municipality":"Curitiba","neighbourhood":"Centro","sellerName":"João","hobbies_condition":"Usado","adDate":"10/01/2024","mainCategory":"Hobbies e coleções","subCategory":"Videogames","hobbies_collections_type":"Consoles"}}}];</script>
</head><body></body></html>`

const removedAdHTML = `<!DOCTYPE html>
<html><head>
<script>window.dataLayer = [{"page":{"detail":{"price":"Essa página não foi encontrada"},"adDetail":{}}}];</script>
</head><body></body></html>`

const searchPageHTML = `<!DOCTYPE html>
<html><body>
<a href="https://pr.olx.com.br/regiao-de-curitiba-e-paranagua/hobbies-e-colecoes/nintendo-switch-oled-1234567890">Switch OLED</a>
<a href="https://olx.com.br/hobbies-e-colecoes/ps5-slim-987654321">PS5</a>
<a href="https://olx.com.br/hobbies-e-colecoes/ps5-slim-987654321">PS5 repetido</a>
<a href="https://olx.com.br/autos-e-pecas/gol-quadrado-555555555">Patrocinado</a>
<a href="https://olx.com.br/institucional/ajuda">Ajuda</a>
</body></html>`

func TestBuildSearchURL(t *testing.T) {
	s := NewOlxScraper()

	assert.Equal(t,
		"https://www.olx.com.br/hobbies-e-colecoes?q=nintendo+switch&sf=1",
		s.BuildSearchURL("https://www.olx.com.br/hobbies-e-colecoes", "nintendo switch"))

	assert.Equal(t,
		"https://www.olx.com.br/hobbies-e-colecoes?pe=500&q=ps5&sf=1",
		s.BuildSearchURL("https://www.olx.com.br/hobbies-e-colecoes?pe=500", "ps5"))

	assert.Equal(t,
		"https://www.olx.com.br/hobbies-e-colecoes?sf=1",
		s.BuildSearchURL("https://www.olx.com.br/hobbies-e-colecoes", ""))
}

func TestExtractAdURLs(t *testing.T) {
	urls, err := ExtractAdURLs([]byte(searchPageHTML), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://pr.olx.com.br/regiao-de-curitiba-e-paranagua/hobbies-e-colecoes/nintendo-switch-oled-1234567890",
		"https://olx.com.br/hobbies-e-colecoes/ps5-slim-987654321",
		"https://olx.com.br/autos-e-pecas/gol-quadrado-555555555",
	}, urls)
}

func TestExtractAdURLsCategoryFilter(t *testing.T) {
	urls, err := ExtractAdURLs([]byte(searchPageHTML), []string{"hobbies-e-colecoes"})
	require.NoError(t, err)
	assert.Len(t, urls, 2)
	for _, u := range urls {
		assert.Contains(t, u, "hobbies-e-colecoes")
	}
}

func TestExtractAdURLsIgnoresBadPattern(t *testing.T) {
	// padrão inválido é ignorado; o válido continua filtrando
	urls, err := ExtractAdURLs([]byte(searchPageHTML), []string{"[", "autos-e-pecas"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://olx.com.br/autos-e-pecas/gol-quadrado-555555555"}, urls)
}

func TestFilterURLsByKeywords(t *testing.T) {
	urls := []string{
		"https://olx.com.br/hobbies-e-colecoes/nintendo-switch-oled-111",
		"https://olx.com.br/hobbies-e-colecoes/nintendo-switch-LITE-222",
		"https://olx.com.br/hobbies-e-colecoes/switch-com-defeito-333",
	}

	filtered := FilterURLsByKeywords(urls, []string{"lite", "defeito"})
	assert.Equal(t, []string{urls[0]}, filtered)

	// sem palavras de exclusão, nada é filtrado
	assert.Equal(t, urls, FilterURLsByKeywords(urls, nil))
}

func TestParseAdInfo(t *testing.T) {
	ad, err := ParseAdInfo("https://olx.com.br/anuncio-123", []byte(adPageHTML))
	require.NoError(t, err)
	require.NotNil(t, ad)

	assert.Equal(t, "Nintendo Switch", ad.Title)
	assert.Equal(t, "1.500,00", ad.Price)
	assert.Equal(t, "Console em ótimo estado\nAcompanha caixa", ad.Description)
	assert.Equal(t, "#PR", ad.State)
	assert.Equal(t, "Curitiba", ad.Municipality)
	assert.Equal(t, "Centro", ad.Neighbourhood)
	assert.Equal(t, "80000000", ad.Zipcode)
	assert.Equal(t, "João", ad.Seller)
	assert.Equal(t, "Usado", ad.Condition)
	assert.Equal(t, []string{"https://img.olx.com.br/1.jpg", "https://img.olx.com.br/2.jpg"}, ad.Images)
	assert.True(t, ad.OlxPay)
	assert.True(t, ad.OlxDelivery)
	assert.Equal(t, models.StatusActive, ad.Status)
}

func TestParseAdInfoRemovedAd(t *testing.T) {
	// preço com marcador de página removida
	ad, err := ParseAdInfo("https://olx.com.br/anuncio-123", []byte(removedAdHTML))
	require.NoError(t, err)
	assert.Nil(t, ad)

	// página sem dataLayer
	ad, err = ParseAdInfo("https://olx.com.br/anuncio-123", []byte("<html><body>nada</body></html>"))
	require.NoError(t, err)
	assert.Nil(t, ad)
}

func TestParseAdPrice(t *testing.T) {
	price, err := ParseAdPrice([]byte(adPageHTML))
	require.NoError(t, err)
	assert.Equal(t, "1.500,00", price)

	price, err = ParseAdPrice([]byte(removedAdHTML))
	require.NoError(t, err)
	assert.Equal(t, "", price)
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"200 normal", 200, adPageHTML, models.StatusActive},
		{"200 com marcador", 200, "<html>Anúncio não encontrado</html>", models.StatusInactive},
		{"200 com marcador de página", 200, "<html>Essa página não foi encontrada</html>", models.StatusInactive},
		{"404", 404, "", models.StatusInactive},
		{"410", 410, "", models.StatusInactive},
		{"500 ambíguo", 500, "", ""},
		{"302 ambíguo", 302, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.status, []byte(tt.body)))
		})
	}
}

func TestGetAdURLsFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchPageHTML)
	}))
	defer srv.Close()

	s := NewOlxScraper()
	defer s.Close()

	urls, err := s.GetAdURLs(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Len(t, urls, 3)
}

func TestGetAdInfoGoneAd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewOlxScraper()
	defer s.Close()

	ad, err := s.GetAdInfo(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Nil(t, ad)
}

func TestGetAdInfoRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewOlxScraper()
	defer s.Close()

	_, err := s.GetAdInfo(context.Background(), srv.URL)
	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, http.StatusForbidden, rateErr.StatusCode)
}

func TestCheckAdStatusFromServer(t *testing.T) {
	var response func(w http.ResponseWriter)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response(w)
	}))
	defer srv.Close()

	s := NewOlxScraper()
	defer s.Close()

	response = func(w http.ResponseWriter) { fmt.Fprint(w, adPageHTML) }
	status, err := s.CheckAdStatus(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, status)

	response = func(w http.ResponseWriter) { fmt.Fprint(w, "<html>Essa página não foi encontrada</html>") }
	status, err = s.CheckAdStatus(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, status)

	// erro do servidor é transitório, nunca classifica
	response = func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) }
	_, err = s.CheckAdStatus(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}
