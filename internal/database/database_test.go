package database

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitor-olx/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleAd(url string) *models.Ad {
	return &models.Ad{
		URL:           url,
		Title:         "Nintendo Switch",
		Price:         "1.500,00",
		State:         "#PR",
		Municipality:  "Curitiba",
		Neighbourhood: "Centro",
		Images:        []string{"https://img.olx.com.br/1.jpg"},
	}
}

func TestSettings(t *testing.T) {
	db := newTestDB(t)

	assert.Equal(t, "20", db.GetSetting("search_interval", "20"))

	require.NoError(t, db.SetSetting("search_interval", "45"))
	assert.Equal(t, "45", db.GetSetting("search_interval", "20"))

	// sobrescrever
	require.NoError(t, db.SetSetting("search_interval", "30"))
	assert.Equal(t, "30", db.GetSetting("search_interval", "20"))
}

func TestSearchCRUD(t *testing.T) {
	db := newTestDB(t)

	search := &models.Search{
		Name:            "Consoles",
		BaseURL:         "https://www.olx.com.br/hobbies-e-colecoes",
		Queries:         []string{"nintendo switch", "ps5"},
		ExcludeKeywords: []string{"lite"},
		Active:          true,
		CheapThreshold:  200,
	}
	id, err := db.CreateSearch(search)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := db.GetSearchByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Consoles", got.Name)
	assert.Equal(t, []string{"nintendo switch", "ps5"}, got.Queries)
	assert.Equal(t, []string{"lite"}, got.ExcludeKeywords)
	assert.Equal(t, 200.0, got.CheapThreshold)
	assert.True(t, got.Active)

	// nome é único
	_, err = db.CreateSearch(&models.Search{Name: "Consoles"})
	assert.Error(t, err)

	got.Queries = append(got.Queries, "xbox")
	require.NoError(t, db.UpdateSearch(got))
	updated, err := db.GetSearchByID(id)
	require.NoError(t, err)
	assert.Len(t, updated.Queries, 3)

	require.NoError(t, db.ToggleSearchActive(id))
	toggled, err := db.GetSearchByID(id)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	active, err := db.GetActiveSearches()
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, db.DeleteSearch(id))
	gone, err := db.GetSearchByID(id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCreateAdDeduplicatesByURL(t *testing.T) {
	db := newTestDB(t)

	ad := sampleAd("https://olx.com.br/anuncio-123")
	id, created, err := db.CreateAd(ad)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, ad.ID)

	// mesma URL de novo: sem erro, sem registro novo
	_, created, err = db.CreateAd(sampleAd("https://olx.com.br/anuncio-123"))
	require.NoError(t, err)
	assert.False(t, created)

	count, err := db.CountAds(AdFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateAdConcurrentDistinctURLs(t *testing.T) {
	db := newTestDB(t)

	urls := []string{
		"https://olx.com.br/anuncio-1",
		"https://olx.com.br/anuncio-2",
		"https://olx.com.br/anuncio-3",
		"https://olx.com.br/anuncio-4",
	}

	var wg sync.WaitGroup
	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, _, err := db.CreateAd(sampleAd(u))
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	for _, u := range urls {
		got, err := db.GetAdByURL(u)
		require.NoError(t, err)
		assert.NotNil(t, got, "URL %s", u)
	}
}

func TestGetExistingURLs(t *testing.T) {
	db := newTestDB(t)

	_, _, err := db.CreateAd(sampleAd("https://olx.com.br/anuncio-1"))
	require.NoError(t, err)

	existing, err := db.GetExistingURLs([]string{
		"https://olx.com.br/anuncio-1",
		"https://olx.com.br/anuncio-2",
	})
	require.NoError(t, err)
	assert.True(t, existing["https://olx.com.br/anuncio-1"])
	assert.False(t, existing["https://olx.com.br/anuncio-2"])

	empty, err := db.GetExistingURLs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAdRoundTrip(t *testing.T) {
	db := newTestDB(t)

	ad := sampleAd("https://olx.com.br/anuncio-1")
	ad.OlxDelivery = true
	_, _, err := db.CreateAd(ad)
	require.NoError(t, err)

	got, err := db.GetAdByID(ad.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Nintendo Switch", got.Title)
	assert.Equal(t, "1.500,00", got.Price)
	assert.Equal(t, []string{"https://img.olx.com.br/1.jpg"}, got.Images)
	assert.True(t, got.OlxDelivery)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.False(t, got.Seen)
	assert.False(t, got.FoundAt.IsZero())
}

func TestAdFilters(t *testing.T) {
	db := newTestDB(t)

	cheap := sampleAd("https://olx.com.br/anuncio-1")
	cheap.Price = "80,00"
	cheap.Title = "Jogo usado"
	_, _, err := db.CreateAd(cheap)
	require.NoError(t, err)

	expensive := sampleAd("https://olx.com.br/anuncio-2")
	expensive.Price = "2.500,00"
	_, _, err = db.CreateAd(expensive)
	require.NoError(t, err)

	max := 100.0
	ads, err := db.GetAds(AdFilter{MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "80,00", ads[0].Price)

	min := 1000.0
	ads, err = db.GetAds(AdFilter{MinPrice: &min})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "2.500,00", ads[0].Price)

	ads, err = db.GetAds(AdFilter{Text: "jogo"})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "Jogo usado", ads[0].Title)

	// ordenação por preço usa o valor numérico, não o texto
	ads, err = db.GetAds(AdFilter{SortBy: "price_asc"})
	require.NoError(t, err)
	require.Len(t, ads, 2)
	assert.Equal(t, "80,00", ads[0].Price)
	assert.Equal(t, "2.500,00", ads[1].Price)

	require.NoError(t, db.MarkAdSeen(cheap.ID))
	ads, err = db.GetAds(AdFilter{Status: "new"})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, expensive.ID, ads[0].ID)
}

func TestToggleAdWatching(t *testing.T) {
	db := newTestDB(t)

	ad := sampleAd("https://olx.com.br/anuncio-1")
	_, _, err := db.CreateAd(ad)
	require.NoError(t, err)

	watching, err := db.ToggleAdWatching(ad.ID)
	require.NoError(t, err)
	assert.True(t, watching)

	list, err := db.GetWatchingAds()
	require.NoError(t, err)
	require.Len(t, list, 1)

	watching, err = db.ToggleAdWatching(ad.ID)
	require.NoError(t, err)
	assert.False(t, watching)

	list, err = db.GetWatchingAds()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateAdStatus(t *testing.T) {
	db := newTestDB(t)

	ad := sampleAd("https://olx.com.br/anuncio-1")
	_, _, err := db.CreateAd(ad)
	require.NoError(t, err)

	refs, err := db.GetAdsToCheck()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ad.ID, refs[0].ID)
	assert.Equal(t, ad.URL, refs[0].URL)

	require.NoError(t, db.UpdateAdStatus(ad.ID, models.StatusInactive))
	got, err := db.GetAdByID(ad.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.False(t, got.DeactivatedAt.IsZero())

	refs, err = db.GetAdsToCheck()
	require.NoError(t, err)
	assert.Empty(t, refs)

	inactive, err := db.GetInactiveAds()
	require.NoError(t, err)
	assert.Len(t, inactive, 1)

	// reativação limpa deactivated_at
	require.NoError(t, db.UpdateAdStatus(ad.ID, models.StatusActive))
	got, err = db.GetAdByID(ad.ID)
	require.NoError(t, err)
	assert.True(t, got.DeactivatedAt.IsZero())
}

func TestPriceHistory(t *testing.T) {
	db := newTestDB(t)

	ad := sampleAd("https://olx.com.br/anuncio-1")
	_, _, err := db.CreateAd(ad)
	require.NoError(t, err)

	last, err := db.GetLastPriceCheck(ad.ID)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, db.AddPriceHistory(ad.ID, "1.500,00"))
	require.NoError(t, db.AddPriceHistory(ad.ID, "1.400,00"))

	history, err := db.GetPriceHistory(ad.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "1.500,00", history[0].Price)
	assert.Equal(t, "1.400,00", history[1].Price)

	last, err = db.GetLastPriceCheck(ad.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "1.400,00", last.Price)
}

func TestPriceAlerts(t *testing.T) {
	db := newTestDB(t)

	ad := sampleAd("https://olx.com.br/anuncio-1")
	_, _, err := db.CreateAd(ad)
	require.NoError(t, err)

	require.NoError(t, db.CreatePriceAlert(ad.ID, 1200, true))

	alert, err := db.GetPriceAlert(ad.ID)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, 1200.0, alert.TargetPrice)
	assert.True(t, alert.NotifyBelow)
	assert.True(t, alert.TriggeredAt.IsZero())

	active, err := db.GetActivePriceAlerts()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Nintendo Switch", active[0].Title)
	assert.Equal(t, "1.500,00", active[0].Price)

	require.NoError(t, db.MarkAlertTriggered(ad.ID))
	alert, err = db.GetPriceAlert(ad.ID)
	require.NoError(t, err)
	assert.False(t, alert.TriggeredAt.IsZero())

	// recriar o alerta rearma o disparo
	require.NoError(t, db.CreatePriceAlert(ad.ID, 1000, true))
	alert, err = db.GetPriceAlert(ad.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, alert.TargetPrice)
	assert.True(t, alert.TriggeredAt.IsZero())

	// anúncio desativado sai da lista de alertas ativos
	require.NoError(t, db.UpdateAdStatus(ad.ID, models.StatusInactive))
	active, err = db.GetActivePriceAlerts()
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, db.DeletePriceAlert(ad.ID))
	alert, err = db.GetPriceAlert(ad.ID)
	require.NoError(t, err)
	assert.Nil(t, alert)
}
