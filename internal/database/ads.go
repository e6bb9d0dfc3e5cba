package database

import (
	"database/sql"
	"fmt"
	"strings"

	"monitor-olx/internal/models"
)

const adColumns = "id, url, title, price, description, state, municipality, neighbourhood, zipcode, seller, condition, published_at, main_category, sub_category, hobbie_type, images, olx_pay, olx_delivery, search_id, found_at, seen, watching, status, deactivated_at"

// AdRef identifica um anúncio para a verificação de status
type AdRef struct {
	ID  int64
	URL string
}

// AdFilter restringe listagens de anúncios. Campos zero não filtram.
type AdFilter struct {
	SearchID int64
	Status   string // "new", "seen" ou "watching"
	AdStatus string // models.StatusActive / models.StatusInactive
	MinPrice *float64
	MaxPrice *float64
	State    string
	Days     int
	Text     string
	SortBy   string // "price_asc" ou "price_desc"; padrão: mais recentes
	Limit    int
	Offset   int
}

func scanAd(row interface{ Scan(...any) error }) (models.Ad, error) {
	var a models.Ad
	var images string
	var searchID sql.NullInt64
	var foundAt, deactivatedAt sql.NullTime

	err := row.Scan(&a.ID, &a.URL, &a.Title, &a.Price, &a.Description, &a.State,
		&a.Municipality, &a.Neighbourhood, &a.Zipcode, &a.Seller, &a.Condition,
		&a.PublishedAt, &a.MainCategory, &a.SubCategory, &a.HobbieType, &images,
		&a.OlxPay, &a.OlxDelivery, &searchID, &foundAt, &a.Seen, &a.Watching,
		&a.Status, &deactivatedAt)
	if err != nil {
		return a, err
	}

	a.Images = unmarshalStrings(images)
	if searchID.Valid {
		a.SearchID = searchID.Int64
	}
	if foundAt.Valid {
		a.FoundAt = foundAt.Time
	}
	if deactivatedAt.Valid {
		a.DeactivatedAt = deactivatedAt.Time
	}
	return a, nil
}

func (db *DB) queryAds(query string, args ...any) ([]models.Ad, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, a)
	}
	return ads, rows.Err()
}

// buildAdsFilter monta a cláusula WHERE a partir do filtro (reduz duplicação
// entre listagem e contagem)
func buildAdsFilter(f AdFilter) (string, []any) {
	var conditions []string
	var args []any

	if f.SearchID > 0 {
		conditions = append(conditions, "search_id = ?")
		args = append(args, f.SearchID)
	}

	if f.Text != "" {
		conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Text) + "%"
		args = append(args, pattern, pattern)
	}

	switch f.Status {
	case "new":
		conditions = append(conditions, "seen = 0")
	case "seen":
		conditions = append(conditions, "seen = 1")
	case "watching":
		conditions = append(conditions, "watching = 1")
	}

	if f.AdStatus != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.AdStatus)
	}

	if f.MinPrice != nil {
		conditions = append(conditions, priceCast+" >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, priceCast+" <= ?")
		args = append(args, *f.MaxPrice)
	}

	if f.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, f.State)
	}

	if f.Days > 0 {
		conditions = append(conditions, "found_at >= datetime('now', ?)")
		args = append(args, fmt.Sprintf("-%d days", f.Days))
	}

	if len(conditions) == 0 {
		return "1=1", args
	}
	return strings.Join(conditions, " AND "), args
}

// GetAds lista anúncios com os filtros aplicados
func (db *DB) GetAds(f AdFilter) ([]models.Ad, error) {
	where, args := buildAdsFilter(f)

	order := "found_at DESC"
	switch f.SortBy {
	case "price_asc":
		order = priceCast + " ASC"
	case "price_desc":
		order = priceCast + " DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + adColumns + " FROM ads WHERE " + where + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)
	return db.queryAds(query, args...)
}

// CountAds conta os anúncios com os filtros aplicados
func (db *DB) CountAds(f AdFilter) (int, error) {
	where, args := buildAdsFilter(f)
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM ads WHERE "+where, args...).Scan(&count)
	return count, err
}

// GetAdByID retorna um anúncio pelo id (nil se não existe)
func (db *DB) GetAdByID(id int64) (*models.Ad, error) {
	a, err := scanAd(db.conn.QueryRow("SELECT "+adColumns+" FROM ads WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAdByURL retorna um anúncio pela URL canônica (nil se não existe)
func (db *DB) GetAdByURL(url string) (*models.Ad, error) {
	a, err := scanAd(db.conn.QueryRow("SELECT "+adColumns+" FROM ads WHERE url = ?", url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetExistingURLs verifica em lote quais URLs já existem no banco
// (uma única query, não N consultas)
func (db *DB) GetExistingURLs(urls []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(urls) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(urls)), ",")
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	rows, err := db.conn.Query("SELECT url FROM ads WHERE url IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		existing[url] = true
	}
	return existing, rows.Err()
}

// CreateAd insere um anúncio novo. A URL é a chave de de-duplicação: a
// inserção é atômica (ON CONFLICT DO NOTHING) e created=false indica que a
// URL já existia — nunca são criados dois anúncios para a mesma URL, mesmo
// com descobertas concorrentes.
func (db *DB) CreateAd(a *models.Ad) (int64, bool, error) {
	var searchID any
	if a.SearchID > 0 {
		searchID = a.SearchID
	}

	res, err := db.conn.Exec(`
		INSERT INTO ads (url, title, price, description, state, municipality,
		                 neighbourhood, zipcode, seller, condition, published_at,
		                 main_category, sub_category, hobbie_type, images,
		                 olx_pay, olx_delivery, search_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, a.URL, a.Title, a.Price, a.Description, a.State, a.Municipality,
		a.Neighbourhood, a.Zipcode, a.Seller, a.Condition, a.PublishedAt,
		a.MainCategory, a.SubCategory, a.HobbieType, marshalStrings(a.Images),
		a.OlxPay, a.OlxDelivery, searchID)
	if err != nil {
		return 0, false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	a.ID = id
	return id, true, nil
}

// MarkAdSeen marca um anúncio como visto
func (db *DB) MarkAdSeen(id int64) error {
	_, err := db.conn.Exec("UPDATE ads SET seen = 1 WHERE id = ?", id)
	return err
}

// ToggleAdWatching inverte o acompanhamento de um anúncio. Retorna o novo
// estado (true = acompanhando).
func (db *DB) ToggleAdWatching(id int64) (bool, error) {
	var watching bool
	err := db.conn.QueryRow("SELECT watching FROM ads WHERE id = ?", id).Scan(&watching)
	if err != nil {
		return false, err
	}

	now := !watching
	if _, err := db.conn.Exec("UPDATE ads SET watching = ? WHERE id = ?", now, id); err != nil {
		return false, err
	}
	return now, nil
}

// GetWatchingAds retorna os anúncios acompanhados, do mais recente para o
// mais antigo
func (db *DB) GetWatchingAds() ([]models.Ad, error) {
	return db.queryAds("SELECT " + adColumns + " FROM ads WHERE watching = 1 ORDER BY found_at DESC")
}

// UpdateAdPrice atualiza o preço salvo de um anúncio
func (db *DB) UpdateAdPrice(id int64, price string) error {
	_, err := db.conn.Exec("UPDATE ads SET price = ? WHERE id = ?", price, id)
	return err
}

// UpdateAdStatus atualiza o status do anúncio. deactivated_at só fica
// preenchido enquanto o status é inactive.
func (db *DB) UpdateAdStatus(id int64, status string) error {
	if status == models.StatusInactive {
		_, err := db.conn.Exec(
			"UPDATE ads SET status = ?, deactivated_at = CURRENT_TIMESTAMP WHERE id = ?",
			status, id)
		return err
	}
	_, err := db.conn.Exec(
		"UPDATE ads SET status = ?, deactivated_at = NULL WHERE id = ?",
		status, id)
	return err
}

// GetAdsToCheck retorna id e URL dos anúncios ativos, para a verificação
// de status
func (db *DB) GetAdsToCheck() ([]AdRef, error) {
	rows, err := db.conn.Query("SELECT id, url FROM ads WHERE status = 'active' ORDER BY found_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []AdRef
	for rows.Next() {
		var r AdRef
		if err := rows.Scan(&r.ID, &r.URL); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// GetInactiveAds retorna os anúncios desativados, do desativado mais
// recentemente para o mais antigo
func (db *DB) GetInactiveAds() ([]models.Ad, error) {
	return db.queryAds("SELECT " + adColumns + " FROM ads WHERE status = 'inactive' ORDER BY deactivated_at DESC")
}
