package database

import (
	"database/sql"

	"monitor-olx/internal/models"
)

const searchColumns = "id, name, base_url, queries, categories, exclude_keywords, active, state, region, category, subcategory, cheap_threshold, created_at"

func scanSearch(row interface{ Scan(...any) error }) (models.Search, error) {
	var s models.Search
	var queries, categories, keywords string
	var threshold sql.NullFloat64
	var createdAt sql.NullTime

	err := row.Scan(&s.ID, &s.Name, &s.BaseURL, &queries, &categories, &keywords,
		&s.Active, &s.State, &s.Region, &s.Category, &s.Subcategory, &threshold, &createdAt)
	if err != nil {
		return s, err
	}

	s.Queries = unmarshalStrings(queries)
	s.Categories = unmarshalStrings(categories)
	s.ExcludeKeywords = unmarshalStrings(keywords)
	if threshold.Valid {
		s.CheapThreshold = threshold.Float64
	}
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}
	return s, nil
}

func (db *DB) querySearches(query string, args ...any) ([]models.Search, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []models.Search
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// GetAllSearches retorna todas as buscas, ordenadas por nome
func (db *DB) GetAllSearches() ([]models.Search, error) {
	return db.querySearches("SELECT " + searchColumns + " FROM searches ORDER BY name")
}

// GetActiveSearches retorna as buscas ativas, consumidas pela tarefa de
// descoberta
func (db *DB) GetActiveSearches() ([]models.Search, error) {
	return db.querySearches("SELECT " + searchColumns + " FROM searches WHERE active = 1 ORDER BY name")
}

// GetSearchByID retorna uma busca pelo id (nil se não existe)
func (db *DB) GetSearchByID(id int64) (*models.Search, error) {
	s, err := scanSearch(db.conn.QueryRow("SELECT "+searchColumns+" FROM searches WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSearch cria uma busca nova. O nome é único; violação retorna erro.
func (db *DB) CreateSearch(s *models.Search) (int64, error) {
	var threshold any
	if s.CheapThreshold > 0 {
		threshold = s.CheapThreshold
	}
	res, err := db.conn.Exec(`
		INSERT INTO searches (name, base_url, queries, categories, exclude_keywords, active, state, region, category, subcategory, cheap_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.Name, s.BaseURL, marshalStrings(s.Queries), marshalStrings(s.Categories),
		marshalStrings(s.ExcludeKeywords), s.Active, s.State, s.Region, s.Category, s.Subcategory, threshold)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateSearch atualiza todos os campos editáveis de uma busca
func (db *DB) UpdateSearch(s *models.Search) error {
	var threshold any
	if s.CheapThreshold > 0 {
		threshold = s.CheapThreshold
	}
	_, err := db.conn.Exec(`
		UPDATE searches
		SET name = ?, base_url = ?, queries = ?, categories = ?, exclude_keywords = ?, active = ?,
		    state = ?, region = ?, category = ?, subcategory = ?, cheap_threshold = ?
		WHERE id = ?
	`, s.Name, s.BaseURL, marshalStrings(s.Queries), marshalStrings(s.Categories),
		marshalStrings(s.ExcludeKeywords), s.Active, s.State, s.Region, s.Category, s.Subcategory, threshold, s.ID)
	return err
}

// DeleteSearch remove uma busca
func (db *DB) DeleteSearch(id int64) error {
	_, err := db.conn.Exec("DELETE FROM searches WHERE id = ?", id)
	return err
}

// ToggleSearchActive inverte o flag ativo de uma busca
func (db *DB) ToggleSearchActive(id int64) error {
	_, err := db.conn.Exec("UPDATE searches SET active = NOT active WHERE id = ?", id)
	return err
}
