package database

import (
	"database/sql"

	"monitor-olx/internal/models"
)

// ==================== HISTÓRICO DE PREÇOS ====================

// AddPriceHistory registra uma amostra de preço para um anúncio. Chamado a
// cada verificação, mesmo sem mudança — é o batimento usado nos gráficos
// de tendência.
func (db *DB) AddPriceHistory(adID int64, price string) error {
	_, err := db.conn.Exec("INSERT INTO price_history (ad_id, price) VALUES (?, ?)", adID, price)
	return err
}

// GetPriceHistory retorna o histórico de preços em ordem cronológica
func (db *DB) GetPriceHistory(adID int64) ([]models.PriceHistory, error) {
	rows, err := db.conn.Query(`
		SELECT id, ad_id, price, checked_at FROM price_history
		WHERE ad_id = ?
		ORDER BY checked_at ASC
	`, adID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.PriceHistory
	for rows.Next() {
		var h models.PriceHistory
		var checkedAt sql.NullTime
		if err := rows.Scan(&h.ID, &h.AdID, &h.Price, &checkedAt); err != nil {
			return nil, err
		}
		if checkedAt.Valid {
			h.CheckedAt = checkedAt.Time
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// GetLastPriceCheck retorna a amostra de preço mais recente de um anúncio
// (nil se nunca verificado)
func (db *DB) GetLastPriceCheck(adID int64) (*models.PriceHistory, error) {
	var h models.PriceHistory
	var checkedAt sql.NullTime
	err := db.conn.QueryRow(`
		SELECT id, ad_id, price, checked_at FROM price_history
		WHERE ad_id = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`, adID).Scan(&h.ID, &h.AdID, &h.Price, &checkedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if checkedAt.Valid {
		h.CheckedAt = checkedAt.Time
	}
	return &h, nil
}

// ==================== ALERTAS DE PREÇO ====================

// AlertWithAd é um alerta ativo junto com os dados do anúncio necessários
// para avaliar e notificar
type AlertWithAd struct {
	models.PriceAlert
	Title  string
	Price  string
	URL    string
	Images []string
}

// CreatePriceAlert cria (ou substitui) o alerta de preço de um anúncio.
// Recriar o alerta zera triggered_at, permitindo que dispare de novo.
func (db *DB) CreatePriceAlert(adID int64, targetPrice float64, notifyBelow bool) error {
	_, err := db.conn.Exec(`
		INSERT INTO price_alerts (ad_id, target_price, notify_below, active)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(ad_id) DO UPDATE SET
			target_price = excluded.target_price,
			notify_below = excluded.notify_below,
			active = 1,
			triggered_at = NULL
	`, adID, targetPrice, notifyBelow)
	return err
}

// GetPriceAlert retorna o alerta de um anúncio (nil se não existe)
func (db *DB) GetPriceAlert(adID int64) (*models.PriceAlert, error) {
	var a models.PriceAlert
	var createdAt, triggeredAt sql.NullTime
	err := db.conn.QueryRow(`
		SELECT id, ad_id, target_price, notify_below, active, created_at, triggered_at
		FROM price_alerts WHERE ad_id = ?
	`, adID).Scan(&a.ID, &a.AdID, &a.TargetPrice, &a.NotifyBelow, &a.Active, &createdAt, &triggeredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	if triggeredAt.Valid {
		a.TriggeredAt = triggeredAt.Time
	}
	return &a, nil
}

// GetActivePriceAlerts retorna os alertas ativos de anúncios ainda ativos,
// com os dados do anúncio para avaliação
func (db *DB) GetActivePriceAlerts() ([]AlertWithAd, error) {
	rows, err := db.conn.Query(`
		SELECT pa.id, pa.ad_id, pa.target_price, pa.notify_below, pa.active, pa.created_at, pa.triggered_at,
		       a.title, a.price, a.url, a.images
		FROM price_alerts pa
		JOIN ads a ON pa.ad_id = a.id
		WHERE pa.active = 1 AND a.status = 'active'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []AlertWithAd
	for rows.Next() {
		var a AlertWithAd
		var createdAt, triggeredAt sql.NullTime
		var images string
		if err := rows.Scan(&a.ID, &a.AdID, &a.TargetPrice, &a.NotifyBelow, &a.Active,
			&createdAt, &triggeredAt, &a.Title, &a.Price, &a.URL, &images); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			a.CreatedAt = createdAt.Time
		}
		if triggeredAt.Valid {
			a.TriggeredAt = triggeredAt.Time
		}
		a.Images = unmarshalStrings(images)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertTriggered marca o alerta como disparado; ele não dispara de novo
// até ser resetado
func (db *DB) MarkAlertTriggered(adID int64) error {
	_, err := db.conn.Exec("UPDATE price_alerts SET triggered_at = CURRENT_TIMESTAMP WHERE ad_id = ?", adID)
	return err
}

// ResetPriceAlert limpa o disparo, rearmando o alerta
func (db *DB) ResetPriceAlert(adID int64) error {
	_, err := db.conn.Exec("UPDATE price_alerts SET triggered_at = NULL WHERE ad_id = ?", adID)
	return err
}

// DeletePriceAlert remove o alerta de um anúncio
func (db *DB) DeletePriceAlert(adID int64) error {
	_, err := db.conn.Exec("DELETE FROM price_alerts WHERE ad_id = ?", adID)
	return err
}
