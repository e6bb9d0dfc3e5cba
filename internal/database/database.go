package database

import (
	"database/sql"
	"encoding/json"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// Expressão para comparar preços no formato brasileiro direto no SQL
const priceCast = "CAST(REPLACE(REPLACE(price, '.', ''), ',', '.') AS REAL)"

// DB encapsula a conexão com o banco de dados
type DB struct {
	conn *sql.DB
}

// New cria uma nova instância do banco de dados
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}

	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Println("Banco de dados inicializado com sucesso")
	return db, nil
}

// Close fecha a conexão com o banco de dados
func (db *DB) Close() error {
	return db.conn.Close()
}

// init cria as tabelas e índices necessários
func (db *DB) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE,
		base_url TEXT,
		queries TEXT,
		categories TEXT,
		exclude_keywords TEXT,
		active BOOLEAN DEFAULT 1,
		state TEXT DEFAULT '',
		region TEXT DEFAULT '',
		category TEXT DEFAULT 'games',
		subcategory TEXT DEFAULT '',
		cheap_threshold REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE,
		title TEXT,
		price TEXT,
		description TEXT,
		state TEXT,
		municipality TEXT,
		neighbourhood TEXT,
		zipcode TEXT,
		seller TEXT,
		condition TEXT,
		published_at TEXT,
		main_category TEXT,
		sub_category TEXT,
		hobbie_type TEXT,
		images TEXT,
		olx_pay BOOLEAN DEFAULT 0,
		olx_delivery BOOLEAN DEFAULT 0,
		search_id INTEGER,
		found_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		seen BOOLEAN DEFAULT 0,
		watching BOOLEAN DEFAULT 0,
		status TEXT DEFAULT 'active',
		deactivated_at DATETIME,
		FOREIGN KEY (search_id) REFERENCES searches(id)
	);

	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ad_id INTEGER,
		price TEXT,
		checked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (ad_id) REFERENCES ads(id)
	);

	CREATE TABLE IF NOT EXISTS price_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ad_id INTEGER UNIQUE,
		target_price REAL,
		notify_below BOOLEAN DEFAULT 1,
		active BOOLEAN DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		triggered_at DATETIME,
		FOREIGN KEY (ad_id) REFERENCES ads(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_ads_search_id ON ads(search_id);
	CREATE INDEX IF NOT EXISTS idx_ads_status ON ads(status);
	CREATE INDEX IF NOT EXISTS idx_ads_watching ON ads(watching);
	CREATE INDEX IF NOT EXISTS idx_ads_found_at ON ads(found_at DESC);
	CREATE INDEX IF NOT EXISTS idx_ads_status_found ON ads(status, found_at DESC);
	CREATE INDEX IF NOT EXISTS idx_price_history_ad ON price_history(ad_id, checked_at DESC);
	CREATE INDEX IF NOT EXISTS idx_searches_active ON searches(active);
	CREATE INDEX IF NOT EXISTS idx_price_alerts_active ON price_alerts(active, ad_id);
	`

	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	// Migração: adicionar colunas em bancos antigos. SQLite não suporta
	// IF NOT EXISTS em ALTER TABLE, então ignoramos o erro.
	_, _ = db.conn.Exec("ALTER TABLE searches ADD COLUMN cheap_threshold REAL")
	_, _ = db.conn.Exec("ALTER TABLE ads ADD COLUMN status TEXT DEFAULT 'active'")
	_, _ = db.conn.Exec("ALTER TABLE ads ADD COLUMN deactivated_at DATETIME")

	return nil
}

// ==================== SETTINGS ====================

// GetSetting retorna o valor de uma configuração, ou def se ausente
func (db *DB) GetSetting(key, def string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return def
	}
	return value
}

// SetSetting grava (ou sobrescreve) uma configuração
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// marshalStrings serializa uma lista para a coluna JSON correspondente
func marshalStrings(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// unmarshalStrings decodifica uma coluna JSON de lista; conteúdo inválido
// vira lista vazia
func unmarshalStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}
