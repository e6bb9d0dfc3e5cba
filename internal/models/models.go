package models

import (
	"strconv"
	"strings"
	"time"
)

// Status de um anúncio no site
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Search representa uma busca salva que o monitoramento executa periodicamente
type Search struct {
	ID              int64
	Name            string
	BaseURL         string
	Queries         []string
	Categories      []string
	ExcludeKeywords []string
	Active          bool
	State           string
	Region          string
	Category        string
	Subcategory     string
	CheapThreshold  float64 // 0 = usar o threshold global
	CreatedAt       time.Time
}

// Ad representa um anúncio encontrado pelo monitoramento
type Ad struct {
	ID            int64
	URL           string
	Title         string
	Price         string // formato brasileiro: "1.500,00"
	Description   string
	State         string
	Municipality  string
	Neighbourhood string
	Zipcode       string
	Seller        string
	Condition     string
	PublishedAt   string
	MainCategory  string
	SubCategory   string
	HobbieType    string
	Images        []string
	OlxPay        bool
	OlxDelivery   bool
	SearchID      int64
	FoundAt       time.Time
	Seen          bool
	Watching      bool
	Status        string
	DeactivatedAt time.Time // zero a menos que Status == inactive
}

// Location monta a localização legível do anúncio
func (a *Ad) Location() string {
	var parts []string
	if a.Neighbourhood != "" {
		parts = append(parts, a.Neighbourhood)
	}
	if a.Municipality != "" {
		parts = append(parts, a.Municipality)
	}
	if a.State != "" {
		parts = append(parts, strings.TrimPrefix(a.State, "#"))
	}
	return strings.Join(parts, ", ")
}

// CategoryPath monta o caminho de categoria do anúncio
func (a *Ad) CategoryPath() string {
	var parts []string
	for _, p := range []string{a.MainCategory, a.SubCategory, a.HobbieType} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " > ")
}

// FirstImage retorna a primeira imagem do anúncio, se houver
func (a *Ad) FirstImage() string {
	if len(a.Images) > 0 {
		return a.Images[0]
	}
	return ""
}

// PriceHistory é uma amostra de preço de um anúncio acompanhado.
// Registrada a cada verificação, mesmo sem mudança.
type PriceHistory struct {
	ID        int64
	AdID      int64
	Price     string
	CheckedAt time.Time
}

// PriceAlert dispara uma única notificação quando o preço cruza o alvo
type PriceAlert struct {
	ID          int64
	AdID        int64
	TargetPrice float64
	NotifyBelow bool // true: notificar quando preço <= alvo; false: >= alvo
	Active      bool
	CreatedAt   time.Time
	TriggeredAt time.Time // zero enquanto não disparado
}

// ParsePrice converte um preço no formato brasileiro ("1.500,00") para float.
// Retorna ok=false quando o texto não é um preço válido; comparações com
// preços inválidos devem falhar em silêncio, nunca quebrar uma tarefa.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	cleaned := strings.ReplaceAll(s, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PriceVariation calcula a variação percentual entre a primeira e a última
// amostra do histórico, com o rótulo formatado ("+12%")
func PriceVariation(history []PriceHistory) (float64, string) {
	if len(history) < 2 {
		return 0, "0%"
	}

	first, ok1 := ParsePrice(history[0].Price)
	last, ok2 := ParsePrice(history[len(history)-1].Price)
	if !ok1 || !ok2 || first == 0 {
		return 0, "0%"
	}

	variation := ((last - first) / first) * 100
	sign := ""
	if variation > 0 {
		sign = "+"
	}
	return variation, sign + strconv.FormatFloat(variation, 'f', 0, 64) + "%"
}
