// Package delivery consulta a cotação de frete de um anúncio na API de
// entregas do site.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

const quoteURL = "https://apigw.olx.com.br/delivery/quote"

// Categorias usadas na cotação (hobbies e coleções / games)
const (
	categoryLevelZero = 16000
	categoryLevelOne  = 16040
)

var listIDPattern = regexp.MustCompile(`-(\d+)(?:\?|$)`)

// Option é uma modalidade de entrega cotada
type Option struct {
	Name  string  // "Padrão" ou "Expressa"
	Price float64 // em reais
	Days  int     // prazo estimado em dias úteis
}

// Quote é o resultado da cotação de um anúncio
type Quote struct {
	Options []Option
}

// Cheapest retorna a opção mais barata (nil se nenhuma disponível)
func (q *Quote) Cheapest() *Option {
	var best *Option
	for i := range q.Options {
		if best == nil || q.Options[i].Price < best.Price {
			best = &q.Options[i]
		}
	}
	return best
}

// Client consulta cotações de frete
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient cria o cliente de cotação
func NewClient() *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: quoteURL,
	}
}

// ListIDFromURL extrai o identificador numérico do anúncio da sua URL
func ListIDFromURL(adURL string) (int64, error) {
	m := listIDPattern.FindStringSubmatch(adURL)
	if m == nil {
		return 0, fmt.Errorf("URL sem identificador de anúncio: %s", adURL)
	}
	return strconv.ParseInt(m[1], 10, 64)
}

type quoteRequest struct {
	ZipCode                 string  `json:"zipCode"`
	ListID                  int64   `json:"listId"`
	SearchCategoryLevelZero int     `json:"searchCategoryLevelZero"`
	SearchCategoryLevelOne  int     `json:"searchCategoryLevelOne"`
	Weight                  float64 `json:"weight"`
}

type quoteResponse struct {
	Options []struct {
		Name          string `json:"name"`
		Price         int64  `json:"price"` // em centavos
		EstimatedDays int    `json:"estimatedDays"`
	} `json:"options"`
}

// GetQuote cota o frete do anúncio para o CEP de destino (já sanitizado,
// 8 dígitos)
func (c *Client) GetQuote(ctx context.Context, adURL, zipcode string) (*Quote, error) {
	listID, err := ListIDFromURL(adURL)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(quoteRequest{
		ZipCode:                 zipcode,
		ListID:                  listID,
		SearchCategoryLevelZero: categoryLevelZero,
		SearchCategoryLevelOne:  categoryLevelOne,
		Weight:                  1.0,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cotação de frete retornou status %d", resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("resposta de cotação inválida: %w", err)
	}

	quote := &Quote{}
	for _, opt := range body.Options {
		// retirada em mãos não é frete
		if opt.Name == "Retirar" {
			continue
		}
		quote.Options = append(quote.Options, Option{
			Name:  opt.Name,
			Price: float64(opt.Price) / 100,
			Days:  opt.EstimatedDays,
		})
	}
	return quote, nil
}
