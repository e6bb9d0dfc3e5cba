// Package validators valida e sanitiza entradas vindas dos comandos do bot
// antes de chegarem ao banco ou ao site.
package validators

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"monitor-olx/internal/models"
)

// ValidationError indica entrada rejeitada; a mensagem pode ser mostrada
// direto ao usuário
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

var (
	cepPattern     = regexp.MustCompile(`^\d{8}$`)
	olxHostPattern = regexp.MustCompile(`^(?:[a-z]{2}\.)?olx\.com\.br$`)
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateOlxURL garante que a URL aponta para o site suportado (domínio
// principal ou subdomínio estadual, sempre https)
func ValidateOlxURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return &ValidationError{Msg: "URL inválida"}
	}
	if u.Scheme != "https" {
		return &ValidationError{Msg: "A URL deve usar https"}
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if !olxHostPattern.MatchString(host) {
		return &ValidationError{Msg: "A URL deve ser do site olx.com.br"}
	}
	return nil
}

// SanitizeCEP remove a formatação de um CEP ("01310-100" -> "01310100")
func SanitizeCEP(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateZipcode valida um CEP já sanitizado (8 dígitos)
func ValidateZipcode(cep string) error {
	if !cepPattern.MatchString(cep) {
		return &ValidationError{Msg: "CEP inválido: informe 8 dígitos"}
	}
	return nil
}

// ValidateSearchName valida o nome de uma busca (1 a 100 caracteres após
// sanitização)
func ValidateSearchName(name string) (string, error) {
	clean := SanitizeText(name)
	if clean == "" {
		return "", &ValidationError{Msg: "O nome da busca não pode ser vazio"}
	}
	if len([]rune(clean)) > 100 {
		return "", &ValidationError{Msg: "O nome da busca deve ter no máximo 100 caracteres"}
	}
	return clean, nil
}

// SanitizeText remove caracteres de controle e espaços nas bordas
func SanitizeText(raw string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(raw, ""))
}

// ValidatePriceAlert valida o preço alvo de um alerta, aceitando o formato
// brasileiro ("1.500,00") e retornando o valor numérico
func ValidatePriceAlert(raw string) (float64, error) {
	v, ok := models.ParsePrice(strings.TrimSpace(raw))
	if !ok {
		return 0, &ValidationError{Msg: "Preço inválido: use o formato 1.500,00"}
	}
	if v <= 0 {
		return 0, &ValidationError{Msg: "O preço alvo deve ser maior que zero"}
	}
	if v > 10_000_000 {
		return 0, &ValidationError{Msg: fmt.Sprintf("Preço alvo alto demais: R$ %.2f", v)}
	}
	return v, nil
}
