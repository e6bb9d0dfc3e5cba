package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOlxURL(t *testing.T) {
	assert.NoError(t, ValidateOlxURL("https://www.olx.com.br/hobbies-e-colecoes"))
	assert.NoError(t, ValidateOlxURL("https://olx.com.br/hobbies-e-colecoes"))
	assert.NoError(t, ValidateOlxURL("https://pr.olx.com.br/regiao-de-curitiba"))

	assert.Error(t, ValidateOlxURL("http://www.olx.com.br/hobbies"))
	assert.Error(t, ValidateOlxURL("https://mercadolivre.com.br/produto"))
	assert.Error(t, ValidateOlxURL("https://olx.com.br.falso.com/x"))
	assert.Error(t, ValidateOlxURL("não é url"))
}

func TestSanitizeCEP(t *testing.T) {
	assert.Equal(t, "01310100", SanitizeCEP("01310-100"))
	assert.Equal(t, "01310100", SanitizeCEP("01310100"))
	assert.Equal(t, "01310100", SanitizeCEP(" 01.310-100 "))
}

func TestValidateZipcode(t *testing.T) {
	assert.NoError(t, ValidateZipcode("01310100"))
	assert.Error(t, ValidateZipcode("0131010"))
	assert.Error(t, ValidateZipcode("01310-100"))
	assert.Error(t, ValidateZipcode(""))
}

func TestValidateSearchName(t *testing.T) {
	name, err := ValidateSearchName("  Consoles usados  ")
	require.NoError(t, err)
	assert.Equal(t, "Consoles usados", name)

	_, err = ValidateSearchName("   ")
	assert.Error(t, err)

	_, err = ValidateSearchName(strings.Repeat("a", 101))
	assert.Error(t, err)

	name, err = ValidateSearchName(strings.Repeat("a", 100))
	require.NoError(t, err)
	assert.Len(t, name, 100)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "nintendo switch", SanitizeText("  nintendo\x00 switch\n"))
	assert.Equal(t, "", SanitizeText("\x00\x1f"))
}

func TestValidatePriceAlert(t *testing.T) {
	v, err := ValidatePriceAlert("1.500,00")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, v)

	v, err = ValidatePriceAlert("80")
	require.NoError(t, err)
	assert.Equal(t, 80.0, v)

	_, err = ValidatePriceAlert("abc")
	assert.Error(t, err)

	_, err = ValidatePriceAlert("0")
	assert.Error(t, err)

	_, err = ValidatePriceAlert("99.000.000,00")
	assert.Error(t, err)
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidateZipcode("123")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "CEP")
}
