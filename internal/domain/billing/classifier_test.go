package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/pkg/afip"
)

func TestClassifyDocType_ConsumidorFinalSinIdentificar(t *testing.T) {
	cases := []entity.CustomerDetail{
		{FiscalCondition: afip.CondicionConsumidorFinal, DocNumber: "00000000"},
		{FiscalCondition: afip.CondicionConsumidorFinal, DocNumber: ""},
		{FiscalCondition: afip.CondicionConsumidorFinal, DocNumber: "  00000000  "},
	}
	for _, c := range cases {
		got, err := ClassifyDocType(c)
		require.NoError(t, err)
		assert.Equal(t, afip.DocTypeConsumidorFinal, got,
			"documento %q debe clasificar como consumidor final sin identificar", c.DocNumber)
	}
}

func TestClassifyDocType_DNI(t *testing.T) {
	got, err := ClassifyDocType(entity.CustomerDetail{
		FiscalCondition: afip.CondicionConsumidorFinal,
		DocNumber:       "12345678",
	})
	require.NoError(t, err)
	assert.Equal(t, afip.DocTypeDNI, got, "documento de 8 dígitos de consumidor final debe ser DNI")
}

func TestClassifyDocType_CUIT(t *testing.T) {
	got, err := ClassifyDocType(entity.CustomerDetail{
		FiscalCondition: afip.CondicionResponsableInscripto,
		DocNumber:       "20123456786",
	})
	require.NoError(t, err)
	assert.Equal(t, afip.DocTypeCUIT, got)
}

func TestClassifyDocType_CUITInvalido(t *testing.T) {
	_, err := ClassifyDocType(entity.CustomerDetail{
		FiscalCondition: afip.CondicionResponsableInscripto,
		DocNumber:       "20123456789", // dígito verificador incorrecto
	})
	assert.Error(t, err, "un CUIT con dígito verificador incorrecto debe rechazarse")
}

func TestClassifyDocType_ExplicitoGana(t *testing.T) {
	// El tipo explícito se respeta aunque la heurística hubiera dicho otra cosa.
	got, err := ClassifyDocType(entity.CustomerDetail{
		FiscalCondition: afip.CondicionConsumidorFinal,
		DocType:         afip.DocTypeDNI,
		DocNumber:       "00000000",
	})
	require.NoError(t, err)
	assert.Equal(t, afip.DocTypeDNI, got)
}

func TestClassifyDocType_ExplicitoInvalido(t *testing.T) {
	_, err := ClassifyDocType(entity.CustomerDetail{DocType: 42, DocNumber: "12345678"})
	assert.Error(t, err)
}

func TestClassifyDocType_Idempotente(t *testing.T) {
	c := entity.CustomerDetail{
		FiscalCondition: afip.CondicionConsumidorFinal,
		DocNumber:       "30500500",
	}
	first, err := ClassifyDocType(c)
	require.NoError(t, err)

	c.DocType = first
	second, err := ClassifyDocType(c)
	require.NoError(t, err)
	assert.Equal(t, first, second, "clasificar dos veces debe dar el mismo resultado")
}
