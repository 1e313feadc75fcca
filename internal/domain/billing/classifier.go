// Package billing contiene la lógica fiscal pura del comprobante: clasificación
// del documento del receptor y cálculo de totales con desglose de IVA. No
// depende de transporte ni de persistencia.
package billing

import (
	"fmt"
	"strings"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/pkg/afip"
)

// ClassifyDocType determina el tipo de documento AFIP del receptor.
//
// Si el detalle ya trae un tipo explícito y válido, se respeta tal cual.
// Si no, se infiere:
//
//	consumidor final con documento "00000000" (o vacío) → 99 (sin identificar)
//	consumidor final con documento de menos de 11 dígitos → 96 (DNI)
//	cualquier otro caso → 80 (CUIT), validando dígito verificador
//
// La clasificación es idempotente: aplicarla sobre un detalle ya clasificado
// devuelve el mismo resultado.
func ClassifyDocType(c entity.CustomerDetail) (int, error) {
	doc := strings.TrimSpace(c.DocNumber)

	if c.DocType != 0 {
		if !afip.ValidDocTypes[c.DocType] {
			return 0, fmt.Errorf("tipo de documento %d no reconocido", c.DocType)
		}
		if c.DocType == afip.DocTypeCUIT {
			if err := afip.ValidateCUIT(doc); err != nil {
				return 0, err
			}
		}
		return c.DocType, nil
	}

	if c.FiscalCondition == afip.CondicionConsumidorFinal {
		if doc == "" || doc == afip.DocNumberConsumidorFinal {
			return afip.DocTypeConsumidorFinal, nil
		}
		if len(doc) < afip.CUITLength {
			return afip.DocTypeDNI, nil
		}
	}

	if err := afip.ValidateCUIT(doc); err != nil {
		return 0, err
	}
	return afip.DocTypeCUIT, nil
}
