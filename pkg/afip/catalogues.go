// Package afip contiene catálogos y validaciones alineados a los web services
// de facturación electrónica de AFIP/ARCA (Argentina): WSFEv1 y WSAA.
package afip

import "github.com/shopspring/decimal"

// =============================================================================
// Tipos de documento del receptor (tabla FEParamGetTiposDoc del WSFEv1).
// Solo se listan los de uso corriente en facturación.
// =============================================================================

const (
	DocTypeCUIT            = 80 // CUIT - Clave Única de Identificación Tributaria
	DocTypeCUIL            = 86 // CUIL - Clave Única de Identificación Laboral
	DocTypeDNI             = 96 // DNI - Documento Nacional de Identidad
	DocTypeConsumidorFinal = 99 // Consumidor final sin identificar (genérico)
)

// DocNumberConsumidorFinal es el número de documento centinela que AFIP acepta
// para el consumidor final genérico (tipo 99).
const DocNumberConsumidorFinal = "00000000"

// CUITLength cantidad de dígitos de un CUIT/CUIL.
const CUITLength = 11

// ValidDocTypes tipos de documento aceptados en una solicitud de CAE.
var ValidDocTypes = map[int]bool{
	DocTypeCUIT: true, DocTypeCUIL: true, DocTypeDNI: true, DocTypeConsumidorFinal: true,
}

// =============================================================================
// Tipos de comprobante (tabla FEParamGetTiposCbte). 1/6/11 son las facturas
// A/B/C; el resto son notas de crédito y débito asociadas.
// =============================================================================

const (
	CbteTipoFacturaA = 1
	CbteTipoFacturaB = 6
	CbteTipoFacturaC = 11

	CbteTipoNotaDebitoA  = 2
	CbteTipoNotaCreditoA = 3
	CbteTipoNotaDebitoB  = 7
	CbteTipoNotaCreditoB = 8
	CbteTipoNotaDebitoC  = 12
	CbteTipoNotaCreditoC = 13
)

// ValidCbteTipos tipos de comprobante emitibles por este servicio.
var ValidCbteTipos = map[int]bool{
	CbteTipoFacturaA: true, CbteTipoFacturaB: true, CbteTipoFacturaC: true,
	CbteTipoNotaDebitoA: true, CbteTipoNotaCreditoA: true,
	CbteTipoNotaDebitoB: true, CbteTipoNotaCreditoB: true,
	CbteTipoNotaDebitoC: true, CbteTipoNotaCreditoC: true,
}

// =============================================================================
// Conceptos (FEParamGetTiposConcepto).
// =============================================================================

const (
	ConceptoProductos           = 1
	ConceptoServicios           = 2
	ConceptoProductosYServicios = 3
)

// =============================================================================
// Alícuotas de IVA (tabla FEParamGetTiposIva). El WSFEv1 identifica cada
// alícuota por un Id numérico, no por el porcentaje.
// =============================================================================

const (
	AlicuotaID0   = 3 // 0%
	AlicuotaID105 = 4 // 10.5%
	AlicuotaID21  = 5 // 21%
	AlicuotaID27  = 6 // 27%
)

// Alícuotas expresadas como porcentaje decimal.
var (
	Rate0   = decimal.Zero
	Rate105 = decimal.NewFromFloat(10.5)
	Rate21  = decimal.NewFromInt(21)
	Rate27  = decimal.NewFromInt(27)
)

// ValidTaxRates conjunto cerrado de alícuotas admitidas por línea de factura
// (en porcentaje). La clave es la representación canónica de String().
var ValidTaxRates = map[string]bool{
	Rate0.String(): true, Rate105.String(): true, Rate21.String(): true, Rate27.String(): true,
}

// IsValidTaxRate indica si la alícuota (porcentaje) pertenece al conjunto admitido.
func IsValidTaxRate(rate decimal.Decimal) bool {
	return ValidTaxRates[rate.String()]
}

// AlicuotaID devuelve el Id de alícuota WSFEv1 para un porcentaje dado.
// ok es false si el porcentaje no corresponde a ninguna alícuota vigente.
func AlicuotaID(rate decimal.Decimal) (id int, ok bool) {
	switch {
	case rate.Equal(Rate0):
		return AlicuotaID0, true
	case rate.Equal(Rate105):
		return AlicuotaID105, true
	case rate.Equal(Rate21):
		return AlicuotaID21, true
	case rate.Equal(Rate27):
		return AlicuotaID27, true
	}
	return 0, false
}

// =============================================================================
// Condición frente al IVA del receptor.
// =============================================================================

const (
	CondicionConsumidorFinal      = "CONSUMIDOR_FINAL"
	CondicionResponsableInscripto = "RESPONSABLE_INSCRIPTO"
	CondicionMonotributo          = "MONOTRIBUTO"
	CondicionExento               = "EXENTO"
)

// ValidFiscalConditions condiciones de IVA aceptadas para el receptor.
var ValidFiscalConditions = map[string]bool{
	CondicionConsumidorFinal:      true,
	CondicionResponsableInscripto: true,
	CondicionMonotributo:          true,
	CondicionExento:               true,
}

// =============================================================================
// Moneda. El servicio emite únicamente en pesos.
// =============================================================================

const (
	MonedaPesos      = "PES"
	MonedaCotizacion = "1.000000"
)

// =============================================================================
// Entornos. Determinan los endpoints WSAA/WSFEv1 y el juego de numeración.
// =============================================================================

const (
	EnvTest       = "test"       // homologación
	EnvProduction = "production" // producción
)

// IsValidEnvironment valida el flag de entorno de un punto de venta.
func IsValidEnvironment(env string) bool {
	return env == EnvTest || env == EnvProduction
}
