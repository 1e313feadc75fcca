package entity

import "time"

// PointOfSale representa un punto de venta fiscal habilitado por AFIP,
// ligado a la identidad digital (certificado X.509 + clave privada) con la que
// se firma el acceso a los web services. Único por (Number, CUIT).
//
// Por requisito de auditoría fiscal nunca se elimina; las credenciales se
// reemplazan de forma completa, no parcial.
type PointOfSale struct {
	ID          string
	Number      int    // número de punto de venta asignado por AFIP
	CUIT        string // CUIT del emisor (11 dígitos)
	Name        string // nombre descriptivo, opcional
	Environment string // "test" (homologación) | "production"
	Certificate []byte // certificado X.509, blob opaco (PEM o PKCS#12)
	PrivateKey  []byte // clave privada, blob opaco (PEM; vacío si el certificado es .p12)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasCredentials indica si el punto de venta tiene material de identidad
// cargado. No valida que sea parseable: eso ocurre recién al primer uso.
func (p *PointOfSale) HasCredentials() bool {
	return len(p.Certificate) > 0
}
