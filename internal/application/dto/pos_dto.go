package dto

import "time"

// RegisterPointOfSaleRequest alta de punto de venta. El certificado y la clave
// llegan como archivos multipart, no en este cuerpo.
type RegisterPointOfSaleRequest struct {
	Number      int    `json:"number" form:"number"`
	CUIT        string `json:"cuit" form:"cuit"`
	Name        string `json:"name" form:"name"`
	Environment string `json:"environment" form:"environment"` // test | production
}

// PointOfSaleResponse representación pública del punto de venta. El material
// criptográfico jamás se expone; solo se indica si está cargado.
type PointOfSaleResponse struct {
	ID             string    `json:"id"`
	Number         int       `json:"number"`
	CUIT           string    `json:"cuit"`
	Name           string    `json:"name"`
	Environment    string    `json:"environment"`
	HasCredentials bool      `json:"has_credentials"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProbeResponse resultado de la prueba de conectividad contra AFIP.
type ProbeResponse struct {
	OK             bool   `json:"ok"`
	LastAuthorized int64  `json:"last_authorized"`
	CbteTipo       int    `json:"cbte_tipo"`
	Detail         string `json:"detail,omitempty"`
}
