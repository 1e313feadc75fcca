package entity

import "time"

// CustomerDetail son los datos del receptor tal como viajan en la solicitud de
// autorización y quedan congelados en la factura.
type CustomerDetail struct {
	Name            string
	DocType         int    // 80=CUIT, 86=CUIL, 96=DNI, 99=consumidor final; 0 = clasificar
	DocNumber       string // solo dígitos
	FiscalCondition string // CONSUMIDOR_FINAL | RESPONSABLE_INSCRIPTO | MONOTRIBUTO | EXENTO
	Address         string
	Email           string
}

// Customer es un receptor recurrente del padrón propio, identificado por su
// número de documento. La factura guarda siempre un snapshot del detalle, no
// una referencia viva.
type Customer struct {
	ID              string
	Name            string
	DocType         int
	DocNumber       string
	FiscalCondition string
	Address         string
	Email           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Detail devuelve el snapshot facturable del cliente.
func (c *Customer) Detail() CustomerDetail {
	return CustomerDetail{
		Name:            c.Name,
		DocType:         c.DocType,
		DocNumber:       c.DocNumber,
		FiscalCondition: c.FiscalCondition,
		Address:         c.Address,
		Email:           c.Email,
	}
}
