// Package dto define los contratos de entrada/salida de la API HTTP.
package dto

// ErrorResponse es el cuerpo uniforme de error de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListMeta acompaña las respuestas paginadas.
type ListMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}
