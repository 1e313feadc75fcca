package afip

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	domainbilling "github.com/jorgeomarnegrete/fact-arca/internal/domain/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	pkgafip "github.com/jorgeomarnegrete/fact-arca/pkg/afip"
)

// Client es el cliente SOAP de WSFEv1. Implementa billing.Authorizer.
type Client struct {
	httpClient *http.Client
	tickets    *TicketSource

	urlTest string
	urlProd string
}

// NewClient construye el cliente. El timeout aplica a cada llamada HTTP;
// WSFE puede tardar varios segundos bajo carga.
func NewClient(tickets *TicketSource, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tickets:    tickets,
		urlTest:    wsfeURLTest,
		urlProd:    wsfeURLProd,
	}
}

// LastAuthorized consulta FECompUltimoAutorizado. Devuelve 0 si el punto de
// venta todavía no emitió comprobantes de ese tipo.
func (c *Client) LastAuthorized(ctx context.Context, pos *entity.PointOfSale, cbteTipo int) (int64, error) {
	auth, err := c.auth(ctx, pos)
	if err != nil {
		return 0, err
	}

	body := &feCompUltimoAutorizadoBody{
		Xmlns:    wsfeNS,
		Auth:     auth,
		PtoVta:   pos.Number,
		CbteTipo: cbteTipo,
	}
	env, err := c.call(ctx, pos, "FECompUltimoAutorizado", body)
	if err != nil {
		return 0, err
	}
	if env.Body.Ultimo == nil {
		return 0, fmt.Errorf("%w: wsfe: respuesta inesperada a FECompUltimoAutorizado", domain.ErrTransport)
	}

	result := env.Body.Ultimo.Result
	if len(result.Errors.Err) > 0 {
		return 0, fmt.Errorf("wsfe: FECompUltimoAutorizado: %s", joinErrors(result.Errors))
	}
	return result.CbteNro, nil
}

// Authorize presenta la factura ya numerada vía FECAESolicitar. Un rechazo de
// AFIP se devuelve como outcome, nunca como error.
func (c *Client) Authorize(ctx context.Context, pos *entity.PointOfSale, inv *entity.Invoice, vat []domainbilling.VATGroup) (*entity.AuthorizationOutcome, error) {
	auth, err := c.auth(ctx, pos)
	if err != nil {
		return nil, err
	}

	det, err := buildDetRequest(inv, vat)
	if err != nil {
		return nil, err
	}
	body := &fecaeSolicitarBody{
		Xmlns: wsfeNS,
		Auth:  auth,
		FeCAEReq: feCAERequest{
			FeCabReq: feCabRequest{CantReg: 1, PtoVta: pos.Number, CbteTipo: inv.CbteTipo},
			FeDetReq: feDetRequest{Detalle: []feCAEDetRequest{det}},
		},
	}

	env, err := c.call(ctx, pos, "FECAESolicitar", body)
	if err != nil {
		return nil, err
	}
	if env.Body.Solicitar == nil {
		return nil, fmt.Errorf("%w: wsfe: respuesta inesperada a FECAESolicitar", domain.ErrTransport)
	}

	result := env.Body.Solicitar.Result
	if len(result.FeDetResp.Detalle) == 0 {
		// Errores a nivel servicio (token vencido, validación de cabecera):
		// AFIP no procesó el comprobante, se trata como rechazo informado.
		return &entity.AuthorizationOutcome{
			Authorized:   false,
			Number:       inv.Number,
			Observations: joinErrors(result.Errors),
		}, nil
	}

	det0 := result.FeDetResp.Detalle[0]
	obs := joinObservations(det0.Observaciones)
	if svcErrs := joinErrors(result.Errors); svcErrs != "" {
		if obs != "" {
			obs += "; "
		}
		obs += svcErrs
	}

	if strings.EqualFold(det0.Resultado, "A") {
		return &entity.AuthorizationOutcome{
			Authorized:   true,
			CAE:          det0.CAE,
			CAEExpiry:    det0.CAEFchVto,
			Number:       det0.CbteDesde,
			Observations: obs,
		}, nil
	}
	return &entity.AuthorizationOutcome{
		Authorized:   false,
		Number:       inv.Number,
		Observations: obs,
	}, nil
}

// Query consulta un comprobante puntual vía FECompConsultar. Devuelve
// domain.ErrNotFound si AFIP no lo tiene registrado.
func (c *Client) Query(ctx context.Context, pos *entity.PointOfSale, cbteTipo int, number int64) (*entity.AuthorizationOutcome, error) {
	auth, err := c.auth(ctx, pos)
	if err != nil {
		return nil, err
	}

	body := &feCompConsultarBody{
		Xmlns: wsfeNS,
		Auth:  auth,
		FeCompConsReq: feCompCons{
			CbteTipo: cbteTipo,
			CbteNro:  number,
			PtoVta:   pos.Number,
		},
	}
	env, err := c.call(ctx, pos, "FECompConsultar", body)
	if err != nil {
		return nil, err
	}
	if env.Body.Consultar == nil {
		return nil, fmt.Errorf("%w: wsfe: respuesta inesperada a FECompConsultar", domain.ErrTransport)
	}

	result := env.Body.Consultar.Result
	for _, e := range result.Errors.Err {
		if e.Code == wsfeErrNotFound {
			return nil, fmt.Errorf("%w: comprobante %d no registrado en AFIP", domain.ErrNotFound, number)
		}
	}
	if len(result.Errors.Err) > 0 {
		return nil, fmt.Errorf("wsfe: FECompConsultar: %s", joinErrors(result.Errors))
	}

	get := result.ResultGet
	return &entity.AuthorizationOutcome{
		Authorized:   strings.EqualFold(get.Resultado, "A"),
		CAE:          get.CodAutorizacion,
		CAEExpiry:    get.FchVto,
		Number:       get.CbteDesde,
		Observations: joinObservations(get.Observaciones),
	}, nil
}

// ── Plomería ───────────────────────────────────────────────────────────────

func (c *Client) auth(ctx context.Context, pos *entity.PointOfSale) (feAuth, error) {
	ticket, err := c.tickets.Ticket(ctx, pos)
	if err != nil {
		return feAuth{}, err
	}
	return feAuth{Token: ticket.Token, Sign: ticket.Sign, Cuit: pos.CUIT}, nil
}

// call serializa el body en un envelope SOAP 1.1, lo envía y decodifica la
// respuesta. Toda falla de red o respuesta ilegible es domain.ErrTransport.
func (c *Client) call(ctx context.Context, pos *entity.PointOfSale, operation string, content interface{}) (*wsfeResponseEnvelope, error) {
	envelope := soapEnvelope{
		XmlnsS: soapEnvNS,
		Body:   soapBody{Content: content},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("wsfe: serializar envelope: %w", err)
	}

	url := c.urlTest
	if isProduction(pos.Environment) {
		url = c.urlProd
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("wsfe: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", wsfeNS+operation)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: wsfe %s: %v", domain.ErrTransport, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: wsfe %s: HTTP %d", domain.ErrTransport, operation, resp.StatusCode)
	}

	var out wsfeResponseEnvelope
	if err := newXMLDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: wsfe %s: respuesta ilegible: %v", domain.ErrTransport, operation, err)
	}
	if out.Body.Fault != nil {
		return nil, fmt.Errorf("%w: wsfe %s: SOAP Fault [%s] %s",
			domain.ErrTransport, operation, out.Body.Fault.FaultCode, out.Body.Fault.FaultString)
	}
	return &out, nil
}

// buildDetRequest traduce la factura al detalle FECAEDetRequest. Los importes
// van con dos decimales y punto como separador.
func buildDetRequest(inv *entity.Invoice, vat []domainbilling.VATGroup) (feCAEDetRequest, error) {
	docNro, err := parseDocNumber(inv.Customer.DocNumber)
	if err != nil {
		return feCAEDetRequest{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	det := feCAEDetRequest{
		Concepto:   inv.Concepto,
		DocTipo:    inv.Customer.DocType,
		DocNro:     docNro,
		CbteDesde:  inv.Number,
		CbteHasta:  inv.Number,
		CbteFch:    inv.IssuedAt.Format("20060102"),
		ImpTotal:   inv.GrandTotal.StringFixed(2),
		ImpTotConc: "0.00",
		ImpNeto:    inv.NetTotal.StringFixed(2),
		ImpOpEx:    "0.00",
		ImpTrib:    "0.00",
		ImpIVA:     inv.TaxTotal.StringFixed(2),
		MonId:      pkgafip.MonedaPesos,
		MonCotiz:   pkgafip.MonedaCotizacion,
	}
	for _, g := range vat {
		det.Iva.AlicIva = append(det.Iva.AlicIva, feAlicIva{
			Id:      g.AlicuotaID,
			BaseImp: g.Net.StringFixed(2),
			Importe: g.Tax.StringFixed(2),
		})
	}
	return det, nil
}

// parseDocNumber convierte el documento a numérico como lo exige DocNro.
// El consumidor final sin identificar viaja como 0.
func parseDocNumber(doc string) (int64, error) {
	doc = strings.TrimSpace(doc)
	if doc == "" || doc == pkgafip.DocNumberConsumidorFinal {
		return 0, nil
	}
	n, err := strconv.ParseInt(doc, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("número de documento %q no es numérico", doc)
	}
	return n, nil
}

func joinErrors(list feErrorList) string {
	parts := make([]string, 0, len(list.Err))
	for _, e := range list.Err {
		parts = append(parts, fmt.Sprintf("%d: %s", e.Code, e.Msg))
	}
	return strings.Join(parts, "; ")
}

func joinObservations(list feObsList) string {
	parts := make([]string, 0, len(list.Obs))
	for _, o := range list.Obs {
		parts = append(parts, fmt.Sprintf("%d: %s", o.Code, o.Msg))
	}
	return strings.Join(parts, "; ")
}
