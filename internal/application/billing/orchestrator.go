package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	domainbilling "github.com/jorgeomarnegrete/fact-arca/internal/domain/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/repository"
	"github.com/jorgeomarnegrete/fact-arca/pkg/logger"
)

// retryDelays son las esperas entre reintentos ante falla de transporte.
// Backoff fijo y acotado: la solicitud reenviada es bit a bit la misma.
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Orchestrator coordina el ciclo completo de autorización de un comprobante:
//
//	armar borrador → persistir → serializar por (PtoVta, CbteTipo) →
//	consultar último autorizado → numerar → solicitar CAE (con reintentos) →
//	persistir desenlace
//
// Reglas de numeración que este flujo garantiza:
//   - AFIP es la autoridad: el número se toma siempre de FECompUltimoAutorizado
//     + 1, nunca de un contador local. El caché solo sirve para detectar y
//     loguear desvíos.
//   - Un número consumido jamás se reutiliza localmente: también un rechazo
//     con número asignado avanza el caché de la serie.
//   - Una falla de transporte nunca se interpreta como rechazo: la factura
//     queda en submitted y solo la conciliación la resuelve.
type Orchestrator struct {
	posRepo     repository.PointOfSaleRepository
	invoiceRepo repository.InvoiceRepository
	builder     *Builder
	authorizer  Authorizer
	seq         *sequenceCache
	log         *logger.Logger

	defaultCbteTipo int
	maxAttempts     int
}

// NewOrchestrator construye el orquestador. maxAttempts es la cantidad total
// de intentos de envío ante fallas de transporte (mínimo 1).
func NewOrchestrator(
	posRepo repository.PointOfSaleRepository,
	invoiceRepo repository.InvoiceRepository,
	builder *Builder,
	authorizer Authorizer,
	log *logger.Logger,
	defaultCbteTipo int,
	maxAttempts int,
) *Orchestrator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Orchestrator{
		posRepo:         posRepo,
		invoiceRepo:     invoiceRepo,
		builder:         builder,
		authorizer:      authorizer,
		seq:             newSequenceCache(),
		log:             log,
		defaultCbteTipo: defaultCbteTipo,
		maxAttempts:     maxAttempts,
	}
}

// CreateAndAuthorize arma la factura, la numera y solicita el CAE a AFIP.
// Si AFIP rechaza, la factura queda rejected y NO es error de esta llamada.
// Si el transporte falla tras agotar reintentos, la factura queda submitted
// y se devuelve un error que envuelve domain.ErrTransport.
func (o *Orchestrator) CreateAndAuthorize(ctx context.Context, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	// ═══════════════════════════════════════════════════════════════════════
	// 1. Punto de venta y credenciales (fast-fail antes de numerar nada)
	// ═══════════════════════════════════════════════════════════════════════
	pos, err := o.posRepo.GetByID(in.PointOfSaleID)
	if err != nil {
		return nil, err
	}
	if !pos.HasCredentials() {
		return nil, fmt.Errorf("%w: punto de venta %d sin certificado cargado", domain.ErrCredential, pos.Number)
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 2. Borrador persistido (aún sin número)
	// ═══════════════════════════════════════════════════════════════════════
	inv, vat, err := o.builder.Build(in, o.defaultCbteTipo)
	if err != nil {
		return nil, err
	}
	if err := o.invoiceRepo.Create(inv); err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 3. Serialización por serie: una sola autorización en vuelo por
	//    (punto de venta, tipo de comprobante)
	// ═══════════════════════════════════════════════════════════════════════
	mu := o.seq.lock(pos.ID, inv.CbteTipo)
	mu.Lock()
	defer mu.Unlock()

	// Un comprobante en submitted retiene su número provisorio y AFIP todavía
	// no lo refleja en FECompUltimoAutorizado: numerar otro sobre la misma
	// serie duplicaría ese número. Hasta conciliar, la serie queda bloqueada.
	if err := o.ensureNoPending(pos, inv.CbteTipo); err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 4. Numeración: AFIP manda. El caché solo detecta desvíos.
	// ═══════════════════════════════════════════════════════════════════════
	last, err := o.authorizer.LastAuthorized(ctx, pos, inv.CbteTipo)
	if err != nil {
		// El borrador queda en draft: no se consumió ningún número.
		return nil, err
	}
	if cached, ok := o.seq.get(pos.ID, inv.CbteTipo); ok && cached != last {
		o.log.Warn().
			Str("pos_id", pos.ID).
			Int("cbte_tipo", inv.CbteTipo).
			Int64("cached", cached).
			Int64("authority", last).
			Msg("numeración local desviada de AFIP; se adopta el valor de AFIP")
	}

	inv.Number = last + 1
	inv.Status = entity.InvoiceStatusSubmitted
	inv.UpdatedAt = time.Now()
	if err := o.invoiceRepo.UpdateStatus(inv); err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 5. Solicitud de CAE con reintentos acotados (mismo número siempre)
	// ═══════════════════════════════════════════════════════════════════════
	outcome, err := o.authorizeWithRetry(ctx, pos, inv, vat)
	if err != nil {
		// Resultado desconocido: queda submitted hasta conciliar.
		o.log.Error().
			Str("invoice_id", inv.ID).
			Int64("number", inv.Number).
			Err(err).
			Msg("transporte agotado, factura queda pendiente de conciliación")
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 6. Desenlace definitivo
	// ═══════════════════════════════════════════════════════════════════════
	o.applyOutcome(inv, pos, outcome)
	if err := o.invoiceRepo.UpdateStatus(inv); err != nil {
		return nil, err
	}

	resp := toInvoiceResponse(inv, pos.Number)
	return &resp, nil
}

// ensureNoPending rechaza la emisión si la serie tiene comprobantes en
// submitted: su número provisorio sigue reservado hasta que la conciliación
// lo confirme o lo libere.
func (o *Orchestrator) ensureNoPending(pos *entity.PointOfSale, cbteTipo int) error {
	pending, err := o.invoiceRepo.ListSubmitted(pos.ID)
	if err != nil {
		return err
	}
	for _, p := range pending {
		if p.CbteTipo == cbteTipo {
			return fmt.Errorf("%w: el comprobante %d de la serie (%d, %d) está pendiente de conciliación",
				domain.ErrConflict, p.Number, pos.Number, cbteTipo)
		}
	}
	return nil
}

// authorizeWithRetry reenvía la misma solicitud ante fallas de transporte,
// hasta maxAttempts intentos, respetando la cancelación del contexto. Un
// error que no sea de transporte corta de inmediato.
func (o *Orchestrator) authorizeWithRetry(ctx context.Context, pos *entity.PointOfSale, inv *entity.Invoice, vat []domainbilling.VATGroup) (*entity.AuthorizationOutcome, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		outcome, err := o.authorizer.Authorize(ctx, pos, inv, vat)
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, domain.ErrTransport) {
			return nil, err
		}
		lastErr = err

		if attempt == o.maxAttempts {
			break
		}
		delay := retryDelays[len(retryDelays)-1]
		if attempt-1 < len(retryDelays) {
			delay = retryDelays[attempt-1]
		}
		o.log.Warn().
			Str("invoice_id", inv.ID).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("falla de transporte con AFIP, reintentando")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrTransport, ctx.Err())
		}
	}
	return nil, lastErr
}

// applyOutcome vuelca la decisión de AFIP sobre la factura y avanza el caché
// de la serie. El rechazo también consume el número: no se reutiliza.
func (o *Orchestrator) applyOutcome(inv *entity.Invoice, pos *entity.PointOfSale, out *entity.AuthorizationOutcome) {
	inv.UpdatedAt = time.Now()
	if out.Authorized {
		inv.Status = entity.InvoiceStatusAuthorized
		inv.CAE = out.CAE
		inv.CAEExpiry = out.CAEExpiry
		inv.Observations = out.Observations
		o.seq.set(pos.ID, inv.CbteTipo, inv.Number)
		o.log.Info().
			Str("invoice_id", inv.ID).
			Str("cae", out.CAE).
			Str("number", inv.FormattedNumber(pos.Number)).
			Msg("comprobante autorizado")
		return
	}

	inv.Status = entity.InvoiceStatusRejected
	inv.Observations = out.Observations
	o.seq.set(pos.ID, inv.CbteTipo, inv.Number)
	o.log.Warn().
		Str("invoice_id", inv.ID).
		Int64("number", inv.Number).
		Str("observations", out.Observations).
		Msg("comprobante rechazado por AFIP")
}

// Reconcile resuelve las facturas en submitted de un punto de venta
// consultando a AFIP comprobante por comprobante. Si AFIP nunca registró el
// número, la factura vuelve a borrador y libera su número provisorio.
func (o *Orchestrator) Reconcile(ctx context.Context, posID string) (*dto.ReconcileResponse, error) {
	pos, err := o.posRepo.GetByID(posID)
	if err != nil {
		return nil, err
	}
	if !pos.HasCredentials() {
		return nil, fmt.Errorf("%w: punto de venta %d sin certificado cargado", domain.ErrCredential, pos.Number)
	}

	pending, err := o.invoiceRepo.ListSubmitted(posID)
	if err != nil {
		return nil, err
	}

	res := &dto.ReconcileResponse{Examined: len(pending)}
	for _, inv := range pending {
		mu := o.seq.lock(pos.ID, inv.CbteTipo)
		mu.Lock()

		outcome, qErr := o.authorizer.Query(ctx, pos, inv.CbteTipo, inv.Number)
		switch {
		case errors.Is(qErr, domain.ErrNotFound):
			// AFIP nunca vio el comprobante: el envío no llegó. Vuelve a
			// borrador y el número provisorio se descarta.
			inv.Number = 0
			inv.Status = entity.InvoiceStatusDraft
			inv.UpdatedAt = time.Now()
			if uErr := o.invoiceRepo.UpdateStatus(inv); uErr == nil {
				res.Reverted++
			} else {
				res.Pending++
			}
		case qErr != nil:
			res.Pending++
		case outcome.Authorized:
			o.applyOutcome(inv, pos, outcome)
			if uErr := o.invoiceRepo.UpdateStatus(inv); uErr == nil {
				res.Authorized++
			} else {
				res.Pending++
			}
		default:
			o.applyOutcome(inv, pos, outcome)
			if uErr := o.invoiceRepo.UpdateStatus(inv); uErr == nil {
				res.Rejected++
			} else {
				res.Pending++
			}
		}
		mu.Unlock()
	}
	return res, nil
}

// Get devuelve una factura por ID.
func (o *Orchestrator) Get(id string) (*dto.InvoiceResponse, error) {
	inv, err := o.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	pos, err := o.posRepo.GetByID(inv.PointOfSaleID)
	if err != nil {
		return nil, err
	}
	resp := toInvoiceResponse(inv, pos.Number)
	return &resp, nil
}

// List devuelve las facturas de un punto de venta, más recientes primero.
func (o *Orchestrator) List(posID string, limit, offset int) ([]dto.InvoiceResponse, error) {
	pos, err := o.posRepo.GetByID(posID)
	if err != nil {
		return nil, err
	}
	invs, err := o.invoiceRepo.ListByPointOfSale(posID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvoiceResponse(inv, pos.Number))
	}
	return out, nil
}

func toInvoiceResponse(inv *entity.Invoice, posNumber int) dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, dto.InvoiceItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Net:         it.Net,
			Tax:         it.Tax,
			Gross:       it.Gross,
		})
	}
	resp := dto.InvoiceResponse{
		ID:            inv.ID,
		PointOfSaleID: inv.PointOfSaleID,
		CbteTipo:      inv.CbteTipo,
		Number:        inv.Number,
		Status:        inv.Status,
		Customer: dto.CustomerDetailDTO{
			Name:            inv.Customer.Name,
			DocType:         inv.Customer.DocType,
			DocNumber:       inv.Customer.DocNumber,
			FiscalCondition: inv.Customer.FiscalCondition,
			Address:         inv.Customer.Address,
			Email:           inv.Customer.Email,
		},
		Items:        items,
		NetTotal:     inv.NetTotal,
		TaxTotal:     inv.TaxTotal,
		GrandTotal:   inv.GrandTotal,
		CAE:          inv.CAE,
		CAEExpiry:    inv.CAEExpiry,
		Observations: inv.Observations,
		IssuedAt:     inv.IssuedAt,
		CreatedAt:    inv.CreatedAt,
	}
	if inv.Number > 0 {
		resp.FormattedNumber = inv.FormattedNumber(posNumber)
	}
	return resp
}
