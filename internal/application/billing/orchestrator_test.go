package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	domainbilling "github.com/jorgeomarnegrete/fact-arca/internal/domain/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/pkg/logger"
)

// ─── Fakes en memoria ───────────────────────────────────────────────────────

type fakePosRepo struct {
	byID map[string]*entity.PointOfSale
}

func (f *fakePosRepo) Create(pos *entity.PointOfSale) error { f.byID[pos.ID] = pos; return nil }
func (f *fakePosRepo) GetByID(id string) (*entity.PointOfSale, error) {
	pos, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return pos, nil
}
func (f *fakePosRepo) GetByNumberAndCUIT(number int, cuit string) (*entity.PointOfSale, error) {
	return nil, domain.ErrNotFound
}
func (f *fakePosRepo) List(limit, offset int) ([]*entity.PointOfSale, error) { return nil, nil }
func (f *fakePosRepo) UpdateCredentials(pos *entity.PointOfSale) error       { return nil }

type fakeInvoiceRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{byID: make(map[string]*entity.Invoice)}
}

func (f *fakeInvoiceRepo) Create(inv *entity.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}
func (f *fakeInvoiceRepo) UpdateStatus(inv *entity.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}
func (f *fakeInvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}
func (f *fakeInvoiceRepo) ListByPointOfSale(posID string, limit, offset int) ([]*entity.Invoice, error) {
	return nil, nil
}
func (f *fakeInvoiceRepo) ListSubmitted(posID string) ([]*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range f.byID {
		if inv.PointOfSaleID == posID && inv.Status == entity.InvoiceStatusSubmitted {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeAuthorizer emula a AFIP: mantiene el último número autorizado por serie
// y permite inyectar fallas de transporte o rechazos por intento.
type fakeAuthorizer struct {
	mu   sync.Mutex
	last map[int]int64 // por cbteTipo

	// failures: cantidad de fallas de transporte a inyectar en Authorize.
	failures int
	// reject: los próximos Authorize devuelven rechazo en vez de CAE.
	reject bool

	authorizeCalls []int64 // números recibidos en cada intento
	queryOutcomes  map[int64]*entity.AuthorizationOutcome
	queryErr       error
}

func newFakeAuthorizer() *fakeAuthorizer {
	return &fakeAuthorizer{
		last:          make(map[int]int64),
		queryOutcomes: make(map[int64]*entity.AuthorizationOutcome),
	}
}

func (f *fakeAuthorizer) LastAuthorized(ctx context.Context, pos *entity.PointOfSale, cbteTipo int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[cbteTipo], nil
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, pos *entity.PointOfSale, inv *entity.Invoice, vat []domainbilling.VATGroup) (*entity.AuthorizationOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorizeCalls = append(f.authorizeCalls, inv.Number)
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("%w: connection refused", domain.ErrTransport)
	}
	if f.reject {
		return &entity.AuthorizationOutcome{
			Authorized:   false,
			Number:       inv.Number,
			Observations: "10016: campo CbteFch inválido",
		}, nil
	}
	f.last[inv.CbteTipo] = inv.Number
	return &entity.AuthorizationOutcome{
		Authorized: true,
		CAE:        fmt.Sprintf("712345678%05d", inv.Number),
		CAEExpiry:  "20260915",
		Number:     inv.Number,
	}, nil
}

func (f *fakeAuthorizer) Query(ctx context.Context, pos *entity.PointOfSale, cbteTipo int, number int64) (*entity.AuthorizationOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out, ok := f.queryOutcomes[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func testPOS() *entity.PointOfSale {
	return &entity.PointOfSale{
		ID:          "pos-1",
		Number:      1,
		CUIT:        "20123456786",
		Environment: "test",
		Certificate: []byte("cert"),
		PrivateKey:  []byte("key"),
	}
}

func testRequest() dto.CreateInvoiceRequest {
	price := decimal.NewFromInt(100)
	rate := decimal.RequireFromString("21")
	return dto.CreateInvoiceRequest{
		PointOfSaleID: "pos-1",
		Customer: &dto.CustomerDetailDTO{
			Name:            "Consumidor Final",
			DocNumber:       "00000000",
			FiscalCondition: "CONSUMIDOR_FINAL",
		},
		Items: []dto.InvoiceItemRequest{
			{Description: "Café en grano 1kg", Quantity: decimal.NewFromInt(2), UnitPrice: &price, TaxRate: &rate},
		},
	}
}

func newTestOrchestrator(t *testing.T, auth *fakeAuthorizer) (*Orchestrator, *fakeInvoiceRepo) {
	t.Helper()
	posRepo := &fakePosRepo{byID: map[string]*entity.PointOfSale{"pos-1": testPOS()}}
	invRepo := newFakeInvoiceRepo()
	builder := NewBuilder(&fakeCustomerRepo{}, &fakeProductRepo{})
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return NewOrchestrator(posRepo, invRepo, builder, auth, log, 11, 3), invRepo
}

// acorta las esperas de reintento durante el test
func shortRetries(t *testing.T) {
	t.Helper()
	orig := retryDelays
	retryDelays = []time.Duration{time.Millisecond}
	t.Cleanup(func() { retryDelays = orig })
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestCreateAndAuthorize_Exitoso(t *testing.T) {
	auth := newFakeAuthorizer()
	auth.last[11] = 41
	o, _ := newTestOrchestrator(t, auth)

	resp, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.InvoiceStatusAuthorized, resp.Status)
	assert.Equal(t, int64(42), resp.Number, "número = último autorizado + 1")
	assert.Equal(t, "0001-00000042", resp.FormattedNumber)
	assert.NotEmpty(t, resp.CAE)
	assert.Equal(t, "20260915", resp.CAEExpiry)
	assert.Equal(t, 99, resp.Customer.DocType, "consumidor final 00000000 clasifica como 99")
	assert.Equal(t, "200.00", resp.GrandTotal.StringFixed(2))
}

func TestCreateAndAuthorize_ReintentaConElMismoNumero(t *testing.T) {
	shortRetries(t)
	auth := newFakeAuthorizer()
	auth.last[11] = 7
	auth.failures = 2
	o, _ := newTestOrchestrator(t, auth)

	resp, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, auth.authorizeCalls, 3, "dos fallas de transporte + un éxito")
	for _, n := range auth.authorizeCalls {
		assert.Equal(t, int64(8), n, "todos los reintentos deben llevar el mismo número")
	}
	assert.Equal(t, entity.InvoiceStatusAuthorized, resp.Status)
}

func TestCreateAndAuthorize_TransporteAgotadoQuedaSubmitted(t *testing.T) {
	shortRetries(t)
	auth := newFakeAuthorizer()
	auth.failures = 10 // más que los intentos permitidos
	o, invRepo := newTestOrchestrator(t, auth)

	_, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrTransport)
	require.Len(t, auth.authorizeCalls, 3)

	// La factura quedó en submitted, con número, esperando conciliación.
	pending, _ := invRepo.ListSubmitted("pos-1")
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].Number)
}

func TestCreateAndAuthorize_SeriePendienteBloqueaEmision(t *testing.T) {
	shortRetries(t)
	auth := newFakeAuthorizer()
	auth.failures = 10
	o, invRepo := newTestOrchestrator(t, auth)

	// Primera emisión: transporte agotado, queda en submitted con el número 1.
	_, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrTransport)

	// La serie queda bloqueada: otra emisión duplicaría el número retenido.
	auth.mu.Lock()
	auth.failures = 0
	auth.mu.Unlock()
	_, err = o.CreateAndAuthorize(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrConflict)

	pending, _ := invRepo.ListSubmitted("pos-1")
	require.Len(t, pending, 1, "la factura en limbo sigue siendo la única con número")
	assert.Equal(t, int64(1), pending[0].Number)

	// AFIP sí había registrado la solicitud: la conciliación la cierra con su
	// propio CAE y libera la serie.
	auth.mu.Lock()
	auth.queryOutcomes[1] = &entity.AuthorizationOutcome{
		Authorized: true, CAE: "71234567800001", CAEExpiry: "20260915", Number: 1,
	}
	auth.last[11] = 1
	auth.mu.Unlock()

	res, err := o.Reconcile(context.Background(), "pos-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Authorized)

	resp, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.NoError(t, err, "conciliada la serie, la emisión vuelve a operar")
	assert.Equal(t, int64(2), resp.Number, "el número retenido jamás se reasigna")
}

func TestCreateAndAuthorize_RechazoConsumeNumero(t *testing.T) {
	auth := newFakeAuthorizer()
	auth.last[11] = 4
	auth.reject = true
	o, invRepo := newTestOrchestrator(t, auth)

	resp, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.NoError(t, err, "un rechazo de AFIP no es error de la operación")

	assert.Equal(t, entity.InvoiceStatusRejected, resp.Status)
	assert.Equal(t, int64(5), resp.Number)
	assert.Contains(t, resp.Observations, "10016")
	assert.Empty(t, resp.CAE)

	inv, _ := invRepo.GetByID(resp.ID)
	assert.Equal(t, entity.InvoiceStatusRejected, inv.Status)
}

func TestCreateAndAuthorize_SinCredenciales(t *testing.T) {
	auth := newFakeAuthorizer()
	o, _ := newTestOrchestrator(t, auth)
	pos := testPOS()
	pos.Certificate = nil
	o.posRepo.(*fakePosRepo).byID["pos-1"] = pos

	_, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrCredential)
	assert.Empty(t, auth.authorizeCalls, "sin credenciales no debe tocarse AFIP")
}

func TestCreateAndAuthorize_NumeracionAutoritativa(t *testing.T) {
	auth := newFakeAuthorizer()
	auth.last[11] = 10
	o, _ := newTestOrchestrator(t, auth)

	resp1, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(11), resp1.Number)

	// Otro sistema emitió comprobantes por fuera: AFIP ya va por el 50.
	auth.mu.Lock()
	auth.last[11] = 50
	auth.mu.Unlock()

	resp2, err := o.CreateAndAuthorize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(51), resp2.Number, "ante discrepancia manda AFIP, no el caché local")
}

func TestCreateAndAuthorize_SerializaPorSerie(t *testing.T) {
	auth := newFakeAuthorizer()
	o, _ := newTestOrchestrator(t, auth)

	const n = 8
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := o.CreateAndAuthorize(context.Background(), testRequest())
			if err == nil {
				numbers <- resp.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool)
	for num := range numbers {
		assert.False(t, seen[num], "número %d repetido", num)
		seen[num] = true
	}
	assert.Len(t, seen, n, "cada autorización debe consumir un número distinto")
}

func TestReconcile(t *testing.T) {
	auth := newFakeAuthorizer()
	o, invRepo := newTestOrchestrator(t, auth)

	mk := func(id string, number int64) {
		invRepo.Create(&entity.Invoice{
			ID:            id,
			PointOfSaleID: "pos-1",
			CbteTipo:      11,
			Number:        number,
			Status:        entity.InvoiceStatusSubmitted,
		})
	}
	mk("inv-a", 20) // AFIP la autorizó aunque la respuesta se perdió
	mk("inv-b", 21) // AFIP nunca la vio
	auth.queryOutcomes[20] = &entity.AuthorizationOutcome{
		Authorized: true, CAE: "71234567890123", CAEExpiry: "20260915", Number: 20,
	}

	res, err := o.Reconcile(context.Background(), "pos-1")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Examined)
	assert.Equal(t, 1, res.Authorized)
	assert.Equal(t, 1, res.Reverted)
	assert.Equal(t, 0, res.Pending)

	a, _ := invRepo.GetByID("inv-a")
	assert.Equal(t, entity.InvoiceStatusAuthorized, a.Status)
	assert.Equal(t, "71234567890123", a.CAE)

	b, _ := invRepo.GetByID("inv-b")
	assert.Equal(t, entity.InvoiceStatusDraft, b.Status, "si AFIP nunca la vio vuelve a borrador")
	assert.Zero(t, b.Number, "el número provisorio se descarta")
}

func TestReconcile_TransporteSiguePendiente(t *testing.T) {
	auth := newFakeAuthorizer()
	auth.queryErr = fmt.Errorf("%w: timeout", domain.ErrTransport)
	o, invRepo := newTestOrchestrator(t, auth)

	invRepo.Create(&entity.Invoice{
		ID: "inv-x", PointOfSaleID: "pos-1", CbteTipo: 11, Number: 9,
		Status: entity.InvoiceStatusSubmitted,
	})

	res, err := o.Reconcile(context.Background(), "pos-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pending)

	inv, _ := invRepo.GetByID("inv-x")
	assert.Equal(t, entity.InvoiceStatusSubmitted, inv.Status, "sin certeza no se toca el estado")
}
