package afip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.mozilla.org/pkcs7"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

// ticketMargin es cuánto antes del vencimiento real se descarta un ticket
// cacheado, para no llegar a WSFE con un token al borde de expirar.
const ticketMargin = 5 * time.Minute

// accessTicket es el ticket de acceso emitido por WSAA (vale ~12 horas).
type accessTicket struct {
	Token     string
	Sign      string
	ExpiresAt time.Time
}

func (t *accessTicket) valid() bool {
	return t != nil && time.Now().Before(t.ExpiresAt.Add(-ticketMargin))
}

// TicketSource obtiene y cachea tickets de acceso WSAA por (CUIT, ambiente):
// el ticket lo emite WSAA para el contribuyente y el servicio, no para un
// punto de venta. El ticket se renueva solo cuando expira; pedir uno nuevo con
// otro vigente hace que WSAA rechace la solicitud, por eso dos puntos de venta
// del mismo emisor comparten ticket.
type TicketSource struct {
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]*accessTicket // clave: CUIT|ambiente
	locks map[string]*sync.Mutex

	urlTest string
	urlProd string
}

// NewTicketSource construye la fuente de tickets.
func NewTicketSource(timeout time.Duration) *TicketSource {
	return &TicketSource{
		httpClient: &http.Client{Timeout: timeout},
		cache:      make(map[string]*accessTicket),
		locks:      make(map[string]*sync.Mutex),
		urlTest:    wsaaURLTest,
		urlProd:    wsaaURLProd,
	}
}

func ticketKey(pos *entity.PointOfSale) string {
	return pos.CUIT + "|" + pos.Environment
}

// keyLock devuelve el mutex de la clave, creándolo si no existe. Serializa
// los LoginCms de un mismo emisor sin bloquear a los demás.
func (s *TicketSource) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// Ticket devuelve un ticket vigente para el emisor del punto de venta, del
// caché o autenticando contra WSAA.
func (s *TicketSource) Ticket(ctx context.Context, pos *entity.PointOfSale) (*accessTicket, error) {
	key := ticketKey(pos)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	t := s.cache[key]
	s.mu.Unlock()
	if t.valid() {
		return t, nil
	}

	t, err := s.authenticate(ctx, pos)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[key] = t
	s.mu.Unlock()
	return t, nil
}

// authenticate arma el TRA, lo firma en CMS con el certificado del punto de
// venta y lo presenta a WSAA.
func (s *TicketSource) authenticate(ctx context.Context, pos *entity.PointOfSale) (*accessTicket, error) {
	cred, err := loadCredential(pos)
	if err != nil {
		return nil, err
	}

	tra, err := buildTRA(time.Now())
	if err != nil {
		return nil, err
	}

	signed, err := signCMS(tra, cred)
	if err != nil {
		return nil, fmt.Errorf("%w: firma CMS: %v", domain.ErrCredential, err)
	}

	envelope := soapEnvelope{
		XmlnsS: soapEnvNS,
		Body: soapBody{Content: &loginCmsBody{
			Xmlns: wsaaNS,
			In0:   base64.StdEncoding.EncodeToString(signed),
		}},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("wsaa: serializar envelope: %w", err)
	}

	url := s.urlTest
	if isProduction(pos.Environment) {
		url = s.urlProd
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("wsaa: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: wsaa: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: wsaa: leer respuesta: %v", domain.ErrTransport, err)
	}
	return parseLoginResponse(raw)
}

// buildTRA arma el loginTicketRequest. La ventana de generación arranca un
// minuto en el pasado para tolerar desvíos de reloj contra AFIP.
func buildTRA(now time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	tra := doc.CreateElement("loginTicketRequest")
	tra.CreateAttr("version", "1.0")
	header := tra.CreateElement("header")
	header.CreateElement("uniqueId").SetText(strconv.FormatInt(now.Unix(), 10))
	header.CreateElement("generationTime").SetText(now.Add(-time.Minute).Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(now.Add(12 * time.Hour).Format(time.RFC3339))
	tra.CreateElement("service").SetText(wsaaService)
	return doc.WriteToBytes()
}

func signCMS(content []byte, cred *credential) ([]byte, error) {
	sd, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, err
	}
	if err := sd.AddSigner(cred.cert, cred.key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, err
	}
	return sd.Finish()
}

type loginCmsBody struct {
	XMLName xml.Name `xml:"wsaa:loginCms"`
	Xmlns   string   `xml:"xmlns:wsaa,attr"`
	In0     string   `xml:"wsaa:in0"`
}

type wsaaResponseEnvelope struct {
	Body struct {
		LoginCmsResponse *struct {
			Return string `xml:"loginCmsReturn"`
		} `xml:"loginCmsResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type loginTicketResponse struct {
	Header struct {
		ExpirationTime string `xml:"expirationTime"`
	} `xml:"header"`
	Credentials struct {
		Token string `xml:"token"`
		Sign  string `xml:"sign"`
	} `xml:"credentials"`
}

func parseLoginResponse(raw []byte) (*accessTicket, error) {
	var env wsaaResponseEnvelope
	if err := newXMLDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: wsaa: respuesta ilegible: %v", domain.ErrTransport, err)
	}
	if env.Body.Fault != nil {
		// WSAA rechazó el CMS (certificado vencido, no asociado al servicio,
		// ticket previo vigente): es un problema de credenciales, no de red.
		return nil, fmt.Errorf("%w: wsaa [%s]: %s",
			domain.ErrCredential, env.Body.Fault.FaultCode, env.Body.Fault.FaultString)
	}
	if env.Body.LoginCmsResponse == nil {
		return nil, fmt.Errorf("%w: wsaa: respuesta inesperada", domain.ErrTransport)
	}

	var ticket loginTicketResponse
	if err := newXMLDecoder(bytes.NewReader([]byte(env.Body.LoginCmsResponse.Return))).Decode(&ticket); err != nil {
		return nil, fmt.Errorf("%w: wsaa: ticket ilegible: %v", domain.ErrTransport, err)
	}

	expires := time.Now().Add(10 * time.Hour)
	if parsed, err := time.Parse(time.RFC3339, ticket.Header.ExpirationTime); err == nil {
		expires = parsed
	}
	return &accessTicket{
		Token:     ticket.Credentials.Token,
		Sign:      ticket.Credentials.Sign,
		ExpiresAt: expires,
	}, nil
}
