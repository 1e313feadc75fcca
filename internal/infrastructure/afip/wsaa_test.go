package afip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

func TestBuildTRA(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	raw, err := buildTRA(now)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))

	root := doc.SelectElement("loginTicketRequest")
	require.NotNil(t, root)
	assert.Equal(t, "1.0", root.SelectAttrValue("version", ""))
	assert.Equal(t, "wsfe", root.SelectElement("service").Text())

	header := root.SelectElement("header")
	require.NotNil(t, header)
	assert.Equal(t, strconv.FormatInt(now.Unix(), 10), header.SelectElement("uniqueId").Text())

	gen, err := time.Parse(time.RFC3339, header.SelectElement("generationTime").Text())
	require.NoError(t, err)
	exp, err := time.Parse(time.RFC3339, header.SelectElement("expirationTime").Text())
	require.NoError(t, err)
	assert.True(t, gen.Before(now), "generationTime arranca en el pasado")
	assert.True(t, exp.After(now.Add(11*time.Hour)), "el ticket se pide por ~12 horas")
}

func TestParseLoginResponse(t *testing.T) {
	raw := []byte(`<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <loginCmsResponse xmlns="http://wsaa.view.sua.dvadac.desein.afip.gov">
      <loginCmsReturn>&lt;loginTicketResponse version=&quot;1.0&quot;&gt;
&lt;header&gt;&lt;expirationTime&gt;2026-09-01T00:00:00-03:00&lt;/expirationTime&gt;&lt;/header&gt;
&lt;credentials&gt;&lt;token&gt;TOKEN123&lt;/token&gt;&lt;sign&gt;SIGN456&lt;/sign&gt;&lt;/credentials&gt;
&lt;/loginTicketResponse&gt;</loginCmsReturn>
    </loginCmsResponse>
  </soapenv:Body>
</soapenv:Envelope>`)

	ticket, err := parseLoginResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN123", ticket.Token)
	assert.Equal(t, "SIGN456", ticket.Sign)

	want, _ := time.Parse(time.RFC3339, "2026-09-01T00:00:00-03:00")
	assert.True(t, ticket.ExpiresAt.Equal(want))
	assert.True(t, ticket.valid())
}

func TestParseLoginResponse_Fault(t *testing.T) {
	raw := []byte(`<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>cms.cert.expired</faultcode>
      <faultstring>Certificado expirado</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`)

	_, err := parseLoginResponse(raw)
	require.ErrorIs(t, err, domain.ErrCredential, "un fault de WSAA es problema de credenciales")
	assert.Contains(t, err.Error(), "cms.cert.expired")
}

// wsaaLoginResponse arma una respuesta LoginCms válida con vencimiento futuro.
func wsaaLoginResponse() string {
	exp := time.Now().Add(12 * time.Hour).Format(time.RFC3339)
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <loginCmsResponse xmlns="http://wsaa.view.sua.dvadac.desein.afip.gov">
      <loginCmsReturn>&lt;loginTicketResponse version=&quot;1.0&quot;&gt;
&lt;header&gt;&lt;expirationTime&gt;%s&lt;/expirationTime&gt;&lt;/header&gt;
&lt;credentials&gt;&lt;token&gt;TOK&lt;/token&gt;&lt;sign&gt;SIG&lt;/sign&gt;&lt;/credentials&gt;
&lt;/loginTicketResponse&gt;</loginCmsReturn>
    </loginCmsResponse>
  </soapenv:Body>
</soapenv:Envelope>`, exp)
}

// Dos puntos de venta del mismo CUIT y ambiente comparten el ticket WSAA:
// un segundo LoginCms con otro vigente sería rechazado por WSAA.
func TestTicket_CompartidoPorEmisor(t *testing.T) {
	logins := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++
		io.WriteString(w, wsaaLoginResponse())
	}))
	t.Cleanup(srv.Close)

	certPEM, keyPEM := selfSignedPEM(t)
	posA := &entity.PointOfSale{
		ID: "pos-a", Number: 1, CUIT: "20123456786", Environment: "test",
		Certificate: certPEM, PrivateKey: keyPEM,
	}
	posB := &entity.PointOfSale{
		ID: "pos-b", Number: 2, CUIT: "20123456786", Environment: "test",
		Certificate: certPEM, PrivateKey: keyPEM,
	}

	tickets := NewTicketSource(5 * time.Second)
	tickets.urlTest = srv.URL

	ta, err := tickets.Ticket(context.Background(), posA)
	require.NoError(t, err)
	tb, err := tickets.Ticket(context.Background(), posB)
	require.NoError(t, err)

	assert.Equal(t, 1, logins, "mismo CUIT y ambiente: un solo LoginCms")
	assert.Same(t, ta, tb, "ambos puntos de venta reciben el mismo ticket")

	// Un emisor distinto sí autentica por su cuenta.
	posC := &entity.PointOfSale{
		ID: "pos-c", Number: 1, CUIT: "27234567893", Environment: "test",
		Certificate: certPEM, PrivateKey: keyPEM,
	}
	_, err = tickets.Ticket(context.Background(), posC)
	require.NoError(t, err)
	assert.Equal(t, 2, logins, "otro CUIT requiere su propio LoginCms")
}

func TestAccessTicket_Margen(t *testing.T) {
	vigente := &accessTicket{ExpiresAt: time.Now().Add(time.Hour)}
	assert.True(t, vigente.valid())

	porVencer := &accessTicket{ExpiresAt: time.Now().Add(time.Minute)}
	assert.False(t, porVencer.valid(), "dentro del margen de seguridad se renueva")

	var nilTicket *accessTicket
	assert.False(t, nilTicket.valid())
}
