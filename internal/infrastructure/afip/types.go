// Package afip implementa los clientes SOAP de los web services de AFIP:
// WSAA (autenticación con ticket de acceso) y WSFEv1 (facturación
// electrónica). Es la implementación del puerto Authorizer.
package afip

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	pkgafip "github.com/jorgeomarnegrete/fact-arca/pkg/afip"
)

// ── Endpoints por ambiente ─────────────────────────────────────────────────

const (
	wsaaURLTest = "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
	wsaaURLProd = "https://wsaa.afip.gov.ar/ws/services/LoginCms"
	wsfeURLTest = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	wsfeURLProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"

	soapEnvNS = "http://schemas.xmlsoap.org/soap/envelope/"
	wsfeNS    = "http://ar.gov.afip.dif.FEV1/"
	wsaaNS    = "http://wsaa.view.sua.dvadac.desein.afip.gov"

	// wsaaService nombre del servicio a autorizar en el ticket de acceso.
	wsaaService = "wsfe"
)

func isProduction(env string) bool { return env == pkgafip.EnvProduction }

// ── Envelope SOAP 1.1 ──────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"soapenv:Envelope"`
	XmlnsS  string     `xml:"xmlns:soapenv,attr"`
	Header  soapHeader `xml:"soapenv:Header"`
	Body    soapBody   `xml:"soapenv:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Cuerpos de request WSFEv1 ──────────────────────────────────────────────

type feAuth struct {
	Token string `xml:"Token"`
	Sign  string `xml:"Sign"`
	Cuit  string `xml:"Cuit"`
}

type feCompUltimoAutorizadoBody struct {
	XMLName  xml.Name `xml:"FECompUltimoAutorizado"`
	Xmlns    string   `xml:"xmlns,attr"`
	Auth     feAuth   `xml:"Auth"`
	PtoVta   int      `xml:"PtoVta"`
	CbteTipo int      `xml:"CbteTipo"`
}

type fecaeSolicitarBody struct {
	XMLName  xml.Name     `xml:"FECAESolicitar"`
	Xmlns    string       `xml:"xmlns,attr"`
	Auth     feAuth       `xml:"Auth"`
	FeCAEReq feCAERequest `xml:"FeCAEReq"`
}

type feCAERequest struct {
	FeCabReq feCabRequest `xml:"FeCabReq"`
	FeDetReq feDetRequest `xml:"FeDetReq"`
}

type feCabRequest struct {
	CantReg  int `xml:"CantReg"`
	PtoVta   int `xml:"PtoVta"`
	CbteTipo int `xml:"CbteTipo"`
}

type feDetRequest struct {
	Detalle []feCAEDetRequest `xml:"FECAEDetRequest"`
}

type feCAEDetRequest struct {
	Concepto   int       `xml:"Concepto"`
	DocTipo    int       `xml:"DocTipo"`
	DocNro     int64     `xml:"DocNro"`
	CbteDesde  int64     `xml:"CbteDesde"`
	CbteHasta  int64     `xml:"CbteHasta"`
	CbteFch    string    `xml:"CbteFch"` // AAAAMMDD
	ImpTotal   string    `xml:"ImpTotal"`
	ImpTotConc string    `xml:"ImpTotConc"` // neto no gravado
	ImpNeto    string    `xml:"ImpNeto"`
	ImpOpEx    string    `xml:"ImpOpEx"` // operaciones exentas
	ImpTrib    string    `xml:"ImpTrib"` // otros tributos
	ImpIVA     string    `xml:"ImpIVA"`
	MonId      string    `xml:"MonId"`
	MonCotiz   string    `xml:"MonCotiz"`
	Iva        feIvaList `xml:"Iva"`
}

type feIvaList struct {
	AlicIva []feAlicIva `xml:"AlicIva"`
}

type feAlicIva struct {
	Id      int    `xml:"Id"`
	BaseImp string `xml:"BaseImp"`
	Importe string `xml:"Importe"`
}

type feCompConsultarBody struct {
	XMLName       xml.Name   `xml:"FECompConsultar"`
	Xmlns         string     `xml:"xmlns,attr"`
	Auth          feAuth     `xml:"Auth"`
	FeCompConsReq feCompCons `xml:"FeCompConsReq"`
}

type feCompCons struct {
	CbteTipo int   `xml:"CbteTipo"`
	CbteNro  int64 `xml:"CbteNro"`
	PtoVta   int   `xml:"PtoVta"`
}

// ── Respuestas WSFEv1 ──────────────────────────────────────────────────────

type wsfeResponseEnvelope struct {
	Body wsfeResponseBody `xml:"Body"`
}

type wsfeResponseBody struct {
	Solicitar *fecaeSolicitarResponse         `xml:"FECAESolicitarResponse"`
	Ultimo    *feCompUltimoAutorizadoResponse `xml:"FECompUltimoAutorizadoResponse"`
	Consultar *feCompConsultarResponse        `xml:"FECompConsultarResponse"`
	Fault     *soapFault                      `xml:"Fault"`
}

type fecaeSolicitarResponse struct {
	Result fecaeResponse `xml:"FECAESolicitarResult"`
}

type fecaeResponse struct {
	FeCabResp feCabResponse    `xml:"FeCabResp"`
	FeDetResp fecaeDetRespList `xml:"FeDetResp"`
	Errors    feErrorList      `xml:"Errors"`
}

type feCabResponse struct {
	Resultado string `xml:"Resultado"` // A | R | P
	CantReg   int    `xml:"CantReg"`
}

type fecaeDetRespList struct {
	Detalle []fecaeDetResponse `xml:"FECAEDetResponse"`
}

type fecaeDetResponse struct {
	Resultado     string    `xml:"Resultado"`
	CAE           string    `xml:"CAE"`
	CAEFchVto     string    `xml:"CAEFchVto"`
	CbteDesde     int64     `xml:"CbteDesde"`
	Observaciones feObsList `xml:"Observaciones"`
}

type feObsList struct {
	Obs []feCodeMsg `xml:"Obs"`
}

type feErrorList struct {
	Err []feCodeMsg `xml:"Err"`
}

type feCodeMsg struct {
	Code int    `xml:"Code"`
	Msg  string `xml:"Msg"`
}

type feCompUltimoAutorizadoResponse struct {
	Result feUltimoResult `xml:"FECompUltimoAutorizadoResult"`
}

type feUltimoResult struct {
	PtoVta   int         `xml:"PtoVta"`
	CbteTipo int         `xml:"CbteTipo"`
	CbteNro  int64       `xml:"CbteNro"`
	Errors   feErrorList `xml:"Errors"`
}

type feCompConsultarResponse struct {
	Result feConsultarResult `xml:"FECompConsultarResult"`
}

type feConsultarResult struct {
	ResultGet feConsultarGet `xml:"ResultGet"`
	Errors    feErrorList    `xml:"Errors"`
}

type feConsultarGet struct {
	CbteDesde       int64     `xml:"CbteDesde"`
	Resultado       string    `xml:"Resultado"`
	CodAutorizacion string    `xml:"CodAutorizacion"`
	FchVto          string    `xml:"FchVto"`
	Observaciones   feObsList `xml:"Observaciones"`
}

// wsfeErrNotFound código de error de FECompConsultar cuando el comprobante
// no existe en los registros de AFIP.
const wsfeErrNotFound = 602

// newXMLDecoder arma un decoder tolerante a la declaración ISO-8859-1 que
// AFIP usa en algunas respuestas.
func newXMLDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-1", "latin1":
			return charmap.ISO8859_1.NewDecoder().Reader(input), nil
		case "windows-1252":
			return charmap.Windows1252.NewDecoder().Reader(input), nil
		}
		return input, nil
	}
	return d
}
