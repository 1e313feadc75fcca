package afip

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/pkcs12"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

// credential es el material de firma ya parseado de un punto de venta.
type credential struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
}

// loadCredential interpreta los blobs del punto de venta. Acepta certificado
// y clave en PEM por separado, o un único PKCS#12 sin passphrase en el campo
// certificado. Cualquier problema de parseo es domain.ErrCredential: no se
// intenta hablar con AFIP sin identidad válida.
func loadCredential(pos *entity.PointOfSale) (*credential, error) {
	if !pos.HasCredentials() {
		return nil, fmt.Errorf("%w: punto de venta %d sin certificado", domain.ErrCredential, pos.Number)
	}

	if block, _ := pem.Decode(pos.Certificate); block != nil {
		return loadPEM(pos)
	}
	return loadP12(pos)
}

func loadPEM(pos *entity.PointOfSale) (*credential, error) {
	certBlock, _ := pem.Decode(pos.Certificate)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: el archivo de certificado no contiene un bloque CERTIFICATE", domain.ErrCredential)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: certificado ilegible: %v", domain.ErrCredential, err)
	}

	keyBlock, _ := pem.Decode(pos.PrivateKey)
	if keyBlock == nil {
		return nil, fmt.Errorf("%w: falta la clave privada en PEM", domain.ErrCredential)
	}
	key, err := parsePrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: clave privada ilegible: %v", domain.ErrCredential, err)
	}
	return &credential{cert: cert, key: key}, nil
}

func loadP12(pos *entity.PointOfSale) (*credential, error) {
	rawKey, cert, err := pkcs12.Decode(pos.Certificate, "")
	if err != nil {
		return nil, fmt.Errorf("%w: PKCS#12 ilegible: %v", domain.ErrCredential, err)
	}
	key, ok := rawKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: la clave del PKCS#12 no es RSA", domain.ErrCredential)
	}
	return &credential{cert: cert, key: key}, nil
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("la clave no es RSA")
	}
	return key, nil
}
