package afip

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

// selfSignedPEM genera un par certificado/clave autofirmado para los tests.
func selfSignedPEM(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "fact-arca-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM
}

func TestLoadCredential_PEM(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t)
	pos := &entity.PointOfSale{Number: 1, Certificate: certPEM, PrivateKey: keyPEM}

	cred, err := loadCredential(pos)
	require.NoError(t, err)
	assert.Equal(t, "fact-arca-test", cred.cert.Subject.CommonName)
	assert.NotNil(t, cred.key)
}

func TestLoadCredential_SinCertificado(t *testing.T) {
	pos := &entity.PointOfSale{Number: 1}
	_, err := loadCredential(pos)
	assert.ErrorIs(t, err, domain.ErrCredential)
}

func TestLoadCredential_CertificadoBasura(t *testing.T) {
	pos := &entity.PointOfSale{Number: 1, Certificate: []byte("no soy un certificado")}
	_, err := loadCredential(pos)
	assert.ErrorIs(t, err, domain.ErrCredential)
}

func TestLoadCredential_SinClavePrivada(t *testing.T) {
	certPEM, _ := selfSignedPEM(t)
	pos := &entity.PointOfSale{Number: 1, Certificate: certPEM}
	_, err := loadCredential(pos)
	assert.ErrorIs(t, err, domain.ErrCredential)
}

func TestSignCMS(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t)
	pos := &entity.PointOfSale{Number: 1, Certificate: certPEM, PrivateKey: keyPEM}
	cred, err := loadCredential(pos)
	require.NoError(t, err)

	tra, err := buildTRA(time.Now())
	require.NoError(t, err)

	signed, err := signCMS(tra, cred)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.NotEqual(t, tra, signed, "el CMS envuelve el TRA, no lo devuelve plano")
}
