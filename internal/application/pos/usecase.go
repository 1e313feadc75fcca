// Package pos administra el registro de puntos de venta y sus credenciales.
package pos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appbilling "github.com/jorgeomarnegrete/fact-arca/internal/application/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/repository"
	"github.com/jorgeomarnegrete/fact-arca/pkg/afip"
)

// UseCase casos de uso del registro de puntos de venta.
type UseCase struct {
	repo            repository.PointOfSaleRepository
	authorizer      appbilling.Authorizer
	defaultCbteTipo int
}

// NewUseCase construye el caso de uso. El authorizer se usa solo para la
// prueba de conectividad.
func NewUseCase(repo repository.PointOfSaleRepository, authorizer appbilling.Authorizer, defaultCbteTipo int) *UseCase {
	return &UseCase{repo: repo, authorizer: authorizer, defaultCbteTipo: defaultCbteTipo}
}

// Register da de alta un punto de venta con su certificado y clave privada.
// Los blobs se guardan opacos (PEM o PKCS#12); su contenido se valida recién
// al primer uso contra AFIP, pero tienen que venir.
func (uc *UseCase) Register(in dto.RegisterPointOfSaleRequest, certificate, privateKey []byte) (*dto.PointOfSaleResponse, error) {
	if in.Number <= 0 {
		return nil, fmt.Errorf("%w: número de punto de venta inválido", domain.ErrInvalidInput)
	}
	if len(certificate) == 0 || len(privateKey) == 0 {
		return nil, fmt.Errorf("%w: certificado y clave privada son obligatorios", domain.ErrInvalidInput)
	}
	cuit := strings.TrimSpace(in.CUIT)
	if err := afip.ValidateCUIT(cuit); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	env := strings.ToLower(strings.TrimSpace(in.Environment))
	if env == "" {
		env = afip.EnvTest
	}
	if !afip.IsValidEnvironment(env) {
		return nil, fmt.Errorf("%w: ambiente %q no reconocido", domain.ErrInvalidInput, in.Environment)
	}

	if _, err := uc.repo.GetByNumberAndCUIT(in.Number, cuit); err == nil {
		return nil, fmt.Errorf("%w: punto de venta %d ya registrado para %s", domain.ErrDuplicate, in.Number, cuit)
	}

	now := time.Now()
	p := &entity.PointOfSale{
		ID:          uuid.NewString(),
		Number:      in.Number,
		CUIT:        cuit,
		Name:        strings.TrimSpace(in.Name),
		Environment: env,
		Certificate: certificate,
		PrivateKey:  privateKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(p); err != nil {
		return nil, err
	}
	resp := toResponse(p)
	return &resp, nil
}

// Get devuelve un punto de venta por ID.
func (uc *UseCase) Get(id string) (*dto.PointOfSaleResponse, error) {
	p, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(p)
	return &resp, nil
}

// List devuelve los puntos de venta registrados.
func (uc *UseCase) List(limit, offset int) ([]dto.PointOfSaleResponse, error) {
	items, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PointOfSaleResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p))
	}
	return out, nil
}

// ReplaceCredentials reemplaza certificado, clave y ambiente de forma atómica.
// No hay actualización parcial: siempre viaja el juego completo.
func (uc *UseCase) ReplaceCredentials(id string, certificate, privateKey []byte, environment string) (*dto.PointOfSaleResponse, error) {
	if len(certificate) == 0 {
		return nil, fmt.Errorf("%w: falta el certificado", domain.ErrInvalidInput)
	}
	p, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	env := strings.ToLower(strings.TrimSpace(environment))
	if env == "" {
		env = p.Environment
	}
	if !afip.IsValidEnvironment(env) {
		return nil, fmt.Errorf("%w: ambiente %q no reconocido", domain.ErrInvalidInput, environment)
	}

	p.Certificate = certificate
	p.PrivateKey = privateKey
	p.Environment = env
	p.UpdatedAt = time.Now()
	if err := uc.repo.UpdateCredentials(p); err != nil {
		return nil, err
	}
	resp := toResponse(p)
	return &resp, nil
}

// Probe verifica conectividad y credenciales contra AFIP consultando el
// último comprobante autorizado. cbteTipo en 0 usa el tipo por defecto.
// No emite nada.
func (uc *UseCase) Probe(ctx context.Context, id string, cbteTipo int) (*dto.ProbeResponse, error) {
	p, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !p.HasCredentials() {
		return nil, fmt.Errorf("%w: punto de venta %d sin certificado cargado", domain.ErrCredential, p.Number)
	}
	if cbteTipo == 0 {
		cbteTipo = uc.defaultCbteTipo
	}
	if !afip.ValidCbteTipos[cbteTipo] {
		return nil, fmt.Errorf("%w: tipo de comprobante %d no soportado", domain.ErrInvalidInput, cbteTipo)
	}

	last, err := uc.authorizer.LastAuthorized(ctx, p, cbteTipo)
	if err != nil {
		return &dto.ProbeResponse{OK: false, CbteTipo: cbteTipo, Detail: err.Error()}, nil
	}
	return &dto.ProbeResponse{OK: true, LastAuthorized: last, CbteTipo: cbteTipo}, nil
}

func toResponse(p *entity.PointOfSale) dto.PointOfSaleResponse {
	return dto.PointOfSaleResponse{
		ID:             p.ID,
		Number:         p.Number,
		CUIT:           p.CUIT,
		Name:           p.Name,
		Environment:    p.Environment,
		HasCredentials: p.HasCredentials(),
		CreatedAt:      p.CreatedAt,
	}
}
