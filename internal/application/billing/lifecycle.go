package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/internal/domain/repository"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// persistTimeout límite para guardar el resultado de una transmisión ya resuelta,
// reintentos incluidos.
const (
	persistTimeout  = 10 * time.Second
	persistAttempts = 4
)

// errInterrupted causa registrada al recuperar un documento que quedó en Sincronizando.
var errInterrupted = errors.New("transmisión interrumpida: su resultado no se pudo guardar")

// LifecycleConfig parámetros fiscales y de integración.
type LifecycleConfig struct {
	TaxFactor         decimal.Decimal
	Ambiente          string        // "00" pruebas, "01" producción
	SubmitTimeout     time.Duration // tope para cada llamada a Hacienda
	PersistRetryDelay time.Duration // espera inicial entre reintentos al guardar el resultado
}

// LifecycleDeps dependencias del gestor del ciclo de vida.
type LifecycleDeps struct {
	TxRunner      DocumentTxRunner
	Documents     repository.DocumentRepository
	Invalidations repository.InvalidationRepository
	Customers     repository.CustomerRepository
	Companies     repository.CompanyRepository
	Products      repository.ProductRepository
	Submitter     Submitter
	Invalidator   Invalidator
	Credentials   CredentialProvider
}

// LifecycleManager orquesta el ciclo de vida de un DTE:
//
//	Nueva → Sincronizando → Completada (o rollback a Nueva) → Anulada
//
// La transmisión corre en una goroutine con su propio contexto y timeout, desacoplada
// del ciclo HTTP. Solo se admite una operación en curso por documento.
type LifecycleManager struct {
	deps      LifecycleDeps
	cfg       LifecycleConfig
	log       zerolog.Logger
	numbering *KeyedMutex
	inflight  sync.Map // documentID -> struct{}
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewLifecycleManager construye el gestor. Sin TaxFactor usa 1.13; sin SubmitTimeout, 30 s.
func NewLifecycleManager(deps LifecycleDeps, cfg LifecycleConfig, log zerolog.Logger) *LifecycleManager {
	if cfg.PersistRetryDelay <= 0 {
		cfg.PersistRetryDelay = 200 * time.Millisecond
	}
	if cfg.TaxFactor.IsZero() {
		cfg.TaxFactor = fiscal.DefaultTaxFactor
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 30 * time.Second
	}
	if cfg.Ambiente == "" {
		cfg.Ambiente = dte.AmbientePruebas
	}
	return &LifecycleManager{
		deps:      deps,
		cfg:       cfg,
		log:       log,
		numbering: NewKeyedMutex(),
		now:       time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (m *LifecycleManager) SetClock(now func() time.Time) {
	m.now = now
}

// Wait bloquea hasta que terminan las transmisiones en segundo plano.
func (m *LifecycleManager) Wait() {
	m.wg.Wait()
}

// ═══════════════════════════════════════════════════════════════════════════════
// Creación
// ═══════════════════════════════════════════════════════════════════════════════

// Create valida las líneas, calcula montos, asigna correlativo y guarda el documento en Nueva.
func (m *LifecycleManager) Create(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	typeCode, err := dte.ParseDocumentType(in.TypeCode)
	if err != nil {
		return nil, domain.NewValidationError("type_code", "tipo de documento desconocido")
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, domain.NewValidationError("customer_id", "el cliente es obligatorio")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "el documento debe tener al menos una línea")
	}

	customer, err := m.loadCustomer(ctx, companyID, in.CustomerID)
	if err != nil {
		return nil, err
	}
	items, err := m.buildItems(ctx, companyID, in.Items)
	if err != nil {
		return nil, err
	}
	relatedID, err := m.checkRelated(ctx, companyID, typeCode, in.CustomerID, in.RelatedDocumentID)
	if err != nil {
		return nil, err
	}

	totals, err := fiscal.ComputeTotals(items, typeCode, customer.HasRetention, m.cfg.TaxFactor)
	if err != nil {
		return nil, err
	}

	now := m.now()
	doc := &entity.Document{
		ID:                uuid.New().String(),
		CompanyID:         companyID,
		CustomerID:        customer.ID,
		TypeCode:          typeCode,
		IssueDate:         now,
		Status:            entity.StatusNueva,
		Items:             items,
		Totals:            totals,
		Observations:      strings.TrimSpace(in.Observations),
		RelatedDocumentID: relatedID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.Delivery != nil {
		doc.Delivery = toDelivery(*in.Delivery)
	}
	for i := range doc.Items {
		doc.Items[i].DocumentID = doc.ID
	}

	unlock := m.numbering.Lock(companyID + ":" + string(typeCode))
	defer unlock()

	err = m.deps.TxRunner.RunNumbering(ctx, companyID, typeCode, func(s DocumentStores) error {
		max, err := s.Documents.MaxNumber(ctx, companyID, typeCode)
		if err != nil {
			return fmt.Errorf("consultar correlativo: %w", err)
		}
		doc.Number = fiscal.NextFromMax(max)
		return s.Documents.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Str("document_id", doc.ID).
		Str("company_id", companyID).
		Str("type", string(typeCode)).
		Str("number", doc.Number).
		Str("total", doc.Totals.TotalPagar.StringFixed(2)).
		Msg("documento creado")

	return toDocumentResponse(doc), nil
}

func (m *LifecycleManager) buildItems(ctx context.Context, companyID string, in []dto.DocumentItemInput) ([]entity.LineItem, error) {
	items := make([]entity.LineItem, 0, len(in))
	for i, it := range in {
		if it.Quantity < entity.MinItemQuantity || it.Quantity > entity.MaxItemQuantity {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i),
				fmt.Sprintf("la cantidad debe estar entre %d y %d", entity.MinItemQuantity, entity.MaxItemQuantity))
		}
		if it.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "el precio no puede ser negativo")
		}
		description := strings.TrimSpace(it.Description)
		if it.ProductID != "" {
			product, err := m.deps.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, fmt.Errorf("consultar producto: %w", err)
			}
			if product == nil {
				return nil, fmt.Errorf("producto %s: %w", it.ProductID, domain.ErrNotFound)
			}
			if product.CompanyID != companyID {
				return nil, domain.ErrForbidden
			}
			if description == "" {
				description = product.Name
			}
		}
		if description == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].description", i), "la línea necesita producto o descripción")
		}
		items = append(items, entity.LineItem{
			ID:          uuid.New().String(),
			Position:    i + 1,
			ProductID:   it.ProductID,
			Description: description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Observation: strings.TrimSpace(it.Observation),
			LineTotal:   fiscal.LineTotal(it.Quantity, it.UnitPrice),
		})
	}
	return items, nil
}

// checkRelated notas de crédito y débito deben ajustar un CCF completado del mismo cliente.
func (m *LifecycleManager) checkRelated(ctx context.Context, companyID string, typeCode dte.DocumentType, customerID, relatedID string) (string, error) {
	if !typeCode.RequiresRelatedDocument() {
		if relatedID != "" {
			return "", domain.NewValidationError("related_document_id", "solo las notas de crédito y débito referencian otro documento")
		}
		return "", nil
	}
	if relatedID == "" {
		return "", domain.NewValidationError("related_document_id", "la nota debe referenciar un comprobante de crédito fiscal")
	}
	rel, err := m.loadDocument(ctx, companyID, relatedID)
	if err != nil {
		return "", err
	}
	if rel.TypeCode != dte.TipoCCF || rel.Status != entity.StatusCompletada {
		return "", domain.NewValidationError("related_document_id", "el documento referenciado debe ser un crédito fiscal completado")
	}
	if rel.CustomerID != customerID {
		return "", domain.NewValidationError("related_document_id", "el documento referenciado pertenece a otro cliente")
	}
	return rel.ID, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Transmisión
// ═══════════════════════════════════════════════════════════════════════════════

// Submit marca el documento como Sincronizando y lanza la transmisión en segundo plano.
// Solo aplica a documentos Nueva (o modificados antes de su primera aceptación).
func (m *LifecycleManager) Submit(ctx context.Context, companyID, id string) (*SubmissionTask, error) {
	if !m.acquire(id) {
		return nil, busyError(id, entity.StatusSincronizando)
	}
	started := false
	defer func() {
		if !started {
			m.release(id)
		}
	}()

	doc, err := m.loadDocument(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := m.recoverInterrupted(ctx, doc); err != nil {
		return nil, err
	}
	if err := fiscal.CheckTransition(doc, entity.StatusSincronizando); err != nil {
		return nil, err
	}
	req, err := m.submissionRequest(ctx, doc)
	if err != nil {
		return nil, err
	}
	creds, err := m.signingCredentials(ctx, companyID)
	if err != nil {
		return nil, err
	}

	prev := doc.Status
	doc.Status = entity.StatusSincronizando
	doc.UpdatedAt = m.now()
	if err := m.deps.Documents.UpdateStatus(ctx, doc, prev); err != nil {
		return nil, err
	}

	task := newSubmissionTask(doc.ID)
	started = true
	m.wg.Add(1)
	go m.runSubmission(task, req, creds)

	m.log.Info().Str("document_id", doc.ID).Str("company_id", companyID).Msg("transmisión iniciada")
	return task, nil
}

// SubmitAndWait transmite y espera el resultado.
func (m *LifecycleManager) SubmitAndWait(ctx context.Context, companyID, id string) (SubmissionResult, error) {
	task, err := m.Submit(ctx, companyID, id)
	if err != nil {
		return SubmissionResult{}, err
	}
	return task.Wait(ctx)
}

func (m *LifecycleManager) submissionRequest(ctx context.Context, doc *entity.Document) (SubmissionRequest, error) {
	company, err := m.deps.Companies.GetByID(ctx, doc.CompanyID)
	if err != nil {
		return SubmissionRequest{}, fmt.Errorf("consultar empresa: %w", err)
	}
	if company == nil {
		return SubmissionRequest{}, fmt.Errorf("empresa %s: %w", doc.CompanyID, domain.ErrNotFound)
	}
	customer, err := m.loadCustomer(ctx, doc.CompanyID, doc.CustomerID)
	if err != nil {
		return SubmissionRequest{}, err
	}
	req := SubmissionRequest{Document: doc, Company: company, Customer: customer, Ambiente: m.cfg.Ambiente, TaxFactor: m.cfg.TaxFactor}
	if doc.RelatedDocumentID != "" {
		rel, err := m.loadDocument(ctx, doc.CompanyID, doc.RelatedDocumentID)
		if err != nil {
			return SubmissionRequest{}, err
		}
		req.Related = rel
	}
	return req, nil
}

// runSubmission llama al transmisor con timeout propio y aplica el resultado.
// Siempre termina dejando el documento en Completada o de vuelta en Nueva.
func (m *LifecycleManager) runSubmission(task *SubmissionTask, req SubmissionRequest, creds *entity.Credentials) {
	defer m.wg.Done()
	doc := req.Document

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SubmitTimeout)
	defer cancel()

	var result SubmissionResult
	acc, err := callWithTimeout(ctx, func(ctx context.Context) (*entity.Acceptance, error) {
		return m.deps.Submitter.Submit(ctx, req, creds)
	})
	switch {
	case err != nil:
		result = rolledBack(doc.ID, asSubmissionError("transmisión", err))
	case len(acc.Missing()) > 0:
		result = rolledBack(doc.ID, &domain.IncompleteAcceptanceError{Missing: acc.Missing()})
	default:
		result = accepted(doc.ID, acc)
	}

	result.PersistErr = m.applyResult(doc, result)

	level := zerolog.InfoLevel
	if !result.Accepted() {
		level = zerolog.WarnLevel
	}
	if result.PersistErr != nil {
		level = zerolog.ErrorLevel
	}
	m.log.WithLevel(level).
		AnErr("cause", result.Cause).
		AnErr("persist_error", result.PersistErr).
		Str("document_id", doc.ID).
		Str("outcome", result.Outcome.String()).
		Str("status", string(doc.Status)).
		Msg("transmisión finalizada")

	m.release(doc.ID)
	task.resolve(result)
}

func (m *LifecycleManager) applyResult(doc *entity.Document, result SubmissionResult) error {
	var err error
	if result.Accepted() {
		err = fiscal.ApplyAcceptance(doc, result.Acceptance)
	} else {
		err = fiscal.Rollback(doc, result.Cause)
	}
	if err != nil {
		return err
	}
	doc.UpdatedAt = m.now()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	return m.persistStatus(ctx, doc, entity.StatusSincronizando)
}

// persistStatus guarda el estado con reintentos y espera creciente. Un conflicto no se
// reintenta: el documento ya no está en el estado esperado.
func (m *LifecycleManager) persistStatus(ctx context.Context, doc *entity.Document, expected entity.Status) error {
	delay := m.cfg.PersistRetryDelay
	for attempt := 1; ; attempt++ {
		err := m.deps.Documents.UpdateStatus(ctx, doc, expected)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrConflict) || attempt == persistAttempts {
			return fmt.Errorf("persistir estado %s: %w", doc.Status, err)
		}
		m.log.Warn().Err(err).Str("document_id", doc.ID).Int("attempt", attempt).Msg("reintentando guardar estado")
		select {
		case <-ctx.Done():
			return fmt.Errorf("persistir estado %s: %w", doc.Status, errors.Join(err, ctx.Err()))
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// recoverInterrupted devuelve a Nueva un documento que quedó en Sincronizando sin
// aceptación porque el resultado de su transmisión no se pudo guardar. Solo actúa
// pasado el plazo máximo de una transmisión; el llamador ya tiene el documento adquirido.
func (m *LifecycleManager) recoverInterrupted(ctx context.Context, doc *entity.Document) error {
	if doc.Status != entity.StatusSincronizando || doc.HasAcceptance() {
		return nil
	}
	if m.now().Sub(doc.UpdatedAt) < m.cfg.SubmitTimeout+persistTimeout {
		return nil
	}
	if err := fiscal.Rollback(doc, errInterrupted); err != nil {
		return err
	}
	doc.UpdatedAt = m.now()
	if err := m.deps.Documents.UpdateStatus(ctx, doc, entity.StatusSincronizando); err != nil {
		return fmt.Errorf("recuperar transmisión interrumpida: %w", err)
	}
	m.log.Warn().Str("document_id", doc.ID).Msg("documento recuperado de una transmisión interrumpida")
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Anulación
// ═══════════════════════════════════════════════════════════════════════════════

// Invalidate anula ante Hacienda un documento completado dentro del plazo.
// Si Hacienda falla el documento queda Completada.
func (m *LifecycleManager) Invalidate(ctx context.Context, companyID, id string, in dto.InvalidateDocumentRequest) (*dto.InvalidationResponse, error) {
	if !m.acquire(id) {
		return nil, busyError(id, entity.StatusAnulada)
	}
	defer m.release(id)

	doc, err := m.loadDocument(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := fiscal.CheckTransition(doc, entity.StatusAnulada); err != nil {
		return nil, err
	}
	now := m.now()
	if elig := fiscal.CanInvalidate(doc, now); !elig.Allowed {
		return nil, &domain.PolicyError{Reason: elig.Reason}
	}

	reason := dte.InvalidationReason(in.Reason)
	if v := fiscal.ValidateRequest(reason, in.CustomReason, in.ResponsibleName, in.ResponsibleDocument); !v.Valid {
		return nil, domain.NewValidationError(v.Field, v.Error)
	}
	respDocType := defaultDocType(in.ResponsibleDocType)
	if _, ok := dte.ValidIdentityDocumentTypes[respDocType]; !ok {
		return nil, domain.NewValidationError("responsible_doc_type", "tipo de documento de identificación inválido")
	}

	req, err := m.submissionRequest(ctx, doc)
	if err != nil {
		return nil, err
	}
	creds, err := m.signingCredentials(ctx, companyID)
	if err != nil {
		return nil, err
	}

	reasonInfo, _ := reason.Info()
	record := &entity.Invalidation{
		ID:                   uuid.New().String(),
		DocumentID:           doc.ID,
		CompanyID:            companyID,
		Reason:               reason,
		ReasonText:           fiscal.ReasonText(reason, in.CustomReason),
		ResponsibleName:      strings.TrimSpace(in.ResponsibleName),
		ResponsibleDocType:   respDocType,
		ResponsibleDocNumber: strings.TrimSpace(in.ResponsibleDocument),
		InvalidationCode:     strings.ToUpper(uuid.New().String()),
		RequestedAt:          now,
		CreatedAt:            now,
	}
	invReq := buildInvalidationRequest(req, record, reasonInfo.Code, in, m.cfg.Ambiente)

	// La anulación no se cancela a mitad de camino aunque el cliente HTTP se desconecte.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.SubmitTimeout)
	defer cancel()
	receipt, err := callWithTimeout(callCtx, func(ctx context.Context) (*entity.InvalidationReceipt, error) {
		return m.deps.Invalidator.Invalidate(ctx, invReq, creds)
	})
	if err != nil {
		m.log.Warn().Err(err).Str("document_id", doc.ID).Msg("anulación rechazada o fallida")
		return nil, asSubmissionError("anulación", err)
	}
	if receipt != nil {
		record.ReceptionSeal = receipt.ReceptionSeal
	}

	prev := doc.Status
	doc.Status = entity.StatusAnulada
	doc.Invalidated = true
	doc.UpdatedAt = now

	persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancelPersist()
	err = m.deps.TxRunner.RunDocuments(persistCtx, func(s DocumentStores) error {
		if err := s.Documents.UpdateStatus(persistCtx, doc, prev); err != nil {
			return err
		}
		return s.Invalidations.Create(persistCtx, record)
	})
	if err != nil {
		m.log.Error().Err(err).Str("document_id", doc.ID).Msg("anulación aceptada por Hacienda pero no persistida")
		return nil, err
	}

	m.log.Info().Str("document_id", doc.ID).Str("reason", string(reason)).Msg("documento anulado")

	return &dto.InvalidationResponse{
		DocumentID:       doc.ID,
		Status:           string(doc.Status),
		Reason:           string(reason),
		ReasonCode:       reasonInfo.Code,
		ReasonText:       record.ReasonText,
		InvalidationCode: record.InvalidationCode,
		ReceptionSeal:    record.ReceptionSeal,
		InvalidatedAt:    now,
	}, nil
}

func buildInvalidationRequest(req SubmissionRequest, rec *entity.Invalidation, reasonCode int, in dto.InvalidateDocumentRequest, ambiente string) entity.InvalidationRequest {
	doc, company, customer := req.Document, req.Company, req.Customer
	requesterName := strings.TrimSpace(in.RequesterName)
	requesterDocType := defaultDocType(in.RequesterDocType)
	requesterDoc := strings.TrimSpace(in.RequesterDocument)
	if requesterName == "" {
		requesterName, requesterDocType, requesterDoc = customer.Name, customer.DocumentType, customer.DocumentNumber
	}
	return entity.InvalidationRequest{
		Identification: entity.InvalidationIdentification{
			Version:        dte.InvalidationSchemaVersion,
			Ambiente:       ambiente,
			GenerationCode: rec.InvalidationCode,
			EmittedAt:      rec.RequestedAt,
		},
		Issuer: entity.InvalidationIssuer{
			NIT:           company.NIT,
			NRC:           company.NRC,
			Name:          company.Name,
			ActivityCode:  company.ActivityCode,
			ActivityDesc:  company.ActivityDesc,
			Address:       company.Address,
			Phone:         company.Phone,
			Email:         company.Email,
			Establishment: company.EstablishmentCode,
		},
		Document: entity.InvalidatedDocument{
			TypeCode:        doc.TypeCode,
			GenerationCode:  doc.GenerationCode,
			ControlNumber:   doc.ControlNumber,
			ReceptionSeal:   doc.ReceptionSeal,
			IssueDate:       doc.IssueDate,
			ModelType:       dte.ModeloFacturacionPrevio,
			OperationType:   dte.TransmisionNormal,
			Currency:        dte.Moneda,
			Tax:             doc.Totals.Tax.StringFixed(2),
			CustomerDocType: customer.DocumentType,
			CustomerDocNum:  customer.DocumentNumber,
			CustomerName:    customer.Name,
		},
		Motive: entity.InvalidationMotive{
			ReasonCode:           reasonCode,
			ReasonText:           rec.ReasonText,
			ResponsibleName:      rec.ResponsibleName,
			ResponsibleDocType:   rec.ResponsibleDocType,
			ResponsibleDocNumber: rec.ResponsibleDocNumber,
			RequesterName:        requesterName,
			RequesterDocType:     requesterDocType,
			RequesterDocNumber:   requesterDoc,
			RequestedAt:          rec.RequestedAt,
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Modificación
// ═══════════════════════════════════════════════════════════════════════════════

// Modify edita el documento y lo deja en Modificada. Antes de la aceptación se pueden
// cambiar cliente y líneas (se recalculan los montos); después solo los textos libres,
// y un documento Completada no cambia de estado.
func (m *LifecycleManager) Modify(ctx context.Context, companyID, id string, in dto.UpdateDocumentRequest) (*dto.DocumentResponse, error) {
	if !m.acquire(id) {
		return nil, busyError(id, entity.StatusModificada)
	}
	defer m.release(id)

	doc, err := m.loadDocument(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := m.recoverInterrupted(ctx, doc); err != nil {
		return nil, err
	}
	if err := fiscal.CheckTransition(doc, entity.StatusModificada); err != nil {
		return nil, err
	}

	fiscalEdit := in.CustomerID != nil || len(in.Items) > 0
	if !fiscalEdit && in.Delivery == nil && in.Observations == nil {
		return nil, domain.NewValidationError("", "no hay cambios que aplicar")
	}
	if fiscalEdit && doc.HasAcceptance() {
		return nil, domain.NewValidationError("items", "el contenido fiscal de un documento aceptado por Hacienda no se puede modificar")
	}

	if fiscalEdit {
		customerID := doc.CustomerID
		if in.CustomerID != nil {
			customerID = *in.CustomerID
		}
		customer, err := m.loadCustomer(ctx, companyID, customerID)
		if err != nil {
			return nil, err
		}
		if doc.RelatedDocumentID != "" && customer.ID != doc.CustomerID {
			return nil, domain.NewValidationError("customer_id", "una nota no puede cambiar de cliente")
		}
		if len(in.Items) > 0 {
			items, err := m.buildItems(ctx, companyID, in.Items)
			if err != nil {
				return nil, err
			}
			for i := range items {
				items[i].DocumentID = doc.ID
			}
			doc.Items = items
		}
		totals, err := fiscal.ComputeTotals(doc.Items, doc.TypeCode, customer.HasRetention, m.cfg.TaxFactor)
		if err != nil {
			return nil, err
		}
		doc.CustomerID = customer.ID
		doc.Totals = totals
	}
	if in.Delivery != nil {
		doc.Delivery = toDelivery(*in.Delivery)
	}
	if in.Observations != nil {
		doc.Observations = strings.TrimSpace(*in.Observations)
	}

	prev := doc.Status
	// En un documento completado solo cambian textos libres; conserva su estado y sigue anulable.
	if prev != entity.StatusCompletada {
		doc.Status = entity.StatusModificada
	}
	doc.UpdatedAt = m.now()
	if err := m.deps.Documents.UpdateContent(ctx, doc, prev); err != nil {
		return nil, err
	}

	m.log.Info().Str("document_id", doc.ID).Str("from", string(prev)).Str("to", string(doc.Status)).Bool("fiscal", fiscalEdit).Msg("documento modificado")
	return toDocumentResponse(doc), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Consultas
// ═══════════════════════════════════════════════════════════════════════════════

// Get devuelve el documento con sus líneas.
func (m *LifecycleManager) Get(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	doc, err := m.loadDocument(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// Status vista ligera para polling.
func (m *LifecycleManager) Status(ctx context.Context, companyID, id string) (*dto.DocumentStatusResponse, error) {
	doc, err := m.loadDocument(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return &dto.DocumentStatusResponse{
		ID:             doc.ID,
		Status:         string(doc.Status),
		GenerationCode: doc.GenerationCode,
		ControlNumber:  doc.ControlNumber,
		ReceptionSeal:  doc.ReceptionSeal,
		LastError:      doc.LastError,
	}, nil
}

// List documentos de la empresa con filtros opcionales.
func (m *LifecycleManager) List(ctx context.Context, companyID string, in dto.DocumentFilterRequest) (*dto.DocumentListResponse, error) {
	in.DefaultPage()
	filter := repository.DocumentFilter{CompanyID: companyID, Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		status := entity.Status(in.Status)
		if !validStatus(status) {
			return nil, domain.NewValidationError("status", "estado desconocido")
		}
		filter.Status = status
	}
	if in.TypeCode != "" {
		typeCode, err := dte.ParseDocumentType(in.TypeCode)
		if err != nil {
			return nil, domain.NewValidationError("type_code", "tipo de documento desconocido")
		}
		filter.TypeCode = typeCode
	}
	docs, err := m.deps.Documents.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.DocumentListResponse{
		Items: make([]dto.DocumentResponse, 0, len(docs)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}
	for _, d := range docs {
		out.Items = append(out.Items, *toDocumentResponse(d))
	}
	return out, nil
}

// VerificationURL URL de consulta pública para el QR de un documento aceptado.
func (m *LifecycleManager) VerificationURL(ctx context.Context, companyID, id string) (*dto.VerificationResponse, error) {
	doc, err := m.loadDocument(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !doc.HasAcceptance() {
		return nil, &domain.StateError{DocumentID: doc.ID, From: string(doc.Status), To: string(entity.StatusCompletada),
			Detail: "el documento aún no fue aceptado por Hacienda"}
	}
	url, err := dte.VerificationURL(m.cfg.Ambiente, doc.GenerationCode, doc.IssueDate)
	if err != nil {
		return nil, err
	}
	return &dto.VerificationResponse{DocumentID: doc.ID, URL: url}, nil
}

// ── helpers privados ──────────────────────────────────────────────────────────

func (m *LifecycleManager) loadDocument(ctx context.Context, companyID, id string) (*entity.Document, error) {
	doc, err := m.deps.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar documento: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

func (m *LifecycleManager) loadCustomer(ctx context.Context, companyID, id string) (*entity.Customer, error) {
	customer, err := m.deps.Customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar cliente: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("cliente %s: %w", id, domain.ErrNotFound)
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return customer, nil
}

func (m *LifecycleManager) signingCredentials(ctx context.Context, companyID string) (*entity.Credentials, error) {
	creds, err := m.deps.Credentials.Credentials(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !creds.CanSign() {
		return nil, domain.ErrCertificateRequired
	}
	return creds, nil
}

func (m *LifecycleManager) acquire(id string) bool {
	_, loaded := m.inflight.LoadOrStore(id, struct{}{})
	return !loaded
}

func (m *LifecycleManager) release(id string) {
	m.inflight.Delete(id)
}

func busyError(id string, to entity.Status) error {
	return &domain.StateError{DocumentID: id, From: "?", To: string(to), Detail: "hay otra operación en curso para el documento"}
}

// callWithTimeout respeta el deadline de ctx aunque fn lo ignore.
func callWithTimeout[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func asSubmissionError(op string, err error) error {
	var subErr *domain.SubmissionError
	if errors.As(err, &subErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.SubmissionError{Op: op, Cause: fmt.Errorf("tiempo de espera agotado: %w", err)}
	}
	return &domain.SubmissionError{Op: op, Cause: err}
}

func defaultDocType(code string) string {
	if code == "" {
		return dte.IDDUI
	}
	return code
}

func validStatus(s entity.Status) bool {
	switch s {
	case entity.StatusNueva, entity.StatusSincronizando, entity.StatusCompletada, entity.StatusAnulada, entity.StatusModificada:
		return true
	}
	return false
}
