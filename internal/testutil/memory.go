// Package testutil dobles en memoria de los puertos de persistencia y de Hacienda.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// DocumentStore implementa DocumentRepository y DocumentTxRunner; Invalidations() expone las anulaciones.
// Guarda copias para que los cambios del llamador no se filtren sin pasar por Update.
type DocumentStore struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	docs          map[string]*entity.Document
	invalidations map[string]*entity.Invalidation
	failUpdate    error
	failTimes     int
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:          make(map[string]*entity.Document),
		invalidations: make(map[string]*entity.Invalidation),
	}
}

var (
	_ repository.DocumentRepository     = (*DocumentStore)(nil)
	_ repository.InvalidationRepository = invalidationView{}
	_ billing.DocumentTxRunner          = (*DocumentStore)(nil)
)

func cloneDoc(d *entity.Document) *entity.Document {
	c := *d
	c.Items = append([]entity.LineItem(nil), d.Items...)
	return &c
}

func (s *DocumentStore) RunNumbering(ctx context.Context, companyID string, typeCode dte.DocumentType, fn func(billing.DocumentStores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(billing.DocumentStores{Documents: s, Invalidations: s.Invalidations()})
}

func (s *DocumentStore) RunDocuments(ctx context.Context, fn func(billing.DocumentStores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(billing.DocumentStores{Documents: s, Invalidations: s.Invalidations()})
}

func (s *DocumentStore) Create(ctx context.Context, doc *entity.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, d := range s.docs {
		if d.CompanyID == doc.CompanyID && d.TypeCode == doc.TypeCode && d.Number == doc.Number {
			return domain.ErrDuplicate
		}
	}
	s.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (s *DocumentStore) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(d), nil
}

func (s *DocumentStore) MaxNumber(ctx context.Context, companyID string, typeCode dte.DocumentType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for _, d := range s.docs {
		if d.CompanyID != companyID || d.TypeCode != typeCode {
			continue
		}
		if n, err := strconv.ParseInt(d.Number, 10, 64); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

// FailUpdates hace que UpdateStatus devuelva err las próximas times llamadas; times 0 es siempre.
// FailUpdates(nil, 0) restablece el comportamiento normal.
func (s *DocumentStore) FailUpdates(err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate, s.failTimes = err, times
}

func (s *DocumentStore) UpdateStatus(ctx context.Context, doc *entity.Document, expected entity.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failUpdate; err != nil {
		if s.failTimes > 0 {
			s.failTimes--
			if s.failTimes == 0 {
				s.failUpdate = nil
			}
		}
		return err
	}
	cur, ok := s.docs[doc.ID]
	if !ok || cur.Status != expected {
		return domain.ErrConflict
	}
	cur.Status = doc.Status
	cur.GenerationCode = doc.GenerationCode
	cur.ControlNumber = doc.ControlNumber
	cur.ReceptionSeal = doc.ReceptionSeal
	cur.Invalidated = doc.Invalidated
	cur.LastError = doc.LastError
	cur.UpdatedAt = doc.UpdatedAt
	return nil
}

func (s *DocumentStore) UpdateContent(ctx context.Context, doc *entity.Document, expected entity.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.docs[doc.ID]
	if !ok || cur.Status != expected {
		return domain.ErrConflict
	}
	s.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (s *DocumentStore) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Document
	for _, d := range s.docs {
		if d.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.TypeCode != "" && d.TypeCode != f.TypeCode {
			continue
		}
		out = append(out, cloneDoc(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Mutate modifica el documento guardado sin pasar por las reglas (p. ej. envejecerlo).
func (s *DocumentStore) Mutate(id string, fn func(d *entity.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[id]; ok {
		fn(d)
	}
}

// GetByDocumentID anulación registrada para el documento.
func (s *DocumentStore) GetByDocumentID(ctx context.Context, documentID string) (*entity.Invalidation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invalidations[documentID]
	if !ok {
		return nil, nil
	}
	c := *inv
	return &c, nil
}

// Invalidations expone el repositorio de anulaciones (Create choca con el de documentos).
func (s *DocumentStore) Invalidations() repository.InvalidationRepository {
	return invalidationView{s}
}

type invalidationView struct{ s *DocumentStore }

func (v invalidationView) Create(ctx context.Context, inv *entity.Invalidation) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.invalidations[inv.DocumentID]; ok {
		return domain.ErrDuplicate
	}
	c := *inv
	v.s.invalidations[inv.DocumentID] = &c
	return nil
}

func (v invalidationView) GetByDocumentID(ctx context.Context, documentID string) (*entity.Invalidation, error) {
	return v.s.GetByDocumentID(ctx, documentID)
}
