package fiscal

import (
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
)

var transitions = map[entity.Status][]entity.Status{
	entity.StatusNueva:         {entity.StatusSincronizando, entity.StatusModificada},
	entity.StatusSincronizando: {entity.StatusCompletada, entity.StatusNueva},
	entity.StatusCompletada:    {entity.StatusAnulada, entity.StatusModificada},
	entity.StatusModificada:    {entity.StatusModificada, entity.StatusSincronizando},
	entity.StatusAnulada:       nil,
}

// CheckTransition valida que el documento pueda pasar al estado to.
// Un documento modificado solo vuelve a transmitirse si nunca fue aceptado.
func CheckTransition(doc *entity.Document, to entity.Status) error {
	allowed := false
	for _, s := range transitions[doc.Status] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return &domain.StateError{DocumentID: doc.ID, From: string(doc.Status), To: string(to)}
	}
	if doc.Status == entity.StatusModificada && to == entity.StatusSincronizando && doc.HasAcceptance() {
		return &domain.StateError{
			DocumentID: doc.ID, From: string(doc.Status), To: string(to),
			Detail: "el documento ya fue aceptado por Hacienda",
		}
	}
	return nil
}

// IsTerminal indica si el estado no admite más transiciones.
func IsTerminal(s entity.Status) bool {
	return len(transitions[s]) == 0
}

// ApplyAcceptance pasa el documento a Completada con los tres identificadores.
// Devuelve IncompleteAcceptanceError sin tocar el documento si falta alguno.
func ApplyAcceptance(doc *entity.Document, acc *entity.Acceptance) error {
	if missing := acc.Missing(); len(missing) > 0 {
		return &domain.IncompleteAcceptanceError{Missing: missing}
	}
	if err := CheckTransition(doc, entity.StatusCompletada); err != nil {
		return err
	}
	doc.GenerationCode = acc.GenerationCode
	doc.ControlNumber = acc.ControlNumber
	doc.ReceptionSeal = acc.ReceptionSeal
	doc.Status = entity.StatusCompletada
	doc.LastError = ""
	return nil
}

// Rollback devuelve un documento en transmisión a Nueva sin identificadores parciales.
func Rollback(doc *entity.Document, cause error) error {
	if err := CheckTransition(doc, entity.StatusNueva); err != nil {
		return err
	}
	doc.ClearAcceptance()
	doc.Status = entity.StatusNueva
	if cause != nil {
		doc.LastError = cause.Error()
	}
	return nil
}
