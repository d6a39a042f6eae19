package fiscal_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
)

func TestCheckTransition_Tabla(t *testing.T) {
	cases := []struct {
		from, to entity.Status
		ok       bool
	}{
		{entity.StatusNueva, entity.StatusSincronizando, true},
		{entity.StatusNueva, entity.StatusModificada, true},
		{entity.StatusNueva, entity.StatusCompletada, false},
		{entity.StatusNueva, entity.StatusAnulada, false},
		{entity.StatusSincronizando, entity.StatusCompletada, true},
		{entity.StatusSincronizando, entity.StatusNueva, true},
		{entity.StatusSincronizando, entity.StatusModificada, false},
		{entity.StatusCompletada, entity.StatusAnulada, true},
		{entity.StatusCompletada, entity.StatusModificada, true},
		{entity.StatusCompletada, entity.StatusSincronizando, false},
		{entity.StatusModificada, entity.StatusSincronizando, true},
		{entity.StatusAnulada, entity.StatusNueva, false},
		{entity.StatusAnulada, entity.StatusModificada, false},
		{entity.StatusAnulada, entity.StatusCompletada, false},
	}
	for _, tc := range cases {
		doc := &entity.Document{ID: "d", Status: tc.from}
		err := fiscal.CheckTransition(doc, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
			continue
		}
		require.Error(t, err, "%s -> %s", tc.from, tc.to)
		assert.True(t, errors.Is(err, domain.ErrState))
	}
}

func TestAnuladaEsTerminal(t *testing.T) {
	assert.True(t, fiscal.IsTerminal(entity.StatusAnulada))
	assert.False(t, fiscal.IsTerminal(entity.StatusCompletada))
}

func TestCheckTransition_ModificadaAceptadaNoSeRetransmite(t *testing.T) {
	doc := completedDoc(0)
	doc.Status = entity.StatusModificada
	err := fiscal.CheckTransition(doc, entity.StatusSincronizando)
	var stateErr *domain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Contains(t, stateErr.Detail, "aceptado")
}

func TestApplyAcceptance(t *testing.T) {
	doc := &entity.Document{ID: "d", Status: entity.StatusSincronizando, LastError: "timeout"}
	err := fiscal.ApplyAcceptance(doc, &entity.Acceptance{GenerationCode: "G", ControlNumber: "C", ReceptionSeal: "S"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompletada, doc.Status)
	assert.True(t, doc.HasAcceptance())
	assert.Empty(t, doc.LastError)
}

func TestApplyAcceptance_Incompleta(t *testing.T) {
	doc := &entity.Document{ID: "d", Status: entity.StatusSincronizando}
	err := fiscal.ApplyAcceptance(doc, &entity.Acceptance{GenerationCode: "G", ControlNumber: "C"})

	var incomplete *domain.IncompleteAcceptanceError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"selloRecibido"}, incomplete.Missing)
	assert.Equal(t, entity.StatusSincronizando, doc.Status, "el documento no cambia")
	assert.Empty(t, doc.GenerationCode, "no se guardan identificadores parciales")

	err = fiscal.ApplyAcceptance(doc, nil)
	require.ErrorAs(t, err, &incomplete)
	assert.Len(t, incomplete.Missing, 3)
}

func TestRollback(t *testing.T) {
	doc := &entity.Document{ID: "d", Status: entity.StatusSincronizando, GenerationCode: "G"}
	require.NoError(t, fiscal.Rollback(doc, errors.New("sin conexión")))
	assert.Equal(t, entity.StatusNueva, doc.Status)
	assert.Empty(t, doc.GenerationCode)
	assert.Equal(t, "sin conexión", doc.LastError)

	assert.Error(t, fiscal.Rollback(&entity.Document{Status: entity.StatusCompletada}, nil))
}
