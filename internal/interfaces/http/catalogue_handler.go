package http

import (
	"context"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// ActivitySearcher búsqueda en el catálogo de actividades económicas.
type ActivitySearcher interface {
	Search(ctx context.Context, term string, limit int) ([]entity.EconomicActivity, error)
}

// CatalogueHandler sirve los catálogos de Hacienda.
type CatalogueHandler struct {
	activities ActivitySearcher
}

func NewCatalogueHandler(activities ActivitySearcher) *CatalogueHandler {
	return &CatalogueHandler{activities: activities}
}

// List godoc
// @Summary      Catálogos de tipos de documento, motivos de anulación y unidades
// @Tags         catalogues
// @Produce      json
// @Success      200  {object}  dto.CataloguesResponse
// @Router       /api/catalogues [get]
func (h *CatalogueHandler) List(c *fiber.Ctx) error {
	out := dto.CataloguesResponse{
		DocumentTypes:       dte.DocumentTypes(),
		InvalidationReasons: dte.InvalidationReasons(),
		Statuses: []string{
			string(entity.StatusNueva), string(entity.StatusSincronizando), string(entity.StatusCompletada),
			string(entity.StatusAnulada), string(entity.StatusModificada),
		},
	}
	for code, label := range dte.ValidIdentityDocumentTypes {
		out.IdentityDocuments = append(out.IdentityDocuments, dto.CodeLabel{Code: code, Label: label})
	}
	sort.Slice(out.IdentityDocuments, func(i, j int) bool { return out.IdentityDocuments[i].Code < out.IdentityDocuments[j].Code })
	for code := range dte.ValidUnitCodes {
		out.UnitMeasures = append(out.UnitMeasures, code)
	}
	sort.Ints(out.UnitMeasures)
	return c.JSON(out)
}

// Activities GET /api/catalogues/activities?q=venta
func (h *CatalogueHandler) Activities(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("q"))
	if len(term) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "q requiere al menos 2 caracteres", Field: "q"})
	}
	list, err := h.activities.Search(c.Context(), term, 20)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ActivityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.ActivityResponse{Code: a.Code, Description: a.Description})
	}
	return c.JSON(out)
}
