package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// DocumentHandler expone el ciclo de vida de los DTE (protegido).
type DocumentHandler struct {
	mgr         *billing.LifecycleManager
	waitTimeout time.Duration
}

// NewDocumentHandler waitTimeout acota ?wait=true en la transmisión; por defecto 35 s.
func NewDocumentHandler(mgr *billing.LifecycleManager, waitTimeout time.Duration) *DocumentHandler {
	if waitTimeout <= 0 {
		waitTimeout = 35 * time.Second
	}
	return &DocumentHandler{mgr: mgr, waitTimeout: waitTimeout}
}

// Create godoc
// @Summary      Crear documento (queda en estado Nueva con su correlativo)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Tipo, cliente y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.mgr.Create(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "Nueva | Sincronizando | Completada | Anulada | Modificada"
// @Param        type_code  query  string  false  "01, 03, ..."
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var in dto.DocumentFilterRequest
	if err := c.QueryParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.mgr.List(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.mgr.Get(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Status GET /api/documents/:id/status, para polling tras una transmisión.
func (h *DocumentHandler) Status(c *fiber.Ctx) error {
	out, err := h.mgr.Status(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Modify godoc
// @Summary      Modificar documento
// @Description  Antes de la aceptación se pueden cambiar líneas y cliente; después solo entrega y observaciones.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del documento"
// @Param        body  body  dto.UpdateDocumentRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [patch]
func (h *DocumentHandler) Modify(c *fiber.Ctx) error {
	var in dto.UpdateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.mgr.Modify(c.Context(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Transmitir a Hacienda
// @Description  Responde 202 y la transmisión sigue en segundo plano; consultar /status. Con wait=true espera el resultado.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del documento"
// @Param        wait  query  bool    false  "Esperar el resultado"
// @Success      200   {object}  dto.DocumentResponse
// @Success      202   {object}  dto.DocumentStatusResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      412   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/submit [post]
func (h *DocumentHandler) Submit(c *fiber.Ctx) error {
	companyID, id := GetCompanyID(c), c.Params("id")
	if !c.QueryBool("wait", false) {
		task, err := h.mgr.Submit(c.Context(), companyID, id)
		if err != nil {
			return writeError(c, err)
		}
		c.Location("/api/documents/" + task.DocumentID + "/status")
		return c.Status(fiber.StatusAccepted).JSON(dto.DocumentStatusResponse{
			ID:     task.DocumentID,
			Status: string(entity.StatusSincronizando),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.waitTimeout)
	defer cancel()
	result, err := h.mgr.SubmitAndWait(ctx, companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	if !result.Accepted() {
		return writeError(c, result.Cause)
	}
	if result.PersistErr != nil {
		return writeError(c, result.PersistErr)
	}
	out, err := h.mgr.Get(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Invalidate godoc
// @Summary      Anular documento ante Hacienda
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del documento"
// @Param        body  body  dto.InvalidateDocumentRequest  true  "Motivo y responsable"
// @Success      200   {object}  dto.InvalidationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/invalidate [post]
func (h *DocumentHandler) Invalidate(c *fiber.Ctx) error {
	var in dto.InvalidateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.mgr.Invalidate(c.Context(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// VerificationURL GET /api/documents/:id/qr
func (h *DocumentHandler) VerificationURL(c *fiber.Ctx) error {
	out, err := h.mgr.VerificationURL(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
