package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/application/usecase"
)

// CompanyHandler maneja las peticiones HTTP para el emisor y sus credenciales.
type CompanyHandler struct {
	uc    *usecase.CompanyUseCase
	creds *billing.CredentialService
}

// NewCompanyHandler construye el handler inyectando los casos de uso.
func NewCompanyHandler(uc *usecase.CompanyUseCase, creds *billing.CredentialService) *CompanyHandler {
	return &CompanyHandler{uc: uc, creds: creds}
}

// Create godoc
// @Summary      Registrar empresa emisora
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCompanyRequest  true  "Datos de la empresa"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Me godoc
// @Summary      Empresa del usuario autenticado
// @Tags         companies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CompanyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/companies/me [get]
func (h *CompanyHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar datos del emisor (solo admin)
// @Tags         companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateCompanyRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/companies/me [put]
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetCredentials godoc
// @Summary      Registrar credenciales de Hacienda y del certificado (solo admin)
// @Tags         companies
// @Security     Bearer
// @Accept       json
// @Param        body  body  dto.SetCredentialsRequest  true  "Usuario y claves"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/companies/me/credentials [put]
func (h *CompanyHandler) SetCredentials(c *fiber.Ctx) error {
	var in dto.SetCredentialsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.creds.Set(c.Context(), GetCompanyID(c), in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
