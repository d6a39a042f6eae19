package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/dte-api/internal/application/dto"
)

// credentialChecker lo implementa *billing.CredentialService.
type credentialChecker interface {
	Has(ctx context.Context, companyID string) (bool, error)
}

// RequireCredentials corta la transmisión si la empresa del token no tiene registrada
// la clave del certificado. Debe usarse DESPUÉS de AuthMiddleware.
//
//   - 412 Precondition Failed → sin clave del certificado.
//   - 503 Service Unavailable → no se pudo consultar el repositorio.
func RequireCredentials(checker credentialChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "company_id no encontrado en el token",
			})
		}

		ok, err := checker.Has(c.Context(), companyID)
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("consulta de credenciales")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "CREDENTIALS_CHECK_FAILED",
				Message: "no se pudieron verificar las credenciales, intente más tarde",
			})
		}
		if !ok {
			return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{
				Code:    "CERTIFICATE_REQUIRED",
				Message: "la empresa no tiene registrada la clave del certificado de firma",
			})
		}
		return c.Next()
	}
}
