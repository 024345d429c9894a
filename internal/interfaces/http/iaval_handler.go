package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/application/iaval"
)

// IavalHandler expone la validación asistida de remitos (iAVaL).
type IavalHandler struct {
	uc *iaval.UseCase
}

// NewIavalHandler construye el handler.
func NewIavalHandler(uc *iaval.UseCase) *IavalHandler {
	return &IavalHandler{uc: uc}
}

// Preview godoc
// @Summary      Vista previa iAVaL
// @Description  Envía el remito adjunto al modelo, compara la propuesta con la
//
//	compra cargada y devuelve solo las diferencias. No escribe nada.
//
// @Tags         iaval
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  dto.IavalPreviewResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/iaval/preview [post]
func (h *IavalHandler) Preview(c *fiber.Ctx) error {
	out, err := h.uc.Preview(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Apply godoc
// @Summary      Aplicar propuesta iAVaL
// @Description  Aplica sobre la compra en borrador los campos propuestos que
//
//	difieren de los cargados y asienta el episodio con sus artefactos
//	(JSON y CSV) en la bitácora.
//
// @Tags         iaval
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la compra"
// @Param        body  body  dto.IavalApplyRequest  true  "propuesta a aplicar"
// @Success      200   {object}  dto.IavalApplyResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/iaval/apply [post]
func (h *IavalHandler) Apply(c *fiber.Ctx) error {
	var in dto.IavalApplyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Apply(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}
