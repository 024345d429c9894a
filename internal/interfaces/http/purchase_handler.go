package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/application/purchase"
)

// PurchaseHandler maneja el ciclo de vida de compras (protegido).
type PurchaseHandler struct {
	uc          *purchase.UseCase
	pdf         *purchase.PDFUseCase
	attachments *purchase.AttachmentUseCase
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *purchase.UseCase, pdf *purchase.PDFUseCase, attachments *purchase.AttachmentUseCase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc, pdf: pdf, attachments: attachments}
}

// Create godoc
// @Summary      Crear compra en borrador
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SavePurchaseRequest  true  "encabezado + renglones"
// @Success      201   {object}  dto.PurchaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var in dto.SavePurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar compras de la empresa
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máx. resultados (default 20)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.PurchaseResponse
// @Router       /api/purchases [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	out, err := h.uc.List(c.Context(), GetCompanyID(c), page.Limit, page.Offset)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener compra con renglones y totales
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Guardar compra (documento completo, solo en borrador)
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la compra"
// @Param        body  body  dto.SavePurchaseRequest  true  "encabezado + renglones"
// @Success      200   {object}  dto.PurchaseResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [put]
func (h *PurchaseHandler) Update(c *fiber.Ctx) error {
	var in dto.SavePurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Save(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar compra (solo borrador o anulada)
// @Tags         purchases
// @Security     Bearer
// @Param        id  path  string  true  "ID de la compra"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [delete]
func (h *PurchaseHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), GetCompanyID(c), c.Params("id")); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Validate godoc
// @Summary      Vincular renglones por SKU exacto del proveedor
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  dto.ValidateResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/validate [post]
func (h *PurchaseHandler) Validate(c *fiber.Ctx) error {
	out, err := h.uc.Validate(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Confirm godoc
// @Summary      Confirmar compra y aplicar stock
// @Description  Aplica los deltas de cantidad de los renglones resueltos, cambia
//
//	el estado a confirmada y asienta el episodio en la bitácora. Los renglones
//	sin vincular no bloquean: quedan reportados en la respuesta.
//
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  dto.ConfirmResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/confirm [post]
func (h *PurchaseHandler) Confirm(c *fiber.Ctx) error {
	out, err := h.uc.Confirm(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular compra
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Param        id    path  string             true  "ID de la compra"
// @Param        body  body  dto.CancelRequest  true  "motivo"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/cancel [post]
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Cancel(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in.Reason); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResendStock godoc
// @Summary      Reenviar stock de una compra confirmada
// @Description  Con dry_run=true solo calcula y devuelve los deltas, sin tocar
//
//	nada. Sin dry_run vuelve a aplicar los deltas como un episodio nuevo.
//
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "ID de la compra"
// @Param        body  body  dto.ResendStockRequest  false  "dry_run"
// @Success      200   {object}  dto.ResendStockResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/resend-stock [post]
func (h *PurchaseHandler) ResendStock(c *fiber.Ctx) error {
	var in dto.ResendStockRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	out, err := h.uc.ResendStock(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in.DryRun)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Rollback godoc
// @Summary      Revertir el último episodio de stock
// @Description  Aplica el espejo exacto de los deltas del último episodio
//
//	(confirmación o reenvío). El estado de la compra no cambia. Un episodio
//	solo se revierte una vez.
//
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  dto.RollbackResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/rollback [post]
func (h *PurchaseHandler) Rollback(c *fiber.Ctx) error {
	out, err := h.uc.Rollback(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Logs godoc
// @Summary      Bitácora de la compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID de la compra"
// @Param        limit  query  int     false  "máx. entradas (default 50)"
// @Success      200  {array}  dto.PurchaseLogResponse
// @Router       /api/purchases/{id}/logs [get]
func (h *PurchaseHandler) Logs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 {
		limit = 50
	}
	out, err := h.uc.Logs(c.Context(), GetCompanyID(c), c.Params("id"), limit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Descargar la representación imprimible de la compra
// @Tags         purchases
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/pdf [get]
func (h *PurchaseHandler) DownloadPDF(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.pdf.DownloadPurchasePDF(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// UploadAttachment godoc
// @Summary      Adjuntar el remito original (PDF)
// @Tags         purchases
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "ID de la compra"
// @Param        file  formData  file    true  "archivo del remito"
// @Success      201   {object}  dto.AttachmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/attachments [post]
func (h *PurchaseHandler) UploadAttachment(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "falta el campo file (multipart)"})
	}
	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "no se pudo leer el archivo"})
	}
	defer f.Close()

	mime := fileHeader.Header.Get("Content-Type")
	out, err := h.attachments.Upload(c.Context(), GetCompanyID(c), c.Params("id"),
		fileHeader.Filename, mime, fileHeader.Size, f)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListAttachments godoc
// @Summary      Listar adjuntos de la compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {array}  dto.AttachmentResponse
// @Router       /api/purchases/{id}/attachments [get]
func (h *PurchaseHandler) ListAttachments(c *fiber.Ctx) error {
	out, err := h.attachments.List(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}
