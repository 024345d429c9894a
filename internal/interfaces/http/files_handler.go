package http

import (
	"mime"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/application/iaval"
)

// FilesHandler sirve archivos guardados (remitos adjuntos, artefactos iAVaL).
type FilesHandler struct {
	files iaval.FileStore
}

// NewFilesHandler construye el handler.
func NewFilesHandler(files iaval.FileStore) *FilesHandler {
	return &FilesHandler{files: files}
}

// Download godoc
// @Summary      Descargar un archivo guardado
// @Tags         files
// @Security     Bearer
// @Param        name  path  string  true  "referencia del archivo"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/files/{name} [get]
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	name := c.Params("name")
	rc, err := h.files.Open(c.Context(), name)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "archivo no encontrado"})
	}
	// fasthttp cierra el stream (io.Closer) al terminar de enviar el cuerpo.
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	} else {
		c.Set(fiber.HeaderContentType, "application/octet-stream")
	}
	return c.SendStream(rc)
}
