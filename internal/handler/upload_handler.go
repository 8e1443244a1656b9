package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Upload stores a single image sent as the "file" form field and returns its path
func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No file uploaded"})
	}
	img, done, err := openImage(fh)
	if err != nil {
		return fail(c, err)
	}
	defer done()

	path, err := h.svc.Uploads.Upload(c.Request().Context(), *img)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"path": path})
}
