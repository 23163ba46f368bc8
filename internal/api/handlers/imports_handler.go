package handlers

import (
	"io"
	"net/http"

	"example.com/backstage/foodshare/internal/importer"
	"example.com/backstage/foodshare/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const uploadField = "files"

// ImportsHandler accepts bulk uploads and integrity checks
type ImportsHandler struct {
	service        *services.DashboardService
	maxUploadBytes int64
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(service *services.DashboardService, maxUploadBytes int64) *ImportsHandler {
	return &ImportsHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// HandleImport loads every uploaded file. The response carries one result
// per file; it is 422 only when no file could be loaded.
func (h *ImportsHandler) HandleImport(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		badRequest(c, errors.Wrap(err, "invalid multipart upload"))
		return
	}

	headers := form.File[uploadField]
	if len(headers) == 0 {
		badRequest(c, errors.Errorf("no files uploaded in field %q", uploadField))
		return
	}

	files := make([]importer.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, errors.Wrapf(err, "failed to open %s", fh.Filename))
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			badRequest(c, errors.Wrapf(err, "failed to read %s", fh.Filename))
			return
		}
		files = append(files, importer.File{Name: fh.Filename, Content: content})
	}

	results := h.service.Import(c.Request.Context(), files...)

	status := http.StatusUnprocessableEntity
	for _, r := range results {
		if r.OK() {
			status = http.StatusOK
			break
		}
	}
	c.JSON(status, gin.H{"results": results})
}

// HandleIntegrity runs the reference and schema checks
func (h *ImportsHandler) HandleIntegrity(c *gin.Context) {
	report, err := h.service.CheckIntegrity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"consistent": report.Consistent(),
		"references": report.References,
		"schema":     report.Schema,
	})
}

// RegisterRoutes registers the handler's routes
func (h *ImportsHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/imports", h.HandleImport)
	router.GET("/integrity", h.HandleIntegrity)
}
