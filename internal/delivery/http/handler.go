package http

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flyerkit/backend/internal/domain"
	"github.com/flyerkit/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxUploadSize bounds a single theme or product image
const MaxUploadSize = 10 << 20

// multipartOverhead leaves room for form fields and part headers around the image
const multipartOverhead = 1 << 20

var (
	uploadKinds      = map[string]bool{"themes": true, "products": true}
	uploadExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	campaigns *usecase.CampaignService
	catalog   *usecase.CatalogService
	storage   domain.FileStorage
}

// NewHandler creates a new HTTP handler
func NewHandler(campaigns *usecase.CampaignService, catalog *usecase.CatalogService, storage domain.FileStorage) *Handler {
	return &Handler{
		campaigns: campaigns,
		catalog:   catalog,
		storage:   storage,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "flyerkit-backend",
		"version": "1.0.0",
	})
}

// ParseOffers parses pasted offer text without staging it
func (h *Handler) ParseOffers(c *gin.Context) {
	var req domain.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.campaigns.Parse(req.Text))
}

// CreateDraft parses offer text and stages it for review
func (h *Handler) CreateDraft(c *gin.Context) {
	var req domain.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	draft, err := h.campaigns.ParseDraft(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

func (h *Handler) GetDraft(c *gin.Context) {
	draft, err := h.campaigns.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// CreateCampaign stores a reviewed campaign and renders its flyers
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req domain.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.campaigns.CreateCampaign(c.Request.Context(), &req)
	if err != nil {
		if result != nil {
			// Stored but not rendered; the client retries through the render endpoint
			c.JSON(statusFor(err), gin.H{"error": err.Error(), "campaign": result.Campaign})
			return
		}
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.ListCampaigns(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func (h *Handler) GetCampaign(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) DeleteCampaign(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.campaigns.DeleteCampaign(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DuplicateCampaign(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	campaign, err := h.campaigns.DuplicateCampaign(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// RenderCampaign regenerates the flyer images of a stored campaign
func (h *Handler) RenderCampaign(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	result, err := h.campaigns.RenderCampaign(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportCampaignItems streams the campaign items as CSV
func (h *Handler) ExportCampaignItems(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if _, err := h.campaigns.GetCampaign(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename=campaign_"+strconv.FormatInt(id, 10)+"_items.csv")
	c.Status(http.StatusOK)
	if err := h.campaigns.ExportItemsCSV(c.Request.Context(), id, c.Writer); err != nil {
		// Headers are already sent
		log.Printf("[HTTP] CSV export for campaign %d failed: %v", id, err)
	}
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var input domain.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input domain.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.catalog.ListTemplates(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var input domain.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	template, err := h.catalog.CreateTemplate(c.Request.Context(), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	template, err := h.catalog.GetTemplate(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input domain.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	template, err := h.catalog.UpdateTemplate(c.Request.Context(), id, &input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteTemplate(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Upload stores a theme or product image and returns the path it is served from
func (h *Handler) Upload(c *gin.Context) {
	limit := int64(MaxUploadSize + multipartOverhead)
	if c.Request.ContentLength > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.Request.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	kind := c.PostForm("kind")
	if !uploadKinds[kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'themes' or 'products'"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !uploadExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .jpg, .jpeg, .png and .webp images are accepted"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded file"})
		return
	}
	defer file.Close()

	path, err := h.storage.Save(c.Request.Context(), kind, uuid.NewString()+ext, file)
	if err != nil {
		handleError(c, err)
		return
	}

	log.Printf("[UPLOAD] Stored %s image at %s", kind, path)
	c.JSON(http.StatusCreated, gin.H{"path": path})
}

// idParam parses the :id path parameter, answering 400 when it is not a positive integer
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// statusFor classifies service errors into HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDraftNotFound),
		errors.Is(err, domain.ErrCampaignNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateProduct):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrRenderFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func handleError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
