package handler

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/service"
)

// Plafond de longueur du message, appliqué ici car la validation est la
// responsabilité de la couche UI, pas du repository.
const maxMessageLength = 280

type AnchorHandler struct {
	anchorService  service.AnchorService
	storageService service.StorageService
}

func NewAnchorHandler(as service.AnchorService, ss service.StorageService) *AnchorHandler {
	return &AnchorHandler{
		anchorService:  as,
		storageService: ss,
	}
}

// CreateAnchorRequest DTO for binding
type CreateAnchorRequest struct {
	Latitude        *float64 `json:"latitude" binding:"required"`
	Longitude       *float64 `json:"longitude" binding:"required"`
	Altitude        float64  `json:"altitude"`
	MessageText     string   `json:"message_text" binding:"required"`
	Category        string   `json:"category"`
	Severity        string   `json:"severity"`
	UseCase         string   `json:"use_case"`
	UseCaseCategory string   `json:"use_case_category"`
	CloudAnchorID   string   `json:"cloud_anchor_id"`
	WallAnchorID    string   `json:"wall_anchor_id"`
	PhotoURL        string   `json:"photo_url"`
}

func (h *AnchorHandler) Create(c *gin.Context) {
	var req CreateAnchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := strings.TrimSpace(req.MessageText)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message_text must not be blank"})
		return
	}
	if len(message) > maxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message_text exceeds the length cap"})
		return
	}

	report, err := h.anchorService.CreateAnchor(c.Request.Context(), service.CreateAnchorParams{
		Latitude:        *req.Latitude,
		Longitude:       *req.Longitude,
		Altitude:        req.Altitude,
		MessageText:     message,
		Category:        entity.ParseCategory(req.Category),
		Severity:        entity.ParseSeverity(req.Severity),
		UseCase:         req.UseCase,
		UseCaseCategory: req.UseCaseCategory,
		CloudAnchorID:   req.CloudAnchorID,
		WallAnchorID:    req.WallAnchorID,
		PhotoURL:        req.PhotoURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create report: " + err.Error()})
		return
	}

	// Étape explicite: la copie locale existe déjà, l'upload cloud ou la
	// mise en file d'attente suit la politique online/offline du service.
	queued, err := h.anchorService.PublishAnchor(c.Request.Context(), report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish report: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"report": report,
		"queued": queued,
	})
}

func (h *AnchorHandler) List(c *gin.Context) {
	reports, err := h.anchorService.GetAllAnchors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Tri côté UI: URGENT d'abord, puis les plus récents
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Severity.Rank() != reports[j].Severity.Rank() {
			return reports[i].Severity.Rank() < reports[j].Severity.Rank()
		}
		return reports[i].Timestamp > reports[j].Timestamp
	})

	c.JSON(http.StatusOK, reports)
}

func (h *AnchorHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query params are required"})
		return
	}

	radius := 500.0
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a positive number of meters"})
			return
		}
		radius = r
	}

	reports, err := h.anchorService.GetNearbyAnchors(c.Request.Context(), lat, lon, radius)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reports)
}

// Watch diffuse en SSE l'ensemble des signalements proches à chaque
// changement détecté, jusqu'à la déconnexion du client.
func (h *AnchorHandler) Watch(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query params are required"})
		return
	}

	radius := 500.0
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a positive number of meters"})
			return
		}
		radius = r
	}

	updates := h.anchorService.WatchNearby(c.Request.Context(), lat, lon, radius)

	c.Stream(func(w io.Writer) bool {
		reports, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("reports", reports)
		return true
	})
}

func (h *AnchorHandler) Upvote(c *gin.Context) {
	id := c.Param("id")

	if err := h.anchorService.UpvoteIssue(c.Request.Context(), id); err != nil {
		// Best-effort: l'échec est montré à l'utilisateur, pas rejoué
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upvote: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upvote recorded", "id": id})
}

func (h *AnchorHandler) Guidance(c *gin.Context) {
	id := c.Param("id")
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query params are required"})
		return
	}

	report, err := h.anchorService.GetAnchor(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.JSON(http.StatusOK, service.ComputeGuidance(lat, lon, report, service.DefaultArrivalRadiusMeters))
}

// GetPhotoURL retourne une URL de lecture présignée pour la photo jointe au
// signalement.
func (h *AnchorHandler) GetPhotoURL(c *gin.Context) {
	id := c.Param("id")

	report, err := h.anchorService.GetAnchor(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if report.PhotoURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "report has no photo"})
		return
	}

	url, err := h.storageService.GeneratePhotoDownloadURL(c.Request.Context(), report.PhotoURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate download URL: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

func (h *AnchorHandler) GetUploadURL(c *gin.Context) {
	fileName := c.Query("file_name")
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_name query param is required"})
		return
	}

	objectKey, url, err := h.storageService.GeneratePhotoUploadURL(c.Request.Context(), fileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object_key": objectKey,
		"upload_url": url,
	})
}

// SurfaceAnchorRequest DTO pour les ancres murales/sol produites par l'AR
type SurfaceAnchorRequest struct {
	MessageText string     `json:"message_text" binding:"required"`
	Category    string     `json:"category"`
	Latitude    *float64   `json:"latitude" binding:"required"`
	Longitude   *float64   `json:"longitude" binding:"required"`
	Offset      [3]float64 `json:"offset"`
	PlaneType   string     `json:"plane_type"`
	Normal      [3]float64 `json:"normal"`
}

func (h *AnchorHandler) CreateSurfaceAnchor(c *gin.Context) {
	var req SurfaceAnchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	anchor := &entity.SurfaceAnchor{
		MessageText: req.MessageText,
		Category:    entity.ParseCategory(req.Category),
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Offset:      req.Offset,
		PlaneType:   req.PlaneType,
		Normal:      req.Normal,
	}

	if err := h.anchorService.SaveSurfaceAnchor(c.Request.Context(), anchor); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to save surface anchor: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, anchor)
}

// UpdateStatusRequest DTO pour le changement de statut par une autorité
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *AnchorHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	// Seuls les comptes autorité/modérateur changent un statut
	role, exists := c.Get("role")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "role not found in context"})
		return
	}
	roleStr, ok := role.(string)
	if !ok || (roleStr != string(entity.RoleAuthority) && roleStr != string(entity.RoleModerator)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions: only authorities can update report status"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := entity.ParseStatus(req.Status)
	if status == entity.StatusUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status value"})
		return
	}

	if err := h.anchorService.UpdateAnchorStatus(c.Request.Context(), id, status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update report: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Report status updated",
		"id":      id,
		"status":  status,
	})
}
