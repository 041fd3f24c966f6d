package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"kiosk/server/config"
	"kiosk/server/internal/feed"
	"kiosk/server/internal/inventory"
	"kiosk/server/internal/mapstyle"
	"kiosk/server/internal/models"
	"kiosk/server/internal/processor"
	"kiosk/server/internal/queue"
	"kiosk/server/internal/session"
)

// FeedStore is the feed lifecycle seen by the handlers.
type FeedStore interface {
	State() feed.State
	Reset()
}

// SnapshotSource publishes the data derived from the current feed.
type SnapshotSource interface {
	Snapshot() *processor.Snapshot
	Err() error
	Clear()
}

// ListingFilter answers listing filter queries.
type ListingFilter interface {
	Filter(ctx context.Context, f inventory.Filter) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// EventSink accepts interaction events for the session controller.
type EventSink interface {
	Push(ev models.ActivityEvent) error
	Len() int
}

// SessionSource reports the session state.
type SessionSource interface {
	State() session.Snapshot
}

// Dependencies are the collaborators a Handler serves.
type Dependencies struct {
	Feed       FeedStore
	Snapshots  SnapshotSource
	Inventory  ListingFilter
	Events     EventSink
	Session    SessionSource
	Navigation *Navigation
}

type Handler struct {
	feed       FeedStore
	snapshots  SnapshotSource
	inventory  ListingFilter
	events     EventSink
	session    SessionSource
	navigation *Navigation
	logger     *logrus.Logger
}

type ActivityRequest struct {
	Type string `json:"type" binding:"required"`
}

type NavigateRequest struct {
	Path string `json:"path" binding:"required"`
}

type ListingQuery struct {
	Filter string `form:"filter"`
	Status string `form:"status"`
}

// PropertyDetail is the payload of the detail view.
type PropertyDetail struct {
	models.Property
	CompletionYear int `json:"completion_year,omitempty"`
}

// SiteResponse describes the community for the landing and map views.
type SiteResponse struct {
	Name   string                 `json:"name"`
	Logo   string                 `json:"logo"`
	Center []float64              `json:"center"`
	Zoom   float64                `json:"zoom"`
	Custom map[string]interface{} `json:"custom,omitempty"`
}

// MapStyleResponse bundles the lot layer style with the initial camera.
type MapStyleResponse struct {
	mapstyle.Style
	Center []float64 `json:"center"`
	Zoom   float64   `json:"zoom"`
}

func NewHandler(deps Dependencies, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if deps.Navigation == nil {
		deps.Navigation = NewNavigation("/", logger)
	}

	return &Handler{
		feed:       deps.Feed,
		snapshots:  deps.Snapshots,
		inventory:  deps.Inventory,
		events:     deps.Events,
		session:    deps.Session,
		navigation: deps.Navigation,
		logger:     logger,
	}
}

// snapshot writes the loading or failure response and returns nil when no
// snapshot has been published.
func (h *Handler) snapshot(c *gin.Context) *processor.Snapshot {
	if snap := h.snapshots.Snapshot(); snap != nil {
		return snap
	}

	state := h.feed.State()
	switch {
	case state.Loading:
		c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
	case state.Error != "":
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": state.Error})
	case h.snapshots.Err() != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to process property data"})
	case state.Initialized:
		// Fetched, snapshot still being built.
		c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feed not loaded"})
	}
	return nil
}

func (h *Handler) detail(snap *processor.Snapshot, p models.Property) PropertyDetail {
	if snap.HideBuilder() {
		p.BuilderName = ""
	}
	return PropertyDetail{Property: p, CompletionYear: p.CompletionYear()}
}

func siteCamera(site models.SiteInfo) ([]float64, float64) {
	var center []float64
	if site.Lat != nil && site.Lng != nil {
		center = []float64{*site.Lng, *site.Lat}
	}
	zoom := float64(config.DefaultZoom)
	// A missing or non-positive zoom means "use the default".
	if site.Zoom != nil && *site.Zoom > 0 {
		zoom = *site.Zoom
	}
	return center, zoom
}

func (h *Handler) GetSite(c *gin.Context) {
	snap := h.snapshot(c)
	if snap == nil {
		return
	}

	center, zoom := siteCamera(snap.Site)
	c.JSON(http.StatusOK, SiteResponse{
		Name:   snap.Site.Name,
		Logo:   snap.Site.Logo,
		Center: center,
		Zoom:   zoom,
		Custom: snap.Custom,
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	state := h.feed.State()
	resp := gin.H{
		"loading":     state.Loading,
		"initialized": state.Initialized,
		"error":       state.Error,
	}
	if !state.LoadedAt.IsZero() {
		resp["loaded_at"] = state.LoadedAt
	}
	if snap := h.snapshots.Snapshot(); snap != nil {
		resp["property_count"] = len(snap.Properties)
		resp["lot_count"] = len(snap.Lots)
		if h.inventory != nil {
			n, err := h.inventory.Count(c.Request.Context())
			if err != nil {
				h.logger.WithError(err).Warn("Failed to count indexed listings")
			} else {
				resp["indexed_count"] = n
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ResetFeed(c *gin.Context) {
	h.feed.Reset()
	h.snapshots.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *Handler) GetHomes(c *gin.Context) {
	var query ListingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing query"})
		return
	}
	filter, err := inventory.ParseFilter(query.Filter, query.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap := h.snapshot(c)
	if snap == nil {
		return
	}

	if h.inventory == nil {
		c.JSON(http.StatusOK, filterProperties(snap, filter))
		return
	}

	ids, err := h.inventory.Filter(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to filter listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to filter listings"})
		return
	}

	homes := make([]PropertyDetail, 0, len(ids))
	for _, id := range ids {
		if p, ok := snap.Index.Get(id); ok {
			homes = append(homes, h.detail(snap, p))
		}
	}
	c.JSON(http.StatusOK, homes)
}

func filterProperties(snap *processor.Snapshot, f inventory.Filter) []PropertyDetail {
	hide := snap.HideBuilder()
	homes := make([]PropertyDetail, 0, len(snap.Properties))
	for _, p := range snap.Properties {
		if f.Kind != "" && p.Kind != f.Kind {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if hide {
			p.BuilderName = ""
		}
		homes = append(homes, PropertyDetail{Property: p, CompletionYear: p.CompletionYear()})
	}
	return homes
}

func (h *Handler) GetHome(c *gin.Context) {
	snap := h.snapshot(c)
	if snap == nil {
		return
	}

	p, ok := snap.Index.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	c.JSON(http.StatusOK, h.detail(snap, p))
}

func (h *Handler) GetLots(c *gin.Context) {
	snap := h.snapshot(c)
	if snap == nil {
		return
	}
	c.JSON(http.StatusOK, snap.Features)
}

// GetLot is the lot selection: the detail view opens only when the lot
// matches a listed property.
func (h *Handler) GetLot(c *gin.Context) {
	snap := h.snapshot(c)
	if snap == nil {
		return
	}

	id := c.Param("id")
	for _, lot := range snap.Lots {
		if lot.ID != id {
			continue
		}
		p, ok := snap.Index.Match(lot)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"open": false, "property": nil, "lot": lot})
			return
		}
		c.JSON(http.StatusOK, gin.H{"open": true, "property": h.detail(snap, p), "lot": lot})
		return
	}

	c.JSON(http.StatusOK, gin.H{"open": false, "property": nil})
}

func (h *Handler) GetMapStyle(c *gin.Context) {
	snap := h.snapshot(c)
	if snap == nil {
		return
	}

	center, zoom := siteCamera(snap.Site)
	c.JSON(http.StatusOK, MapStyleResponse{
		Style:  mapstyle.Layers(),
		Center: center,
		Zoom:   zoom,
	})
}

func (h *Handler) PostActivity(c *gin.Context) {
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity event"})
		return
	}

	kind := models.ActivityKind(req.Type)
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown activity type: " + req.Type})
		return
	}

	if err := h.events.Push(models.ActivityEvent{Kind: kind, At: time.Now()}); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			status = http.StatusServiceUnavailable
		}
		h.logger.WithError(err).Warn("Failed to queue activity event")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) GetSession(c *gin.Context) {
	snap := h.session.State()
	resp := gin.H{
		"state":          snap.State.String(),
		"view":           h.navigation.Current(),
		"views":          config.GetViewPaths(),
		"pending_events": h.events.Len(),
	}
	if snap.SessionID != "" {
		resp["session_id"] = snap.SessionID
		resp["started_at"] = snap.StartedAt
	}
	if !snap.LastActivity.IsZero() {
		resp["last_activity"] = snap.LastActivity
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) PostNavigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid navigation request"})
		return
	}

	view, err := h.navigation.Navigate(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown view: " + req.Path})
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": view})
}
