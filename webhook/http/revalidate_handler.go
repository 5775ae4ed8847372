package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dfryer1193/esatsite/api"
	"github.com/dfryer1193/esatsite/content/application"
	"github.com/dfryer1193/esatsite/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	RevalidatePath = "/api/revalidate"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

type Revalidator interface {
	Revalidate(ctx context.Context, req application.RevalidationRequest) error
}

// RevalidateHandler lets the CMS drop cached pages after content changes.
type RevalidateHandler struct {
	token       []byte
	revalidator Revalidator
	now         func() time.Time
}

// NewRevalidateHandler builds the handler. An empty token rejects every call.
func NewRevalidateHandler(token string, revalidator Revalidator) *RevalidateHandler {
	if token == "" {
		log.Warn().Msg("Revalidation token is not set, every revalidation request will be rejected")
	}

	return &RevalidateHandler{
		token:       []byte(token),
		revalidator: revalidator,
		now:         time.Now,
	}
}

func (h *RevalidateHandler) RegisterRoutes(r gin.IRouter) {
	r.POST(RevalidatePath, h.HandleRevalidate)
	r.GET(RevalidatePath, h.HandleUsage)
}

func (h *RevalidateHandler) authorized(header string) bool {
	if len(h.token) == 0 {
		return false
	}
	given := []byte(middleware.BearerToken(header))
	return subtle.ConstantTimeCompare(given, h.token) == 1
}

func (h *RevalidateHandler) HandleRevalidate(c *gin.Context) {
	ctx := c.Request.Context()

	if !h.authorized(c.GetHeader("Authorization")) {
		log.Ctx(ctx).Warn().Str("remote", c.ClientIP()).Msg("Rejected revalidation request")
		c.JSON(http.StatusUnauthorized, api.RevalidateResponse{
			Success: false,
			Message: "Invalid token",
		})
		return
	}

	var body api.RevalidateRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to decode revalidation request")
		h.internalError(c)
		return
	}

	req := application.RevalidationRequest{
		Path: body.Path,
		Tag:  body.Tag,
		Type: application.RevalidationType(body.Type),
	}
	if err := h.revalidator.Revalidate(ctx, req); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Revalidation failed")
		h.internalError(c)
		return
	}

	c.JSON(http.StatusOK, api.RevalidateResponse{
		Success:     true,
		Message:     "Revalidation triggered",
		Revalidated: &body,
		Timestamp:   h.now().UTC().Format(timestampLayout),
	})
}

func (h *RevalidateHandler) HandleUsage(c *gin.Context) {
	c.JSON(http.StatusOK, api.RevalidateUsage{
		Message: "Revalidation API is running",
		Usage:   "POST with token to trigger revalidation",
	})
}

func (h *RevalidateHandler) internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, api.RevalidateResponse{
		Success: false,
		Message: "Internal server error",
	})
}
