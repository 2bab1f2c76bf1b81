package handler

import (
	"errors"
	"net/http"
	"strings"

	"paintquote_backend/internal/quotes/service"
	"paintquote_backend/internal/quotes/transport"
	"paintquote_backend/platform/httpkit"
	"paintquote_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSession   = "invalid session id"

	maxSessionIDLength = 128
)

// Handler handles HTTP requests for the quote chat and pricing preview.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterChatRoutes registers the quote chat routes.
func (h *Handler) RegisterChatRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:sessionId/messages", h.SendMessage)
	rg.GET("/sessions/:sessionId", h.GetSession)
	rg.DELETE("/sessions/:sessionId", h.DeleteSession)
	rg.POST("/sessions/:sessionId/finalize", h.Finalize)
}

// RegisterRoutes registers the quote routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/calculate", h.PreviewCalculation)
}

// SendMessage handles POST /api/v1/quote-chat/sessions/:sessionId/messages
func (h *Handler) SendMessage(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	res, err := h.svc.HandleMessage(c.Request.Context(), service.MessageInput{
		CompanyID: identity.CompanyID(),
		UserID:    identity.UserID(),
		SessionID: sessionID,
		Text:      req.Message,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{
		Session: transport.NewSessionResponse(res.Session),
		Reply:   res.Reply,
		Applied: res.Applied,
		Preview: res.Preview,
	})
}

// GetSession handles GET /api/v1/quote-chat/sessions/:sessionId
func (h *Handler) GetSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.GetSession(c.Request.Context(), identity.CompanyID(), identity.UserID(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewSessionResponse(sess))
}

// DeleteSession handles DELETE /api/v1/quote-chat/sessions/:sessionId
func (h *Handler) DeleteSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.EvictSession(c.Request.Context(), identity.CompanyID(), identity.UserID(), sessionID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Finalize handles POST /api/v1/quote-chat/sessions/:sessionId/finalize
// An empty body finalizes without force or overrides.
func (h *Handler) Finalize(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	var req transport.FinalizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	res, err := h.svc.Finalize(c.Request.Context(), service.FinalizeInput{
		CompanyID: identity.CompanyID(),
		UserID:    identity.UserID(),
		SessionID: sessionID,
		Force:     req.Force,
		Override:  req.Settings.ToDomain(),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.NewQuoteResponse(res.Quote, res.DegradedNumber))
}

// PreviewCalculation handles POST /api/v1/quotes/calculate
// Prices explicit surfaces with the company's rates; nothing is stored.
func (h *Handler) PreviewCalculation(c *gin.Context) {
	var req transport.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	surfaces, err := transport.ToSurfaces(req.Surfaces)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.Preview(c.Request.Context(), identity.CompanyID(), surfaces, req.Settings.ToDomain())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

var errInvalidSessionID = errors.New(msgInvalidSession)

// sessionParam reads :sessionId. Clients pick their own ids; any printable
// token up to 128 characters is accepted, UUIDs included.
func sessionParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("sessionId"))
	if err := validateSessionID(id); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSession, nil)
		return "", false
	}
	return id, true
}

func validateSessionID(id string) error {
	if id == "" || len(id) > maxSessionIDLength {
		return errInvalidSessionID
	}
	if _, err := uuid.Parse(id); err == nil {
		return nil
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || r == '.' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return errInvalidSessionID
		}
	}
	return nil
}
