package rest

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/midgard-blog/interaction-sync/domain"
	"github.com/midgard-blog/interaction-sync/internal/gateway"
	"github.com/midgard-blog/interaction-sync/internal/rest/request"
	"github.com/midgard-blog/interaction-sync/internal/rest/response"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

const eventBufferSize = 64

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("subjectkind", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseKind(fl.Field().String())
			return err == nil
		})
	}
}

// InteractionHandler represent the httphandler for interactions
type InteractionHandler struct {
	Service  domain.InteractionUsecase
	Gateway  domain.InteractionGateway
	Stats    domain.StatsProvider
	Notifier domain.Notifier
}

func NewInteractionHandler(svc domain.InteractionUsecase, gw domain.InteractionGateway, stats domain.StatsProvider, n domain.Notifier) *InteractionHandler {
	return &InteractionHandler{
		Service:  svc,
		Gateway:  gw,
		Stats:    stats,
		Notifier: n,
	}
}

type subjectURI struct {
	Kind string `uri:"kind" binding:"required,subjectkind"`
	ID   string `uri:"id" binding:"required"`
}

func (h *InteractionHandler) subjectFromPath(c *gin.Context) (domain.Subject, bool) {
	var uri subjectURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return domain.Subject{}, false
	}

	kind, _ := domain.ParseKind(uri.Kind)
	subject, err := domain.NewSubject(kind, uri.ID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return domain.Subject{}, false
	}
	return subject, true
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return ""
}

// Toggle flips the caller's interaction with the subject. The response
// carries the optimistic outcome, or the reverted state plus the
// gateway's message when the remote call failed.
func (h *InteractionHandler) Toggle(c *gin.Context) {
	subject, ok := h.subjectFromPath(c)
	if !ok {
		return
	}

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ResponseError{Message: domain.ErrUnauthorized.Error()})
		return
	}
	if subject.Kind == domain.KindFollow {
		if caller := c.GetString("caller_id"); caller != "" && caller == subject.ID {
			c.JSON(http.StatusForbidden, ResponseError{Message: domain.ErrSelfFollow.Error()})
			return
		}
	}

	ctx := gateway.WithToken(c.Request.Context(), token)
	res, err := h.Service.Toggle(ctx, subject, gateway.Call(h.Gateway, subject))
	if err != nil {
		if res.Reverted {
			// The optimistic update was rolled back; hand the caller
			// the restored state along with the message to surface.
			c.JSON(getStatusCode(err), response.NewToggleOutcome(res, err.Error()))
			return
		}
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewToggleOutcome(res, ""))
}

// GetStatus returns the cached state, loading it through the snapshot
// store or the gateway on first observation.
func (h *InteractionHandler) GetStatus(c *gin.Context) {
	subject, ok := h.subjectFromPath(c)
	if !ok {
		return
	}

	ctx := gateway.WithToken(c.Request.Context(), bearerToken(c))
	st, err := h.Service.Status(ctx, subject)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewInteractionFromDomain(subject, st))
}

// Seed primes the cache with a state the client already holds. An
// existing entry wins; the response always reflects the cache.
func (h *InteractionHandler) Seed(c *gin.Context) {
	subject, ok := h.subjectFromPath(c)
	if !ok {
		return
	}

	var req request.Seed
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	st, err := h.Service.Observe(c.Request.Context(), subject, req.Active, req.Count)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewInteractionFromDomain(subject, st))
}

// FollowStats serves a user's follow counters from the refresher's
// warm cache.
func (h *InteractionHandler) FollowStats(c *gin.Context) {
	userID := c.Param("id")

	stats, err := h.Stats.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewFollowStatsFromDomain(stats))
}

type eventsQuery struct {
	Kind      string `form:"kind" binding:"omitempty,subjectkind"`
	SubjectID string `form:"subject_id"`
}

// Events streams interaction changes over SSE. With kind and
// subject_id it narrows to one subject, otherwise it mirrors the
// wildcard "followStatusChanged"-style broadcast for every subject.
func (h *InteractionHandler) Events(c *gin.Context) {
	var q eventsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	events := make(chan response.Event, eventBufferSize)
	push := func(subject domain.Subject, st domain.InteractionState) {
		select {
		case events <- response.NewEventFromDomain(subject, st):
		default:
			// Slow consumer, drop rather than stall the broadcast.
		}
	}

	var unsubscribe func()
	if q.Kind != "" && q.SubjectID != "" {
		kind, _ := domain.ParseKind(q.Kind)
		subject, err := domain.NewSubject(kind, q.SubjectID)
		if err != nil {
			c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
			return
		}
		unsubscribe = h.Notifier.Subscribe(subject, push)
	} else {
		unsubscribe = h.Notifier.SubscribeAll(push)
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			c.SSEvent("interaction", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// getStatusCode will get the code of the error from domain.InteractionUsecase
func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	logrus.Error(err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSubject), errors.Is(err, domain.ErrBadParamInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSelfFollow):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrGatewayFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
