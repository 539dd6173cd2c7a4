package http

import (
	"errors"
	"net/http"
	"strconv"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// APIHandler serves the synchronous auth and stats endpoints.
type APIHandler struct {
	auth   *app.AuthService
	scores *app.ScoreService
	boards *app.LeaderboardService
	log    zerolog.Logger
}

func NewAPIHandler(auth *app.AuthService, scores *app.ScoreService, boards *app.LeaderboardService, log zerolog.Logger) *APIHandler {
	registerValidators()
	return &APIHandler{auth: auth, scores: scores, boards: boards, log: log.With().Str("component", "api").Logger()}
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindBadRequest, domain.KindParse:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(statusFor(kind), gin.H{"ok": false, "error": domain.CodeOf(err)})
}

// Register handles POST /auth/register.
func (h *APIHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}
	token, user, err := h.auth.Register(c.Request.Context(), req.UserID, req.Password, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "user": user})
}

// bindError maps a userId validation failure to bad_userId_format and any
// other binding failure to bad_request.
func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if fe.Field() == "UserID" {
				return domain.ErrBadUserIDFormat
			}
		}
	}
	return domain.ErrBadRequest
}

// Login handles POST /auth/login.
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.ErrBadRequest)
		return
	}
	token, user, err := h.auth.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "user": user})
}

// Me handles GET /auth/me.
func (h *APIHandler) Me(c *gin.Context) {
	claims := claimsFrom(c)
	user, err := h.auth.Profile(c.Request.Context(), claims.Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	stats, err := h.scores.Stats(c.Request.Context(), claims.Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user, "stats": stats})
}

// Leaderboard handles GET /api/leaderboard.
func (h *APIHandler) Leaderboard(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", app.DefaultPageSize)
	result, err := h.boards.Query(c.Request.Context(), c.Query("type"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"type":     result.Mode,
		"page":     result.Page,
		"pageSize": result.PageSize,
		"total":    result.Total,
		"hasNext":  result.HasNext,
		"entries":  result.Entries,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}

// History handles GET /api/history/me.
func (h *APIHandler) History(c *gin.Context) {
	history, err := h.scores.History(c.Request.Context(), claimsFrom(c).Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "history": history})
}

// WrongBook handles GET /api/wrongbook/me.
func (h *APIHandler) WrongBook(c *gin.Context) {
	wrong, err := h.scores.WrongBook(c.Request.Context(), claimsFrom(c).Subject, c.Query("topic"), c.Query("tag"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "wrongQuestions": wrong})
}

// ExamResult handles POST /api/exam_result.
func (h *APIHandler) ExamResult(c *gin.Context) {
	var req examResultRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlayerID == "" {
		h.fail(c, domain.ErrBadRequest)
		return
	}
	_, err := h.scores.Submit(c.Request.Context(), app.ResultSubmission{
		PlayerID:       req.PlayerID,
		Name:           req.Name,
		Mode:           req.Mode,
		RoomID:         req.RoomID,
		BankID:         req.BankID,
		Score:          float64(req.Score),
		Total:          int(req.Total),
		CorrectCount:   int(req.CorrectCount),
		WrongQuestions: req.wrongQuestions(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
