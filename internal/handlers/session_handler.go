package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
	"assessment-service/internal/scoring"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service        *service.AssessmentService
	RequestTimeout time.Duration
}

func NewSessionHandler(s *service.AssessmentService, requestTimeout time.Duration) *SessionHandler {
	return &SessionHandler{
		Service:        s,
		RequestTimeout: requestTimeout,
	}
}

func (h *SessionHandler) RegisterRoutes(r *gin.Engine) {
	protected := r.Group("/protected/assessment/session", requireUser)
	{
		protected.POST("/", h.CreateSession)
		protected.POST("/pool/info", h.PoolInfo)
		protected.GET("/:id", h.GetSession)
		protected.POST("/:id/start", h.Start)
		protected.GET("/:id/question", h.CurrentQuestion)
		protected.POST("/:id/answer", h.SubmitAnswer)
		protected.POST("/:id/skip", h.Skip)
		protected.POST("/:id/pause", h.Pause)
		protected.POST("/:id/resume", h.Resume)
		protected.POST("/:id/abandon", h.Abandon)
		protected.GET("/:id/progress", h.Progress)
		protected.GET("/:id/results", h.Results)
		protected.GET("/:id/answers", h.Submissions)
	}

	internal := r.Group("/internal/assessment/session")
	{
		internal.POST("/:id/expire", h.Expire)
	}
}

const userIDKey = "user_id"

// requireUser rejects requests the gateway did not attach a user to.
func requireUser(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "User ID is required",
			"code":  apperrors.CodeAuthorization,
		})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

func (h *SessionHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.RequestTimeout)
}

func respondError(c *gin.Context, err error) {
	code, status := apperrors.Classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request format: " + err.Error(),
		"code":  apperrors.CodeValidation,
	})
}

// CreateSession decodes the request on top of the default session config.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	cfg := models.DefaultSessionConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	session, err := h.Service.CreateSession(ctx, c.GetString(userIDKey), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) PoolInfo(c *gin.Context) {
	cfg := models.DefaultSessionConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	info, err := h.Service.PoolInfo(ctx, cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	h.sessionOp(c, h.Service.Get)
}

func (h *SessionHandler) Start(c *gin.Context) {
	h.sessionOp(c, h.Service.Start)
}

func (h *SessionHandler) Pause(c *gin.Context) {
	h.sessionOp(c, h.Service.Pause)
}

func (h *SessionHandler) Resume(c *gin.Context) {
	h.sessionOp(c, h.Service.Resume)
}

func (h *SessionHandler) Abandon(c *gin.Context) {
	h.sessionOp(c, h.Service.Abandon)
}

func (h *SessionHandler) sessionOp(c *gin.Context, op func(ctx context.Context, id, owner string) (*models.AssessmentSession, error)) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	session, err := op(ctx, c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type answerRequest struct {
	QuestionID string  `json:"question_id" binding:"required"`
	Answer     string  `json:"answer"`
	TimeTaken  float64 `json:"time_taken"`
}

func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	submission, completed, err := h.Service.SubmitAnswer(ctx, c.Param("id"), c.GetString(userIDKey), scoring.Answer{
		QuestionID: req.QuestionID,
		UserAnswer: req.Answer,
		TimeTaken:  req.TimeTaken,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submission": submission,
		"completed":  completed,
	})
}

type skipRequest struct {
	QuestionID string `json:"question_id"`
}

func (h *SessionHandler) Skip(c *gin.Context) {
	var req skipRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	session, err := h.Service.Skip(ctx, c.Param("id"), c.GetString(userIDKey), req.QuestionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) CurrentQuestion(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	question, err := h.Service.CurrentQuestion(ctx, c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *SessionHandler) Progress(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	progress, err := h.Service.Progress(ctx, c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *SessionHandler) Results(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	results, err := h.Service.Results(ctx, c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *SessionHandler) Submissions(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	submissions, err := h.Service.Submissions(ctx, c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}
	c.JSON(http.StatusOK, gin.H{"answers": submissions, "count": len(submissions)})
}

// Expire is called by the timer collaborator once a session's time is up.
func (h *SessionHandler) Expire(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	session, err := h.Service.Expire(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
