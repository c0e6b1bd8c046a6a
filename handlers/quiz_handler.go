package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quizdeck/middleware"
	"quizdeck/pkg/apperr"
	"quizdeck/pkg/response"
	"quizdeck/services"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.AbortUnauthorized(c, "not authenticated")
		return
	}

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apperr.InvalidArg("invalid request body"))
		return
	}
	req.Normalize()
	if details := req.Violations(); details != nil {
		response.Err(c, apperr.Validation("validation failed", details))
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), user, &req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, quiz)
}

func (h *QuizHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.AbortUnauthorized(c, "not authenticated")
		return
	}

	quizzes, err := h.quizService.List(c.Request.Context(), user)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, quizzes)
}

func (h *QuizHandler) GetByID(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.AbortUnauthorized(c, "not authenticated")
		return
	}

	quizID, err := parseID(c)
	if err != nil {
		response.Err(c, err)
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), user, quizID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, quiz)
}

func (h *QuizHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.AbortUnauthorized(c, "not authenticated")
		return
	}

	quizID, err := parseID(c)
	if err != nil {
		response.Err(c, err)
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apperr.InvalidArg("invalid request body"))
		return
	}
	req.Normalize()
	if details := req.Violations(); details != nil {
		response.Err(c, apperr.Validation("validation failed", details))
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), user, quizID, &req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, quiz)
}

func (h *QuizHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.AbortUnauthorized(c, "not authenticated")
		return
	}

	quizID, err := parseID(c)
	if err != nil {
		response.Err(c, err)
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), user, quizID); err != nil {
		response.Err(c, err)
		return
	}
	response.OKMessage(c, "quiz deleted")
}

// Play serves the play projection. Identity is optional here: anonymous
// callers can play public quizzes.
func (h *QuizHandler) Play(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	quizID, err := parseID(c)
	if err != nil {
		response.Err(c, err)
		return
	}

	quiz, err := h.quizService.Play(c.Request.Context(), user, quizID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, quiz)
}

func (h *QuizHandler) ListPublic(c *gin.Context) {
	summaries, err := h.quizService.ListPublic(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, summaries)
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.InvalidArg("invalid quiz id")
	}
	return id, nil
}
