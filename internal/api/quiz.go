package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
	"github.com/unveil/mediaquiz/internal/history"
	"github.com/unveil/mediaquiz/internal/quiz"
)

type (
	SetDifficultyRequest struct {
		Difficulty domain.Difficulty `json:"difficulty" binding:"required"`
	}

	AnswerRequest struct {
		Option *int `json:"option" binding:"required"`
	}

	AnswerResponse struct {
		Feedback domain.Feedback        `json:"feedback"`
		Session  domain.SessionSnapshot `json:"session"`
	}
)

func (a *API) createSession(c *gin.Context) {
	s, err := a.quiz.Create(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, s.Snapshot())
}

func (a *API) getSession(c *gin.Context) {
	a.withSession(c, func(s *quiz.Session) error { return nil })
}

func (a *API) deleteSession(c *gin.Context) {
	if err := a.quiz.Delete(c.Param("id")); err != nil {
		renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) setDifficulty(c *gin.Context) {
	var req SetDifficultyRequest
	if !bindJSON(c, &req) {
		return
	}

	a.withSession(c, func(s *quiz.Session) error {
		return s.SetDifficulty(req.Difficulty)
	})
}

func (a *API) toggleCategory(c *gin.Context) {
	a.withSession(c, func(s *quiz.Session) error {
		return s.ToggleCategory(domain.Category(c.Param("category")))
	})
}

func (a *API) startSession(c *gin.Context) {
	a.withSession(c, (*quiz.Session).Start)
}

func (a *API) answer(c *gin.Context) {
	var req AnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := a.quiz.Get(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	fb, err := s.Answer(*req.Option)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnswerResponse{
		Feedback: *fb,
		Session:  s.Snapshot(),
	})
}

func (a *API) next(c *gin.Context) {
	a.withSession(c, (*quiz.Session).Next)
}

func (a *API) results(c *gin.Context) {
	s, err := a.quiz.Get(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	res, err := s.Results()
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (a *API) restart(c *gin.Context) {
	a.withSession(c, (*quiz.Session).Restart)
}

func (a *API) listHistory(c *gin.Context) {
	if a.history == nil {
		renderError(c, errors.NotFound("quiz history is disabled"))
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			renderError(c, errors.InvalidArgument("invalid limit %q", v))
			return
		}
		limit = n
	}

	results, err := a.history.ListResults(c.Request.Context(), history.ListResultsRequest{Limit: limit})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// withSession applies fn to the session named in the path and responds with its snapshot.
func (a *API) withSession(c *gin.Context, fn func(s *quiz.Session) error) {
	s, err := a.quiz.Get(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	if err := fn(s); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}
