package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unveil/mediaquiz/internal/domain"
)

type (
	AnalyzeRequest struct {
		Text string `json:"text"`
	}

	AnalyzeResponse struct {
		*domain.Analysis
		Level domain.BiasLevel `json:"level"`
	}

	SearchStoriesRequest struct {
		Query string `json:"query"`
	}

	SetStoryCategoryRequest struct {
		Category string `json:"category"`
	}
)

func (a *API) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := a.analyzer.Analyze(c.Request.Context(), req.Text)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		Analysis: res,
		Level:    res.Level(),
	})
}

func (a *API) listStories(c *gin.Context) {
	c.JSON(http.StatusOK, a.feed.State())
}

// searchStories only schedules the search; the result shows up in the feed once the debounce fires.
func (a *API) searchStories(c *gin.Context) {
	var req SearchStoriesRequest
	if !bindJSON(c, &req) {
		return
	}

	a.feed.Search(req.Query)
	c.JSON(http.StatusAccepted, a.feed.State())
}

func (a *API) setStoryCategory(c *gin.Context) {
	var req SetStoryCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	a.feed.SetCategory(context.WithoutCancel(c.Request.Context()), req.Category)
	c.JSON(http.StatusOK, a.feed.State())
}
