package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
)

type SetThemeRequest struct {
	Theme domain.Theme `json:"theme"`
}

func (a *API) getPreferences(c *gin.Context) {
	state, err := a.preferences.Get(c.Request.Context(), c.Param("owner"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// setPreferences replaces the whole state of the owner.
func (a *API) setPreferences(c *gin.Context) {
	var state domain.GlobalState
	if !bindJSON(c, &state) {
		return
	}
	if !state.Theme.Valid() {
		renderError(c, errors.InvalidArgument("unknown theme %q", state.Theme))
		return
	}
	state.Normalize()

	if err := a.preferences.Set(c.Request.Context(), c.Param("owner"), state); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (a *API) setTheme(c *gin.Context) {
	var req SetThemeRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Theme.Valid() {
		renderError(c, errors.InvalidArgument("unknown theme %q", req.Theme))
		return
	}

	a.updatePreferences(c, func(s *domain.GlobalState) {
		s.SetTheme(req.Theme)
	})
}

func (a *API) toggleCompareMode(c *gin.Context) {
	a.updatePreferences(c, (*domain.GlobalState).ToggleCompareMode)
}

func (a *API) updateFilters(c *gin.Context) {
	var p domain.FilterPatch
	if !bindJSON(c, &p) {
		return
	}

	a.updatePreferences(c, func(s *domain.GlobalState) {
		s.UpdateFilters(p)
	})
}

func (a *API) updateSettings(c *gin.Context) {
	var p domain.SettingsPatch
	if !bindJSON(c, &p) {
		return
	}

	a.updatePreferences(c, func(s *domain.GlobalState) {
		s.UpdateSettings(p)
	})
}

func (a *API) selectStory(c *gin.Context) {
	id := c.Param("story")
	a.updatePreferences(c, func(s *domain.GlobalState) {
		s.SelectStory(id)
	})
}

func (a *API) unselectStory(c *gin.Context) {
	id := c.Param("story")
	a.updatePreferences(c, func(s *domain.GlobalState) {
		s.UnselectStory(id)
	})
}

func (a *API) updatePreferences(c *gin.Context, fn func(s *domain.GlobalState)) {
	state, err := a.preferences.Update(c.Request.Context(), c.Param("owner"), func(s *domain.GlobalState) error {
		fn(s)
		return nil
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}
