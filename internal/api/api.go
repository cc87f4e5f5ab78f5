package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
	"github.com/unveil/mediaquiz/internal/event"
	"github.com/unveil/mediaquiz/internal/history"
	"github.com/unveil/mediaquiz/internal/quiz"
	"github.com/unveil/mediaquiz/internal/stories"
)

type Config struct {
	Router   gin.IRouter
	EventBus *event.Bus

	Quiz        *quiz.Manager
	Analyzer    Analyzer
	Feed        Feed
	Preferences Preferences
	// History is optional. Without it the history route answers NotFound.
	History History

	Redis        Redis
	PubsubPrefix string
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) (*domain.Analysis, error)
}

type Feed interface {
	State() stories.FeedState
	Search(query string)
	SetCategory(ctx context.Context, category string)
}

type Preferences interface {
	Get(ctx context.Context, owner string) (*domain.GlobalState, error)
	Set(ctx context.Context, owner string, state domain.GlobalState) error
	Update(ctx context.Context, owner string, fn func(state *domain.GlobalState) error) (*domain.GlobalState, error)
	Subscribe(fn func(ctx context.Context, owner string, state domain.GlobalState) error) (unsubscribe func())
}

type History interface {
	ListResults(ctx context.Context, req history.ListResultsRequest) ([]domain.QuizResult, error)
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	quiz        *quiz.Manager
	analyzer    Analyzer
	feed        Feed
	preferences Preferences
	history     History
	hub         *hub

	redis  Redis
	prefix string

	unsubscribe []func()
}

func New(c Config) *API {
	a := &API{
		quiz:        c.Quiz,
		analyzer:    c.Analyzer,
		feed:        c.Feed,
		preferences: c.Preferences,
		history:     c.History,
		hub:         newHub(c.AllowedOrigins),
		redis:       c.Redis,
		prefix:      c.PubsubPrefix,
	}

	a.routes(c.Router)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameSessionUpdated, func(ctx context.Context, e event.Event) error {
		a.hub.broadcast(e.(domain.EventSessionUpdated).Snapshot)
		return nil
	})
	if a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
			return a.PublishQuizCompleted(ctx, e.(domain.EventQuizCompleted))
		})
		a.unsubscribe = append(a.unsubscribe, c.Preferences.Subscribe(func(ctx context.Context, owner string, state domain.GlobalState) error {
			return a.PublishPreferencesUpdated(ctx, domain.EventPreferencesUpdated{Owner: owner, State: state})
		}))
	}

	return a
}

// Close disconnects every websocket client.
func (a *API) Close() {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.hub.close()
}

func (a *API) routes(r gin.IRouter) {
	r.GET("/health", a.health)

	api := r.Group("/api")

	qz := api.Group("/quiz")
	qz.GET("/history", a.listHistory)
	qz.POST("/sessions", a.createSession)

	s := qz.Group("/sessions/:id")
	s.GET("", a.getSession)
	s.DELETE("", a.deleteSession)
	s.PUT("/difficulty", a.setDifficulty)
	s.POST("/categories/:category/toggle", a.toggleCategory)
	s.POST("/start", a.startSession)
	s.POST("/answer", a.answer)
	s.POST("/next", a.next)
	s.GET("/results", a.results)
	s.POST("/restart", a.restart)
	s.GET("/ws", a.watchSession)

	api.POST("/analyze", a.analyze)

	st := api.Group("/stories")
	st.GET("", a.listStories)
	st.POST("/search", a.searchStories)
	st.PUT("/category", a.setStoryCategory)

	p := api.Group("/preferences/:owner")
	p.GET("", a.getPreferences)
	p.PUT("", a.setPreferences)
	p.PUT("/theme", a.setTheme)
	p.POST("/compare-mode/toggle", a.toggleCompareMode)
	p.PATCH("/filters", a.updateFilters)
	p.PATCH("/settings", a.updateSettings)
	p.POST("/stories/:story", a.selectStory)
	p.DELETE("/stories/:story", a.unselectStory)
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// renderError writes err as {"code", "message"} with the matching HTTP status.
func renderError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"route", c.FullPath(),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body: %v", err),
			errors.WithCause(err),
		))
		return false
	}
	return true
}
