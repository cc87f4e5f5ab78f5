package domain

import (
	"slices"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// GlobalState holds the dashboard preferences persisted for one owner.
type GlobalState struct {
	Theme           Theme        `json:"theme"`
	SelectedStories []string     `json:"selectedStories"`
	CompareMode     bool         `json:"compareMode"`
	Filters         FilterState  `json:"filters"`
	Settings        UserSettings `json:"settings"`
}

type FilterState struct {
	Timeframe  string   `json:"timeframe"`
	Categories []string `json:"categories"`
	Sources    []string `json:"sources"`
	SortBy     string   `json:"sortBy"`
}

type UserSettings struct {
	CompareMode          bool `json:"compareMode"`
	AutoRefresh          bool `json:"autoRefresh"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

// FilterPatch is a partial update of FilterState. Nil fields are left untouched.
type FilterPatch struct {
	Timeframe  *string   `json:"timeframe,omitempty"`
	Categories *[]string `json:"categories,omitempty"`
	Sources    *[]string `json:"sources,omitempty"`
	SortBy     *string   `json:"sortBy,omitempty"`
}

// SettingsPatch is a partial update of UserSettings. Nil fields are left untouched.
type SettingsPatch struct {
	CompareMode          *bool `json:"compareMode,omitempty"`
	AutoRefresh          *bool `json:"autoRefresh,omitempty"`
	NotificationsEnabled *bool `json:"notificationsEnabled,omitempty"`
}

func DefaultGlobalState() GlobalState {
	return GlobalState{
		Theme:           ThemeDark,
		SelectedStories: []string{},
		Filters: FilterState{
			Timeframe:  "7d",
			Categories: []string{},
			Sources:    []string{},
			SortBy:     "relevance",
		},
		Settings: UserSettings{
			AutoRefresh:          true,
			NotificationsEnabled: true,
		},
	}
}

// Normalize replaces nil lists with empty ones so they encode as [].
func (s *GlobalState) Normalize() {
	if s.SelectedStories == nil {
		s.SelectedStories = []string{}
	}
	if s.Filters.Categories == nil {
		s.Filters.Categories = []string{}
	}
	if s.Filters.Sources == nil {
		s.Filters.Sources = []string{}
	}
}

func (s *GlobalState) SetTheme(t Theme) {
	s.Theme = t
}

func (s *GlobalState) ToggleCompareMode() {
	s.CompareMode = !s.CompareMode
}

func (s *GlobalState) UpdateFilters(p FilterPatch) {
	if p.Timeframe != nil {
		s.Filters.Timeframe = *p.Timeframe
	}
	if p.Categories != nil {
		s.Filters.Categories = slices.Clone(*p.Categories)
	}
	if p.Sources != nil {
		s.Filters.Sources = slices.Clone(*p.Sources)
	}
	if p.SortBy != nil {
		s.Filters.SortBy = *p.SortBy
	}
}

func (s *GlobalState) UpdateSettings(p SettingsPatch) {
	if p.CompareMode != nil {
		s.Settings.CompareMode = *p.CompareMode
	}
	if p.AutoRefresh != nil {
		s.Settings.AutoRefresh = *p.AutoRefresh
	}
	if p.NotificationsEnabled != nil {
		s.Settings.NotificationsEnabled = *p.NotificationsEnabled
	}
}

// SelectStory appends id to the selection. Duplicates are kept.
func (s *GlobalState) SelectStory(id string) {
	s.SelectedStories = append(s.SelectedStories, id)
}

// UnselectStory removes every occurrence of id from the selection.
func (s *GlobalState) UnselectStory(id string) {
	s.SelectedStories = slices.DeleteFunc(s.SelectedStories, func(v string) bool {
		return v == id
	})
}
