package model

// AwardCounts are the aggregate counters reported by API_GetUserAwards.
// They are passed through unmodified.
type AwardCounts struct {
	TotalAwardsCount          int `json:"TotalAwardsCount"`
	HiddenAwardsCount         int `json:"HiddenAwardsCount"`
	MasteryAwardsCount        int `json:"MasteryAwardsCount"`
	CompletionAwardsCount     int `json:"CompletionAwardsCount"`
	BeatenHardcoreAwardsCount int `json:"BeatenHardcoreAwardsCount"`
	BeatenSoftcoreAwardsCount int `json:"BeatenSoftcoreAwardsCount"`
	EventAwardsCount          int `json:"EventAwardsCount"`
	SiteAwardsCount           int `json:"SiteAwardsCount"`
}

// UserProgress is the per-game progress returned by API_GetUserProgress.
type UserProgress struct {
	NumPossibleAchievements FlexInt `json:"NumPossibleAchievements,omitempty"`
	PossibleScore           FlexInt `json:"PossibleScore,omitempty"`
	NumAchieved             FlexInt `json:"NumAchieved"`
	ScoreAchieved           FlexInt `json:"ScoreAchieved"`
	NumAchievedHardcore     FlexInt `json:"NumAchievedHardcore"`
	ScoreAchievedHardcore   FlexInt `json:"ScoreAchievedHardcore"`
}

// UserAward is one visible award. The enrichment fields are filled in by the
// badges endpoint only.
type UserAward struct {
	AwardedAt      string  `json:"AwardedAt"`
	AwardType      string  `json:"AwardType"`
	AwardData      FlexInt `json:"AwardData"`
	AwardDataExtra FlexInt `json:"AwardDataExtra"`
	DisplayOrder   FlexInt `json:"DisplayOrder"`
	Title          string  `json:"Title"`
	ConsoleID      FlexInt `json:"ConsoleID"`
	ConsoleName    string  `json:"ConsoleName"`
	Flags          *int    `json:"Flags"`
	ImageIcon      string  `json:"ImageIcon"`

	IconURL            *string                  `json:"IconURL,omitempty"`
	HardcoreMode       *string                  `json:"HardcoreMode,omitempty"`
	CompletionProgress *CompletionProgressEntry `json:"CompletionProgress,omitempty"`
	UserProgress       *UserProgress            `json:"UserProgress,omitempty"`
}

// AwardsResponse is the body of API_GetUserAwards.
type AwardsResponse struct {
	AwardCounts
	VisibleUserAwards []UserAward `json:"VisibleUserAwards"`
}

// CompletionProgressEntry is one row of API_GetUserCompletionProgress.
type CompletionProgressEntry struct {
	GameID                FlexInt `json:"GameID"`
	Title                 string  `json:"Title"`
	ImageIcon             string  `json:"ImageIcon"`
	ConsoleID             FlexInt `json:"ConsoleID"`
	ConsoleName           string  `json:"ConsoleName"`
	MaxPossible           FlexInt `json:"MaxPossible"`
	NumAwarded            FlexInt `json:"NumAwarded"`
	NumAwardedHardcore    FlexInt `json:"NumAwardedHardcore"`
	MostRecentAwardedDate *string `json:"MostRecentAwardedDate"`
	HighestAwardKind      *string `json:"HighestAwardKind"`
	HighestAwardDate      *string `json:"HighestAwardDate"`
}

// CompletionProgressPage is the paged envelope of API_GetUserCompletionProgress.
type CompletionProgressPage struct {
	Count   FlexInt                   `json:"Count"`
	Total   FlexInt                   `json:"Total"`
	Results []CompletionProgressEntry `json:"Results"`
}
