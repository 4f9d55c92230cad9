package model

// ErrFetchUserData is the message carried by a failed bundle.
const ErrFetchUserData = "Error fetching user data"

// Bundle is the merged result of one profile lookup.
// Either Error is empty and every primary field is set, or Error is set and
// every primary field is nil.
type Bundle struct {
	Profile        *UserProfile    `json:"profile"`
	CompletedGames []CompletedGame `json:"completedGames"`
	UserAwards     []UserAward     `json:"userAwards"`
	AwardCounts    *AwardCounts    `json:"awardCounts"`
	Consoles       []ConsoleIcon   `json:"consoles"`
	Error          string          `json:"error,omitempty"`
}

// Failed reports whether the bundle carries an error.
func (b *Bundle) Failed() bool {
	return b != nil && b.Error != ""
}

// FailedBundle returns the all-or-nothing failure value.
func FailedBundle() *Bundle {
	return &Bundle{Error: ErrFetchUserData}
}

// ProfileReport is the response of the profile endpoint.
type ProfileReport struct {
	Profile *UserSummary `json:"profile"`
	Game    *RecentGame  `json:"game"`
	Message string       `json:"message,omitempty"`
}

// FollowReport is the response of the following and followers endpoints.
type FollowReport struct {
	Count   int          `json:"count"`
	Results []FollowUser `json:"results"`
}

// WantToPlayReport is the response of the want-to-play endpoint.
type WantToPlayReport struct {
	Count          int              `json:"count"`
	Total          int              `json:"total"`
	WantToPlayList []WantToPlayItem `json:"wantToPlayList"`
}

// ConsoleIcon is a console with its resolved icon URL.
type ConsoleIcon struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
}
