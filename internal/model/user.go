package model

// UserProfile is the identity block returned by API_GetUserProfile.
type UserProfile struct {
	User                string  `json:"User"`
	ULID                string  `json:"ULID,omitempty"`
	UserPic             string  `json:"UserPic"`
	MemberSince         string  `json:"MemberSince"`
	RichPresenceMsg     string  `json:"RichPresenceMsg"`
	LastGameID          FlexInt `json:"LastGameID"`
	ContribCount        FlexInt `json:"ContribCount"`
	ContribYield        FlexInt `json:"ContribYield"`
	TotalPoints         FlexInt `json:"TotalPoints"`
	TotalSoftcorePoints FlexInt `json:"TotalSoftcorePoints"`
	TotalTruePoints     FlexInt `json:"TotalTruePoints"`
	Permissions         FlexInt `json:"Permissions"`
	Untracked           bool    `json:"Untracked"`
	ID                  FlexInt `json:"ID"`
	UserWallActive      bool    `json:"UserWallActive"`
	Motto               string  `json:"Motto"`
}

// RecentGame is one entry of API_GetUserRecentlyPlayedGames and of the
// summary's RecentlyPlayed / LastGame blocks.
type RecentGame struct {
	GameID                  FlexInt `json:"GameID,omitempty"`
	ID                      FlexInt `json:"ID,omitempty"`
	ConsoleID               FlexInt `json:"ConsoleID"`
	ConsoleName             string  `json:"ConsoleName"`
	Title                   string  `json:"Title"`
	GameIcon                string  `json:"GameIcon,omitempty"`
	ImageIcon               string  `json:"ImageIcon"`
	ImageTitle              string  `json:"ImageTitle"`
	ImageIngame             string  `json:"ImageIngame"`
	ImageBoxArt             string  `json:"ImageBoxArt"`
	LastPlayed              string  `json:"LastPlayed,omitempty"`
	AchievementsTotal       FlexInt `json:"AchievementsTotal,omitempty"`
	NumPossibleAchievements FlexInt `json:"NumPossibleAchievements,omitempty"`
	PossibleScore           FlexInt `json:"PossibleScore,omitempty"`
	NumAchieved             FlexInt `json:"NumAchieved,omitempty"`
	ScoreAchieved           FlexInt `json:"ScoreAchieved,omitempty"`
	NumAchievedHardcore     FlexInt `json:"NumAchievedHardcore,omitempty"`
	ScoreAchievedHardcore   FlexInt `json:"ScoreAchievedHardcore,omitempty"`
	IconURL                 *string `json:"IconURL,omitempty"`
}

// RecentAchievement is an entry of the summary's RecentAchievements map.
type RecentAchievement struct {
	ID               FlexInt `json:"ID"`
	GameID           FlexInt `json:"GameID"`
	GameTitle        string  `json:"GameTitle"`
	Title            string  `json:"Title"`
	Description      string  `json:"Description"`
	Points           FlexInt `json:"Points"`
	Type             string  `json:"Type,omitempty"`
	BadgeName        string  `json:"BadgeName"`
	IsAwarded        string  `json:"IsAwarded"`
	DateAwarded      string  `json:"DateAwarded"`
	HardcoreAchieved FlexInt `json:"HardcoreAchieved"`
}

// LastActivity mirrors the summary's activity block.
type LastActivity struct {
	ID           FlexInt `json:"ID"`
	Timestamp    *string `json:"timestamp"`
	LastUpdate   *string `json:"lastupdate"`
	ActivityType *string `json:"activitytype"`
	User         string  `json:"User"`
	Data         *string `json:"data"`
	Data2        *string `json:"data2"`
}

// UserSummary is returned by API_GetUserSummary and enriched by the profile endpoint.
type UserSummary struct {
	User                 string        `json:"User"`
	ULID                 string        `json:"ULID,omitempty"`
	UserPic              string        `json:"UserPic"`
	MemberSince          string        `json:"MemberSince"`
	FormattedMemberSince string        `json:"FormattedMemberSince,omitempty"`
	LastActivity         *LastActivity `json:"LastActivity"`
	RichPresenceMsg      string        `json:"RichPresenceMsg"`
	LastGameID           FlexInt       `json:"LastGameID"`
	ContribCount         FlexInt       `json:"ContribCount"`
	ContribYield         FlexInt       `json:"ContribYield"`
	TotalPoints          FlexInt       `json:"TotalPoints"`
	TotalSoftcorePoints  FlexInt       `json:"TotalSoftcorePoints"`
	TotalTruePoints      FlexInt       `json:"TotalTruePoints"`
	Permissions          FlexInt       `json:"Permissions"`
	Untracked            bool          `json:"Untracked"`
	ID                   FlexInt       `json:"ID"`
	UserWallActive       bool          `json:"UserWallActive"`
	Motto                string        `json:"Motto"`
	Rank                 FlexInt       `json:"Rank"`
	TotalRanked          FlexInt       `json:"TotalRanked"`
	Status               string        `json:"Status"`
	RecentlyPlayedCount  FlexInt       `json:"RecentlyPlayedCount"`
	RecentlyPlayed       []RecentGame  `json:"RecentlyPlayed"`
	LastGame             *RecentGame   `json:"LastGame,omitempty"`

	RecentAchievements FlexMap[string, map[string]RecentAchievement] `json:"RecentAchievements,omitempty"`
}

// FollowUser is an entry of the follow lists.
type FollowUser struct {
	User           string  `json:"User"`
	ULID           string  `json:"ULID,omitempty"`
	Points         FlexInt `json:"Points"`
	PointsSoftcore FlexInt `json:"PointsSoftcore"`
	IsFollowingMe  *bool   `json:"IsFollowingMe,omitempty"`
	AmIFollowing   *bool   `json:"AmIFollowing,omitempty"`
	UserPic        string  `json:"UserPic"`
}

// FollowPage is the paged envelope of API_GetUsersIFollow / API_GetUsersFollowingMe.
type FollowPage struct {
	Count   FlexInt      `json:"Count"`
	Total   FlexInt      `json:"Total"`
	Results []FollowUser `json:"Results"`
}

// WantToPlayItem is an entry of a user's want-to-play list.
type WantToPlayItem struct {
	ID                    FlexInt `json:"ID"`
	Title                 string  `json:"Title"`
	ImageIcon             *string `json:"ImageIcon"`
	ConsoleID             FlexInt `json:"ConsoleID"`
	ConsoleName           string  `json:"ConsoleName"`
	PointsTotal           FlexInt `json:"PointsTotal"`
	AchievementsPublished FlexInt `json:"AchievementsPublished"`
	IconURL               *string `json:"IconURL"`
}

// WantToPlayPage is the paged envelope of API_GetUserWantToPlayList.
type WantToPlayPage struct {
	Count   FlexInt          `json:"Count"`
	Total   FlexInt          `json:"Total"`
	Results []WantToPlayItem `json:"Results"`
}
