package model

import "strconv"

// CompletedGame is one row of API_GetUserCompletedGames. A game appears once
// per mode, so GameID alone is not unique; see Key.
type CompletedGame struct {
	GameID       FlexInt   `json:"GameID"`
	Title        string    `json:"Title"`
	ImageIcon    string    `json:"ImageIcon"`
	ConsoleID    FlexInt   `json:"ConsoleID"`
	ConsoleName  string    `json:"ConsoleName"`
	MaxPossible  FlexInt   `json:"MaxPossible"`
	NumAwarded   FlexInt   `json:"NumAwarded"`
	PctWon       FlexFloat `json:"PctWon"`
	HardcoreMode string    `json:"HardcoreMode"`
	ConsoleIcon  *string   `json:"ConsoleIcon,omitempty"`
}

// GameModeKey identifies a completed-game row.
type GameModeKey struct {
	GameID       int
	HardcoreMode string
}

// Key returns the composite identity of the row.
func (g CompletedGame) Key() GameModeKey {
	return GameModeKey{GameID: g.GameID.Int(), HardcoreMode: g.HardcoreMode}
}

// String renders the key as "<gameId>-<mode>".
func (k GameModeKey) String() string {
	return strconv.Itoa(k.GameID) + "-" + k.HardcoreMode
}

// AchievementType classifies an achievement. Empty means untagged.
type AchievementType string

const (
	AchievementWinCondition AchievementType = "win_condition"
	AchievementProgression  AchievementType = "progression"
	AchievementMissable     AchievementType = "missable"
)

// Achievement is an entry of GameInfo.Achievements.
type Achievement struct {
	ID                 FlexInt         `json:"ID"`
	Title              string          `json:"Title"`
	Description        string          `json:"Description"`
	Points             FlexInt         `json:"Points"`
	TrueRatio          FlexInt         `json:"TrueRatio"`
	Author             string          `json:"Author,omitempty"`
	BadgeName          string          `json:"BadgeName"`
	DisplayOrder       FlexInt         `json:"DisplayOrder"`
	NumAwarded         FlexInt         `json:"NumAwarded"`
	NumAwardedHardcore FlexInt         `json:"NumAwardedHardcore"`
	DateEarned         *string         `json:"DateEarned,omitempty"`
	DateEarnedHardcore *string         `json:"DateEarnedHardcore,omitempty"`
	Type               AchievementType `json:"type"`
}

// Earned reports whether the user unlocked the achievement in any mode.
func (a Achievement) Earned() bool {
	return a.DateEarned != nil || a.DateEarnedHardcore != nil
}

// GameProgress holds the per-user progress part of a game info record.
type GameProgress struct {
	ImageTitle                 string  `json:"ImageTitle"`
	ImageIngame                string  `json:"ImageIngame"`
	ImageBoxArt                string  `json:"ImageBoxArt"`
	Publisher                  string  `json:"Publisher"`
	Developer                  string  `json:"Developer"`
	Genre                      string  `json:"Genre"`
	Released                   string  `json:"Released"`
	NumDistinctPlayers         FlexInt `json:"NumDistinctPlayers"`
	NumDistinctPlayersCasual   FlexInt `json:"NumDistinctPlayersCasual,omitempty"`
	NumDistinctPlayersHardcore FlexInt `json:"NumDistinctPlayersHardcore,omitempty"`
	NumAchievements            FlexInt `json:"NumAchievements"`
	NumAwardedToUser           FlexInt `json:"NumAwardedToUser"`
	NumAwardedToUserHardcore   FlexInt `json:"NumAwardedToUserHardcore"`
	UserCompletion             string  `json:"UserCompletion"`
	UserCompletionHardcore     string  `json:"UserCompletionHardcore"`
	MostRecentAwardedDate      *string `json:"MostRecentAwardedDate,omitempty"`
	HighestAwardKind           *string `json:"HighestAwardKind"`
	HighestAwardDate           *string `json:"HighestAwardDate"`
}

// GameInfo is the body of API_GetGameInfoAndUserProgress.
type GameInfo struct {
	ID           FlexInt `json:"ID"`
	Title        string  `json:"Title"`
	ConsoleID    FlexInt `json:"ConsoleID"`
	ConsoleName  string  `json:"ConsoleName"`
	ImageIcon    string  `json:"ImageIcon"`
	ParentGameID *int    `json:"ParentGameID"`
	GameProgress

	Achievements FlexMap[int, Achievement] `json:"Achievements"`
}

// GameHash is a recognised ROM hash for a game.
type GameHash struct {
	MD5      string   `json:"MD5"`
	Name     string   `json:"Name"`
	Labels   []string `json:"Labels"`
	PatchURL *string  `json:"PatchUrl"`
}

// GameHashList is the envelope of API_GetGameHashes.
type GameHashList struct {
	Results []GameHash `json:"Results"`
}

// AchievementDistribution maps an unlock count to the number of players
// with that many unlocks.
type AchievementDistribution map[int]int

// UnmarshalJSON implements json.Unmarshaler.
func (d *AchievementDistribution) UnmarshalJSON(data []byte) error {
	out, err := decodeFlexMap[int, int](data)
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// GameDetailProgress is GameInfo without identity fields.
type GameDetailProgress struct {
	GameProgress
	Achievements map[int]Achievement `json:"Achievements"`
}

// GameDetail is the response of the game detail endpoint.
type GameDetail struct {
	GameID                FlexInt             `json:"GameID"`
	Title                 string              `json:"Title"`
	ConsoleID             FlexInt             `json:"ConsoleID"`
	ConsoleName           string              `json:"ConsoleName"`
	ImageIcon             string              `json:"ImageIcon"`
	ParentGameID          *int                `json:"ParentGameID"`
	MaxPossible           FlexInt             `json:"MaxPossible"`
	NumAwarded            FlexInt             `json:"NumAwarded"`
	MostRecentAwardedDate *string             `json:"MostRecentAwardedDate"`
	HighestAwardKind      *string             `json:"HighestAwardKind"`
	HighestAwardDate      *string             `json:"HighestAwardDate"`
	Hashes                []GameHash          `json:"Hashes"`
	UserProgress          *GameDetailProgress `json:"UserProgress"`
}

// GameProgressEntry is one row of the game progress endpoint.
type GameProgressEntry struct {
	CompletionProgressEntry
	ConsoleIcon  *string       `json:"ConsoleIcon"`
	Hashes       []GameHash    `json:"Hashes"`
	UserProgress *GameProgress `json:"UserProgress"`
	Error        string        `json:"error,omitempty"`
}

// GameProgressReport is the response of the game progress endpoint.
type GameProgressReport struct {
	Count   FlexInt             `json:"Count"`
	Total   FlexInt             `json:"Total"`
	Results []GameProgressEntry `json:"Results"`
}
