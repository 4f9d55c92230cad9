package model

// ConsoleDescriptor is one console from API_GetConsoleIDs.
type ConsoleDescriptor struct {
	ID           FlexInt `json:"ID"`
	Name         string  `json:"Name"`
	IconURL      string  `json:"IconURL"`
	Active       bool    `json:"Active"`
	IsGameSystem bool    `json:"IsGameSystem"`
}
