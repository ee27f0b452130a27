package dto

import "time"

type NavigationInput struct {
	ContextID string `json:"contextId"`
	URL       string `json:"url"`
}

type DecisionOutput struct {
	ContextID   string `json:"contextId,omitempty"`
	URL         string `json:"url"`
	Host        string `json:"host,omitempty"`
	FocusActive bool   `json:"focusActive"`
	BlockPage   bool   `json:"blockPage,omitempty"`
	Blocked     bool   `json:"blocked"`
	MatchedSite string `json:"matchedSite,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
}

type RedirectOutput struct {
	Type      string    `json:"type"`
	ContextID string    `json:"contextId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Host      string    `json:"host"`
	Site      string    `json:"site"`
	At        time.Time `json:"at"`
}

type BlockPageOutput struct {
	Title       string
	Clock       string
	TimeLeft    int
	FocusActive bool
	OnBreak     bool
}
