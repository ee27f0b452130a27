package dto

type SettingsOutput struct {
	FocusMinutes int
	BreakMinutes int
	BlockedSites []string
}

// DurationsInput leaves a duration untouched when its pointer is nil.
type DurationsInput struct {
	FocusMinutes *int
	BreakMinutes *int
}

type SitesOutput struct {
	Added        []string
	Rejected     []string
	BlockedSites []string
}

type InstallOutput struct {
	Seeded bool
}
