package model

import "time"

type User struct {
	Wallet           string
	Alias            string
	XP               int
	Avatar           string
	IsAdmin          bool
	Completed        []string
	RegistrationDate time.Time
	AuthDate         time.Time
}

// SocialAccounts holds the handles a user has linked for proof verification.
// A nil field means that platform is not linked.
type SocialAccounts struct {
	Twitter  *string
	Discord  *string
	Telegram *string
}

func (s SocialAccounts) Handle(platform StepType) *string {
	switch platform {
	case StepTwitter:
		return s.Twitter
	case StepDiscord:
		return s.Discord
	case StepTelegram:
		return s.Telegram
	default:
		return nil
	}
}
