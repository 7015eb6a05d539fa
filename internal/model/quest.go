package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestCategory string

const (
	CategoryNovice    QuestCategory = "Novice"
	CategoryAdept     QuestCategory = "Adept"
	CategoryMaster    QuestCategory = "Master"
	CategoryLegendary QuestCategory = "Legendary"
)

type RewardType string

const (
	RewardDRC20     RewardType = "DRC-20 TOKENS"
	RewardDunes     RewardType = "Dunes"
	RewardTAP       RewardType = "TAP Protocol tokens"
	RewardDogeOS    RewardType = "DogeOS tokens"
	RewardWhitelist RewardType = "Whitelist"
	RewardDoginals  RewardType = "doginals"
	RewardLaika     RewardType = "Laika"
)

type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestPaused    QuestStatus = "paused"
)

type StepType string

const (
	StepText     StepType = "text"
	StepURL      StepType = "url"
	StepLink     StepType = "link"
	StepImage    StepType = "image"
	StepCheckbox StepType = "checkbox"
	StepTwitter  StepType = "twitter"
	StepDiscord  StepType = "discord"
	StepTelegram StepType = "telegram"
)

type StepAction string

const (
	ActionFollow      StepAction = "follow"
	ActionTweet       StepAction = "tweet"
	ActionRetweet     StepAction = "retweet"
	ActionLike        StepAction = "like"
	ActionJoinServer  StepAction = "join_server"
	ActionJoinChannel StepAction = "join_channel"
)

type Quest struct {
	ID          uuid.UUID
	Title       string
	Description string
	Category    QuestCategory
	RewardType  RewardType
	Reward      int
	DogeAmount  *float64
	TokenTicker *string
	TokenAmount *float64
	Steps       []QuestStep
	Status      QuestStatus
	Creator     *string
	PaymentTx   *string
	EndDate     *time.Time
	CreatedAt   time.Time

	WhitelistWinners []string
}

type QuestStep struct {
	Index         int
	Description   string
	Type          StepType
	ProofRequired bool
	URL           *string

	Platform   *StepType
	Action     *StepAction
	TargetUser *string
	ServerID   *string
}
