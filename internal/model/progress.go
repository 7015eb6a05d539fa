package model

import (
	"time"

	"github.com/google/uuid"
)

type StepState string

const (
	StepUnverified StepState = "unverified"
	StepVerifying  StepState = "verifying"
	StepVerified   StepState = "verified"
	StepCooldown   StepState = "failed-cooldown"
)

// QuestProgress is session-local per (wallet, quest) state. It is never
// persisted; on a fresh session it is rebuilt from submission history.
type QuestProgress struct {
	QuestID       uuid.UUID
	Wallet        string
	CurrentStep   int
	VerifiedSteps map[int]bool
	Proofs        map[int]string
	Attempts      map[int]int
	RetryAt       *time.Time
	Submitted     bool
	Completed     bool
}

type VerifyOutcome struct {
	State         StepState
	Message       string
	RetryAfterSec int
	Reason        VerifyReason
	AllVerified   bool
}

type VerifyReason string

const (
	ReasonOK               VerifyReason = "ok"
	ReasonFailed           VerifyReason = "failed"
	ReasonAccountNotLinked VerifyReason = "account_not_linked"
	ReasonCooldownActive   VerifyReason = "cooldown_active"
)
