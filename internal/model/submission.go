package model

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

type QuestSubmission struct {
	ID              uuid.UUID
	QuestID         uuid.UUID
	Wallet          string
	SubmittedAt     time.Time
	Proofs          map[int]string
	Status          SubmissionStatus
	ReviewedBy      *string
	ReviewedAt      *time.Time
	RejectionReason *string
}
