package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"dnkquest-backend/internal/model"

	"github.com/go-resty/resty/v2"
)

const failMessage = "Task not completed, try again"

var (
	twitterURLPattern  = regexp.MustCompile(`^https?://(www\.)?(twitter\.com|x\.com)/([A-Za-z0-9_]+)`)
	telegramURLPattern = regexp.MustCompile(`(?i)(?:https?://)?(t\.me|telegram\.me)/([A-Za-z0-9_]+)`)
)

type VerificationResult struct {
	Passed  bool
	Message string
	Reason  model.VerifyReason
}

// URLProbe optionally checks that a proof URL is reachable. A nil probe skips
// the check so verification stays fully deterministic.
type URLProbe interface {
	Reachable(ctx context.Context, rawURL string) bool
}

type RestyProbe struct {
	client *resty.Client
}

func NewRestyProbe(timeout time.Duration) *RestyProbe {
	return &RestyProbe{
		client: resty.New().SetTimeout(timeout),
	}
}

func (p *RestyProbe) Reachable(ctx context.Context, rawURL string) bool {
	resp, err := p.client.R().SetContext(ctx).Head(rawURL)
	if err != nil {
		return false
	}
	return resp.StatusCode() < 500
}

// VerificationEngine decides whether a proof satisfies a quest step. All rules
// are pure string checks against the user's linked social handles; the probe is
// the only part that touches the network.
type VerificationEngine struct {
	probe URLProbe
}

func NewVerificationEngine(probe URLProbe) *VerificationEngine {
	return &VerificationEngine{probe: probe}
}

func (e *VerificationEngine) VerifyStep(ctx context.Context, step model.QuestStep, proof string, accounts *model.SocialAccounts) VerificationResult {
	proof = strings.TrimSpace(proof)

	if step.ProofRequired && proof == "" {
		return fail(model.ReasonFailed)
	}

	switch step.Type {
	case model.StepTwitter, model.StepDiscord, model.StepTelegram:
		return e.verifySocial(step, proof, accounts)
	case model.StepURL:
		return e.verifyURL(ctx, step, proof)
	default:
		// text/link/image/checkbox: non-empty proof already checked above.
		return pass()
	}
}

func (e *VerificationEngine) verifySocial(step model.QuestStep, proof string, accounts *model.SocialAccounts) VerificationResult {
	linked := accounts.Handle(step.Type)
	if linked == nil || strings.TrimSpace(*linked) == "" {
		return fail(model.ReasonAccountNotLinked)
	}
	handle := cleanHandle(*linked)

	if !step.ProofRequired {
		// The linked account is the whole requirement.
		return pass()
	}

	switch step.Type {
	case model.StepTwitter:
		return verifyTwitterProof(step, proof, handle)
	case model.StepDiscord:
		return verifyDiscordProof(proof, handle)
	default:
		return verifyTelegramProof(proof, handle)
	}
}

func verifyTwitterProof(step model.QuestStep, proof string, handle string) VerificationResult {
	if step.Action != nil && *step.Action == model.ActionFollow {
		if cleanHandle(proof) == handle {
			return pass()
		}
		return fail(model.ReasonFailed)
	}

	// tweet/retweet/like proofs are tweet URLs authored by the linked handle
	match := twitterURLPattern.FindStringSubmatch(proof)
	if match == nil {
		return fail(model.ReasonFailed)
	}
	if strings.ToLower(match[3]) != handle {
		return fail(model.ReasonFailed)
	}
	return pass()
}

func verifyDiscordProof(proof string, handle string) VerificationResult {
	wordPattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(handle) + `\b`)
	if wordPattern.MatchString(proof) || strings.Contains(strings.ToLower(proof), handle) {
		return pass()
	}
	return fail(model.ReasonFailed)
}

func verifyTelegramProof(proof string, handle string) VerificationResult {
	if match := telegramURLPattern.FindStringSubmatch(proof); match != nil {
		if strings.ToLower(match[2]) == handle {
			return pass()
		}
		return fail(model.ReasonFailed)
	}

	mentionPattern := regexp.MustCompile(`(?i)@?` + regexp.QuoteMeta(handle) + `\b`)
	if mentionPattern.MatchString(proof) {
		return pass()
	}
	return fail(model.ReasonFailed)
}

func (e *VerificationEngine) verifyURL(ctx context.Context, step model.QuestStep, proof string) VerificationResult {
	if !step.ProofRequired {
		return pass()
	}

	u, err := url.Parse(proof)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fail(model.ReasonFailed)
	}

	if e.probe != nil && !e.probe.Reachable(ctx, proof) {
		return fail(model.ReasonFailed)
	}
	return pass()
}

func cleanHandle(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

func pass() VerificationResult {
	return VerificationResult{Passed: true, Reason: model.ReasonOK}
}

func fail(reason model.VerifyReason) VerificationResult {
	return VerificationResult{Passed: false, Message: failMessage, Reason: reason}
}
