package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/models"
)

// StepKind enumerates the observable outcomes of feeding one message into
// a registration flow.
type StepKind int

const (
	// StepPromptPassword: the username was accepted, ask for the password.
	StepPromptPassword StepKind = iota + 1

	// StepDuplicate: the username is already linked; the flow is over, no
	// network call was made.
	StepDuplicate

	// StepCompleted: the account is linked and active. Account is set.
	StepCompleted

	// StepLoginFailed: the remote side rejected the credentials; the flow
	// is over, the user may start again.
	StepLoginFailed

	// StepExpired: the flow sat idle past its TTL and was discarded.
	StepExpired
)

// StepResult is what one Input call produced. Account is populated only
// for StepCompleted.
type StepResult struct {
	Kind    StepKind
	Account models.LinkedAccount
}

type flowState int

const (
	flowAwaitingUsername flowState = iota + 1
	flowAwaitingPassword
)

const defaultFlowTTL = 10 * time.Minute

type registrationFlow struct {
	state    flowState
	username string
	touched  time.Time
}

type registrationService struct {
	accounts AccountService
	deleter  MessageDeleter

	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	flows map[int64]*registrationFlow

	logger *logger.Logger
}

// NewRegistrationService builds the per-user linking dialog. ttl bounds how
// long a flow may sit idle between messages; expiry is checked lazily on
// the next input. A non-positive ttl falls back to defaultFlowTTL.
func NewRegistrationService(accounts AccountService, deleter MessageDeleter, ttl time.Duration, logger *logger.Logger) RegistrationService {
	if ttl <= 0 {
		ttl = defaultFlowTTL
	}

	return &registrationService{
		accounts: accounts,
		deleter:  deleter,
		ttl:      ttl,
		now:      time.Now,
		flows:    make(map[int64]*registrationFlow),
		logger:   logger,
	}
}

// Begin implements [RegistrationService]. Starting over an existing flow
// resets it.
func (r *registrationService) Begin(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flows[userID] = &registrationFlow{state: flowAwaitingUsername, touched: r.now()}
}

func (r *registrationService) Cancel(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flows, userID)
}

func (r *registrationService) InProgress(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[userID]
	return ok && r.now().Sub(flow.touched) <= r.ttl
}

// Input implements [RegistrationService]. The username step only records
// the name; the duplicate check happens inside Register on the password
// step, before any network call, and ends the flow. The message carrying
// the password is deleted best-effort; a failed deletion is logged and
// ignored.
func (r *registrationService) Input(ctx context.Context, userID, chatID int64, messageID int, text string) (StepResult, error) {
	log := logger.FromContext(ctx)

	flow, expired := r.takeFlow(userID)
	if expired {
		return StepResult{Kind: StepExpired}, nil
	}
	if flow == nil {
		return StepResult{}, ErrNoRegistrationFlow
	}

	text = strings.TrimSpace(text)

	switch flow.state {
	case flowAwaitingUsername:
		r.advance(userID, text)
		return StepResult{Kind: StepPromptPassword}, nil

	case flowAwaitingPassword:
		if delErr := r.deleter.DeleteMessage(ctx, chatID, messageID); delErr != nil {
			log.Warn().Err(delErr).Str("func", "registrationService.Input").Int64("user_id", userID).Msg("failed to delete password message")
		}

		account, err := r.accounts.Register(ctx, userID, flow.username, text)
		switch {
		case errors.Is(err, ErrDuplicateAccount):
			r.Cancel(userID)
			return StepResult{Kind: StepDuplicate}, nil
		case errors.Is(err, ErrLoginFailed):
			r.Cancel(userID)
			return StepResult{Kind: StepLoginFailed}, nil
		case err != nil:
			return StepResult{}, err
		}

		r.Cancel(userID)
		return StepResult{Kind: StepCompleted, Account: account}, nil
	}

	return StepResult{}, ErrNoRegistrationFlow
}

// takeFlow returns a copy of the live flow and refreshes its idle stamp.
// An expired flow is discarded and reported as such.
func (r *registrationService) takeFlow(userID int64) (*registrationFlow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[userID]
	if !ok {
		return nil, false
	}

	now := r.now()
	if now.Sub(flow.touched) > r.ttl {
		delete(r.flows, userID)
		return nil, true
	}
	flow.touched = now

	snapshot := *flow
	return &snapshot, false
}

func (r *registrationService) advance(userID int64, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if flow, ok := r.flows[userID]; ok {
		flow.state = flowAwaitingPassword
		flow.username = username
	}
}
