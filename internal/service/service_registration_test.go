package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/models"
)

func newRegistration(accounts *mockAccountService, deleter *recordingDeleter, ttl time.Duration) *registrationService {
	return NewRegistrationService(accounts, deleter, ttl, logger.Nop()).(*registrationService)
}

func TestRegistrationFlow_HappyPath(t *testing.T) {
	accounts := &mockAccountService{}
	deleter := &recordingDeleter{}
	reg := newRegistration(accounts, deleter, time.Minute)

	reg.Begin(42)
	require.True(t, reg.InProgress(42))

	step, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)
	assert.Equal(t, StepPromptPassword, step.Kind)

	step, err = reg.Input(context.Background(), 42, 42, 101, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, step.Kind)
	assert.Equal(t, "radar-player", step.Account.Username)

	assert.Equal(t, []int{101}, deleter.deleted, "only the password message is deleted")
	assert.False(t, reg.InProgress(42), "a completed flow is gone")
}

func TestRegistrationFlow_DuplicateEndsFlow(t *testing.T) {
	accounts := &mockAccountService{
		registerFn: func(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error) {
			return models.LinkedAccount{}, ErrDuplicateAccount
		},
	}
	reg := newRegistration(accounts, &recordingDeleter{}, time.Minute)

	reg.Begin(42)
	_, err := reg.Input(context.Background(), 42, 42, 100, "taken")
	require.NoError(t, err)

	step, err := reg.Input(context.Background(), 42, 42, 101, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, StepDuplicate, step.Kind)
	assert.False(t, reg.InProgress(42), "a duplicate ends the flow")

	// a fresh flow may link another name
	reg.Begin(42)
	step, err = reg.Input(context.Background(), 42, 42, 102, "free")
	require.NoError(t, err)
	assert.Equal(t, StepPromptPassword, step.Kind)
}

func TestRegistrationFlow_LoginFailureEndsFlow(t *testing.T) {
	accounts := &mockAccountService{
		registerFn: func(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error) {
			return models.LinkedAccount{}, ErrLoginFailed
		},
	}
	reg := newRegistration(accounts, &recordingDeleter{}, time.Minute)

	reg.Begin(42)
	_, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)

	step, err := reg.Input(context.Background(), 42, 42, 101, "wrong")
	require.NoError(t, err)
	assert.Equal(t, StepLoginFailed, step.Kind)
	assert.False(t, reg.InProgress(42))
}

func TestRegistrationFlow_PasswordDeletionIsBestEffort(t *testing.T) {
	accounts := &mockAccountService{}
	deleter := &recordingDeleter{fail: true}
	reg := newRegistration(accounts, deleter, time.Minute)

	reg.Begin(42)
	_, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)

	step, err := reg.Input(context.Background(), 42, 42, 101, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, step.Kind, "a failed deletion never fails the registration")
}

func TestRegistrationFlow_Expiry(t *testing.T) {
	reg := newRegistration(&mockAccountService{}, &recordingDeleter{}, time.Minute)

	clock := time.Now()
	reg.now = func() time.Time { return clock }

	reg.Begin(42)
	clock = clock.Add(2 * time.Minute)

	step, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)
	assert.Equal(t, StepExpired, step.Kind)
	assert.False(t, reg.InProgress(42))
}

func TestRegistrationFlow_CancelFromAnyState(t *testing.T) {
	reg := newRegistration(&mockAccountService{}, &recordingDeleter{}, time.Minute)

	reg.Begin(42)
	_, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)

	reg.Cancel(42)

	_, err = reg.Input(context.Background(), 42, 42, 101, "hunter2")
	require.ErrorIs(t, err, ErrNoRegistrationFlow)
}

func TestRegistrationFlow_NoFlow(t *testing.T) {
	reg := newRegistration(&mockAccountService{}, &recordingDeleter{}, time.Minute)

	_, err := reg.Input(context.Background(), 42, 42, 100, "hello")
	require.ErrorIs(t, err, ErrNoRegistrationFlow)
}

func TestRegistrationFlow_BeginResets(t *testing.T) {
	reg := newRegistration(&mockAccountService{}, &recordingDeleter{}, time.Minute)

	reg.Begin(42)
	_, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)

	reg.Begin(42)

	step, err := reg.Input(context.Background(), 42, 42, 101, "other-name")
	require.NoError(t, err)
	assert.Equal(t, StepPromptPassword, step.Kind, "restart lands back on the username step")
}

func TestRegistrationFlow_PersistenceFailurePropagates(t *testing.T) {
	accounts := &mockAccountService{
		registerFn: func(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error) {
			return models.LinkedAccount{}, errors.New("disk full")
		},
	}
	reg := newRegistration(accounts, &recordingDeleter{}, time.Minute)

	reg.Begin(42)
	_, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)

	_, err = reg.Input(context.Background(), 42, 42, 101, "hunter2")
	require.Error(t, err)
}

func TestNewRegistrationService_DefaultsZeroTTL(t *testing.T) {
	reg := newRegistration(&mockAccountService{}, &recordingDeleter{}, 0)
	assert.Equal(t, defaultFlowTTL, reg.ttl)

	reg.Begin(42)
	step, err := reg.Input(context.Background(), 42, 42, 100, "radar-player")
	require.NoError(t, err)
	assert.Equal(t, StepPromptPassword, step.Kind, "a fresh flow must survive its first input")
}
