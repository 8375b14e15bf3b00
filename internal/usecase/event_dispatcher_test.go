package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StakeWatch/internal/domain/models"
)

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeInvalidator) Invalidate(userAddress string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userAddress)
}

type fakeLookup struct {
	users map[string][]string
	err   error
}

func (f *fakeLookup) UsersForValidator(ctx context.Context, validatorAddress string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[validatorAddress], nil
}

type queuedMessage struct {
	msgType string
	payload interface{}
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []queuedMessage
	err      error
}

func (f *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, queuedMessage{msgType: msgType, payload: payload})
	return nil
}

func slashingEvent(validator string) *models.SlashingEvent {
	return &models.SlashingEvent{
		Validator:  validator,
		Operator:   "0xop1",
		Reason:     "surround vote",
		PenaltyETH: 1.0,
		OccurredAt: time.Now().UTC(),
	}
}

func TestEventDispatcher_InvalidatesAndEnqueuesPerAffectedUser(t *testing.T) {
	inv := &fakeInvalidator{}
	lookup := &fakeLookup{users: map[string][]string{"0xval1": {"0xalice", "0xbob"}}}
	q := &fakeQueue{}
	d := NewEventDispatcher(inv, lookup, q, newFakeMetrics(), testLogger(t))

	err := d.Process(context.Background(), slashingEvent("0xval1"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"0xalice", "0xbob"}, inv.users)
	require.Len(t, q.messages, 2)
	for _, m := range q.messages {
		assert.Equal(t, "alert_dispatch", m.msgType)
		payload, ok := m.payload.(map[string]interface{})
		require.True(t, ok)
		alert, ok := payload["alert"].(models.RiskAlert)
		require.True(t, ok)
		assert.Equal(t, models.AlertSlashingEvent, alert.Type)
		assert.Equal(t, models.SeverityCritical, alert.Severity)
	}
}

func TestEventDispatcher_LookupFailureIsFatal(t *testing.T) {
	inv := &fakeInvalidator{}
	lookup := &fakeLookup{err: errors.New("indexer down")}
	d := NewEventDispatcher(inv, lookup, &fakeQueue{}, newFakeMetrics(), testLogger(t))

	err := d.Process(context.Background(), slashingEvent("0xval1"))
	require.Error(t, err)
	assert.Empty(t, inv.users)
}

func TestEventDispatcher_NilQueueStillInvalidates(t *testing.T) {
	inv := &fakeInvalidator{}
	lookup := &fakeLookup{users: map[string][]string{"0xval1": {"0xalice"}}}
	d := NewEventDispatcher(inv, lookup, nil, newFakeMetrics(), testLogger(t))

	err := d.Process(context.Background(), slashingEvent("0xval1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0xalice"}, inv.users)
}

func TestEventDispatcher_EnqueueFailureDoesNotAbort(t *testing.T) {
	inv := &fakeInvalidator{}
	lookup := &fakeLookup{users: map[string][]string{"0xval1": {"0xalice", "0xbob"}}}
	q := &fakeQueue{err: errors.New("redis full")}
	d := NewEventDispatcher(inv, lookup, q, newFakeMetrics(), testLogger(t))

	err := d.Process(context.Background(), slashingEvent("0xval1"))
	require.NoError(t, err)
	assert.Len(t, inv.users, 2)
}

func TestEventDispatcher_NilEventRejected(t *testing.T) {
	d := NewEventDispatcher(&fakeInvalidator{}, &fakeLookup{}, nil, newFakeMetrics(), testLogger(t))
	assert.Error(t, d.Process(context.Background(), nil))
}
