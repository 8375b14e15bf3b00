package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionEventsHandler_InvalidatesUser(t *testing.T) {
	inv := &fakeInvalidator{}
	h := NewPositionEventsHandler("position-events", inv, newFakeMetrics())

	assert.Equal(t, "position-events", h.Topic())

	ts := strconv.FormatInt(time.Now().Add(-2*time.Second).Unix(), 10)
	msg := []byte(`{"user_address":"0xalice","event_type":"deposit","ts":` + ts + `}`)
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, []string{"0xalice"}, inv.users)
}

func TestPositionEventsHandler_EmptyUserDroppedWithoutRetry(t *testing.T) {
	inv := &fakeInvalidator{}
	h := NewPositionEventsHandler("position-events", inv, newFakeMetrics())

	err := h.Handle(context.Background(), []byte(`{"event_type":"withdrawal","ts":0}`))
	require.NoError(t, err) // dropping, not retrying
	assert.Empty(t, inv.users)
}

func TestPositionEventsHandler_MalformedPayloadIsRetryable(t *testing.T) {
	inv := &fakeInvalidator{}
	h := NewPositionEventsHandler("position-events", inv, newFakeMetrics())

	err := h.Handle(context.Background(), []byte(`{not json`))
	assert.Error(t, err)
	assert.Empty(t, inv.users)
}
