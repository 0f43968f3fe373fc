package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	kafkax "github.com/NordCoder/Lessonbell/internal/repository/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifs struct{ mock.Mock }

func (m *mockNotifs) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*notification.Notification)
	return n, args.Error(1)
}

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Run(ctx context.Context, req Request) (Report, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Report), args.Error(1)
}

func TestController_Dispatch(t *testing.T) {
	notifs, runner := new(mockNotifs), new(mockRunner)
	n := &notification.Notification{ID: 11, TenantID: 7, Scope: notification.ScopeCourse, TargetIDs: []int64{3}}

	notifs.On("GetByID", mock.Anything, int64(11)).Return(n, nil).Once()
	runner.On("Run", mock.Anything, Request{
		Notification:   n,
		ForcedChannels: []notification.Channel{notification.ChannelPush},
		Recipients:     []int64{4},
		Language:       "en",
	}).Return(Report{Recipients: 1, BatchSizes: []int{1}, Sent: 1}, nil).Once()

	rep, err := NewController(notifs, runner, nil).Dispatch(context.Background(), kafkax.DispatchRequest{
		NotificationID: 11,
		TenantID:       7,
		ForcedChannels: []notification.Channel{notification.ChannelPush},
		Recipients:     []int64{4},
		Language:       "en",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Sent)
	notifs.AssertExpectations(t)
	runner.AssertExpectations(t)
}

func TestController_DispatchErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		notifs, runner := new(mockNotifs), new(mockRunner)
		notifs.On("GetByID", mock.Anything, int64(1)).Return(nil, fmt.Errorf("row: %w", notification.ErrNotFound))

		_, err := NewController(notifs, runner, nil).Dispatch(ctx, kafkax.DispatchRequest{NotificationID: 1})
		assert.ErrorIs(t, err, notification.ErrNotFound)
		assert.True(t, isPermanent(err))
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("tenant mismatch", func(t *testing.T) {
		notifs, runner := new(mockNotifs), new(mockRunner)
		notifs.On("GetByID", mock.Anything, int64(1)).Return(&notification.Notification{ID: 1, TenantID: 7}, nil)

		_, err := NewController(notifs, runner, nil).Dispatch(ctx, kafkax.DispatchRequest{NotificationID: 1, TenantID: 8})
		assert.ErrorIs(t, err, notification.ErrTenant)
		assert.True(t, isPermanent(err))
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("transient", func(t *testing.T) {
		notifs, runner := new(mockNotifs), new(mockRunner)
		boom := errors.New("conn reset")
		notifs.On("GetByID", mock.Anything, int64(1)).Return(&notification.Notification{ID: 1, TenantID: 7}, nil)
		runner.On("Run", mock.Anything, mock.Anything).Return(Report{}, boom)

		_, err := NewController(notifs, runner, nil).Dispatch(ctx, kafkax.DispatchRequest{NotificationID: 1})
		assert.ErrorIs(t, err, boom)
		assert.False(t, isPermanent(err))
	})
}
