package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := ParseCategory(" Payment ")
	require.NoError(t, err)
	assert.Equal(t, CategoryPayment, c)

	ch, err := ParseChannel("in-app")
	require.NoError(t, err)
	assert.Equal(t, ChannelInApp, ch)

	p, err := ParsePriority("URGENT")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	s, err := ParseScope("program")
	require.NoError(t, err)
	assert.Equal(t, ScopeProgram, s)

	_, err = ParseCategory("holiday")
	assert.ErrorIs(t, err, ErrUnknownValue)
	_, err = ParseChannel("fax")
	assert.ErrorIs(t, err, ErrUnknownValue)
	_, err = ParsePriority("meh")
	assert.ErrorIs(t, err, ErrUnknownValue)
	_, err = ParseScope("world")
	assert.ErrorIs(t, err, ErrUnknownValue)

	chs, err := ParseChannels([]string{"email", "push"})
	require.NoError(t, err)
	assert.Equal(t, []Channel{ChannelEmail, ChannelPush}, chs)
	_, err = ParseChannels([]string{"email", "pigeon"})
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestChannel(t *testing.T) {
	assert.False(t, ChannelInApp.External())
	assert.True(t, ChannelSMS.External())
	assert.Equal(t, "channel(9)", Channel(9).String())
	assert.False(t, Channel(9).Valid())
}

func TestNotificationJSON(t *testing.T) {
	n := Notification{ID: 1, Category: CategoryAchievement, Priority: PriorityLow, Scope: ScopeIndividual, TargetIDs: []int64{5}}
	b, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"category":"achievement"`)

	var back Notification
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, n, back)

	_, err = json.Marshal(Notification{Category: Category(99)})
	assert.Error(t, err)
}
