package bot_test

import (
	"testing"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/bot"
	"github.com/stretchr/testify/assert"
)

func TestStateManager(t *testing.T) {
	t.Parallel()

	t.Run("get pops the state", func(t *testing.T) {
		t.Parallel()
		sm := bot.NewStateManager()

		sm.Set(1, bot.UserState{WaitingFor: "menu_input"})

		state, ok := sm.Get(1)
		assert.True(t, ok)
		assert.Equal(t, "menu_input", state.WaitingFor)
		assert.False(t, state.ExpiresAt.IsZero())

		_, ok = sm.Get(1)
		assert.False(t, ok)
	})

	t.Run("missing user has no state", func(t *testing.T) {
		t.Parallel()
		sm := bot.NewStateManager()

		_, ok := sm.Get(99)
		assert.False(t, ok)
	})

	t.Run("explicit expiry is preserved", func(t *testing.T) {
		t.Parallel()
		sm := bot.NewStateManager()

		deadline := time.Now().Add(-time.Minute)
		sm.Set(2, bot.UserState{WaitingFor: "hours_input", ExpiresAt: deadline})

		state, ok := sm.Get(2)
		assert.True(t, ok)
		assert.True(t, time.Now().After(state.ExpiresAt))
	})
}
