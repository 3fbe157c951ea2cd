package bot

import (
	"testing"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestParseHoursInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  ledger.Window
		ok    bool
	}{
		{"valid window", "18 23", ledger.Window{StartHour: 18, EndHour: 23}, true},
		{"equal bounds are a one-instant window", "18 18", ledger.Window{StartHour: 18, EndHour: 18}, true},
		{"full day", "0 23", ledger.Window{StartHour: 0, EndHour: 23}, true},
		{"start after end", "23 18", ledger.Window{}, false},
		{"hour out of range", "18 24", ledger.Window{}, false},
		{"negative hour", "-1 23", ledger.Window{}, false},
		{"not numbers", "six pm", ledger.Window{}, false},
		{"wrong field count", "18", ledger.Window{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			win, ok := parseHoursInput(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, win)
		})
	}
}

func TestBroadcastReceivers(t *testing.T) {
	t.Parallel()

	t.Run("admin is filtered out", func(t *testing.T) {
		t.Parallel()
		receivers := broadcastReceivers([]int64{10, 20, 30}, 20)
		assert.Equal(t, []int64{10, 30}, receivers)
	})

	t.Run("admin not in the list", func(t *testing.T) {
		t.Parallel()
		receivers := broadcastReceivers([]int64{10, 30}, 20)
		assert.Equal(t, []int64{10, 30}, receivers)
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()
		receivers := broadcastReceivers(nil, 20)
		assert.Empty(t, receivers)
	})
}

func TestObserveDB(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	b := &Bot{metrics: metrics.NewMetrics(reg)}

	b.observeDB("get_employee", time.Now())

	assert.Equal(t, 1, testutil.CollectAndCount(b.metrics.DBQueryDuration))
}
