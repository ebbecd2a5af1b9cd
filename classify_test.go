package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	maxProcessingTime := 10 * time.Second

	t.Run("completed", func(t *testing.T) {
		p := Process[string, string]{StartedAt: base, CompletedAt: base.Add(time.Second)}
		assert.Equal(t, Completed, Classify(p, base.Add(time.Hour), maxProcessingTime))
	})

	t.Run("started within budget", func(t *testing.T) {
		p := Process[string, string]{StartedAt: base}
		assert.Equal(t, Started, Classify(p, base.Add(5*time.Second), maxProcessingTime))
	})

	t.Run("exactly at budget is not yet timed out", func(t *testing.T) {
		p := Process[string, string]{StartedAt: base}
		assert.Equal(t, Started, Classify(p, base.Add(maxProcessingTime), maxProcessingTime))
	})

	t.Run("timeout", func(t *testing.T) {
		p := Process[string, string]{StartedAt: base}
		assert.Equal(t, Timeout, Classify(p, base.Add(maxProcessingTime+time.Millisecond), maxProcessingTime))
	})

	t.Run("completed takes precedence over timeout", func(t *testing.T) {
		p := Process[string, string]{StartedAt: base, CompletedAt: base.Add(time.Second)}
		assert.Equal(t, Completed, Classify(p, base.Add(time.Hour*24), maxProcessingTime))
	})
}
