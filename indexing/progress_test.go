package indexing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "100/100", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Start()
	tracker.Increment(75)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100", "finish should set to total")
	assert.Contains(t, output, "\n", "finish should print newline")
	assert.Zero(t, tracker.Elapsed(), "finished tracker is stopped")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 0)

	tracker.Increment(5)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_Units(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 4, 1).WithUnits("Embedded", "pages")

	tracker.Start()
	tracker.Increment(4)

	assert.Contains(t, buf.String(), "Embedded: 4/4")
	assert.Contains(t, buf.String(), " pages/s")
	assert.NotContains(t, buf.String(), "docs/s")
}

func TestProgressTracker_DefaultUnits(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 5).WithUnits("", "")

	tracker.Start()
	tracker.Increment(5)

	assert.Contains(t, buf.String(), "Indexed: 5/10 (50.0%)")
	assert.Contains(t, buf.String(), " docs/s, ~")
	assert.Contains(t, buf.String(), " left")
}
