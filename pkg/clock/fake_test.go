package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockRunsDueTimersInOrder(t *testing.T) {
	c := NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	var order []string
	c.AfterFunc(200*time.Millisecond, func() { order = append(order, "b") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	stopped := c.AfterFunc(150*time.Millisecond, func() { order = append(order, "x") })
	assert.True(t, stopped.Stop())

	c.Advance(150 * time.Millisecond)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, 1, c.Pending())

	c.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 0, c.Pending())
	assert.False(t, stopped.Stop())
}
