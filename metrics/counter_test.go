package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterAddAccumulates(t *testing.T) {
	c := NewCounter("test_counter")
	c.Add(1)
	c.Add(2)
	assert.EqualValues(t, 3, c.Value())
	assert.Equal(t, "test_counter", c.Name())
}
