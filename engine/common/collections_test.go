package common

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestStringSet(t *testing.T) {
	ss := StringSet{}
	ss.Add("1")
	ss.Add("2")
	assert.T(t, ss.Contains("1"), "should contain")
	assert.T(t, ss.Contains("2"), "should contain")
	ss.Remove("2")
	assert.T(t, !ss.Contains("2"), "should not contain")
}

func TestNewStringSetFromList(t *testing.T) {
	ss := NewStringSetFromList(" 127.0.0.1:7000, 127.0.0.1:7001,,")
	assert.Tf(t, len(ss) == 2, "wrong length: %v", ss)
	assert.Equal(t, []string{"127.0.0.1:7000", "127.0.0.1:7001"}, ss.ToList())
}
