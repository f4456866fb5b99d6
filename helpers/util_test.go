package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Python Developer (Django)", CollapseSpaces("  Python\n\t Developer   (Django) "))
	assert.Equal(t, "", CollapseSpaces(" \n "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Київ", Truncate("Київ, Львів", 4))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestReverse(t *testing.T) {
	assert.Equal(t, []int{3, 2, 1}, Reverse([]int{1, 2, 3}))
	assert.Empty(t, Reverse([]string{}))
}
