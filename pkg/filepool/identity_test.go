package filepool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleIdentityStringMarksReversed(t *testing.T) {
	id := SampleIdentity{Filename: "kick.wav"}
	assert.Equal(t, "kick.wav", id.String())

	id.Reversed = true
	assert.Equal(t, "kick.wav (reversed)", id.String())
}

func TestSampleIdentityIsMapKeyComparable(t *testing.T) {
	m := map[SampleIdentity]int{}
	a := SampleIdentity{Filename: "kick.wav"}
	b := SampleIdentity{Filename: "kick.wav", Reversed: true}
	m[a] = 1
	m[b] = 2

	assert.Equal(t, 1, m[a])
	assert.Equal(t, 2, m[b])
}
