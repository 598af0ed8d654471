package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSFPatterns(t *testing.T) {
	t.Run("all markers", func(t *testing.T) {
		desc := "A scorched memory card. SF_RFID: [MEM-042] SF_ValueRating: [4] " +
			"SF_MemoryType: [Business] SF_Group: [Server Room Set (x2)]"

		p := ParseSFPatterns(desc)
		assert.Equal(t, "MEM-042", p.RFID)
		assert.Equal(t, 4, p.ValueRating)
		assert.Equal(t, "Business", p.MemoryType)
		assert.Equal(t, "Server Room Set", p.Group.Name)
		assert.Equal(t, 2, p.Group.Multiplier)
	})

	t.Run("group without multiplier", func(t *testing.T) {
		p := ParseSFPatterns("SF_Group: [Victim's Desk]")
		assert.Equal(t, "Victim's Desk", p.Group.Name)
		assert.Zero(t, p.Group.Multiplier)
	})

	t.Run("rating outside range ignored", func(t *testing.T) {
		p := ParseSFPatterns("SF_ValueRating: [7]")
		assert.Zero(t, p.ValueRating)
	})

	t.Run("unknown memory type ignored", func(t *testing.T) {
		p := ParseSFPatterns("SF_MemoryType: [Emotional]")
		assert.Empty(t, p.MemoryType)
	})

	t.Run("no markers", func(t *testing.T) {
		assert.True(t, ParseSFPatterns("just a prop description").IsZero())
		assert.True(t, ParseSFPatterns("").IsZero())
	})

	t.Run("markers embedded mid-sentence", func(t *testing.T) {
		p := ParseSFPatterns("Tagged SF_RFID: [abc123] for the reader, rated SF_ValueRating: [1].")
		assert.Equal(t, "abc123", p.RFID)
		assert.Equal(t, 1, p.ValueRating)
	})

	t.Run("parsing is stable", func(t *testing.T) {
		desc := "SF_RFID: [X] SF_Group: [Lab (x3)]"
		assert.Equal(t, ParseSFPatterns(desc), ParseSFPatterns(desc))
	})
}
