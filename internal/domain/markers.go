package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// SFPatterns is the parsed view of the embedded metadata markers a memory
// element carries in its description. The description text itself is the
// source of truth and is never rewritten; this struct exists so callers can
// read marker values without re-parsing.
type SFPatterns struct {
	RFID        string  `json:"rfid,omitempty"`
	ValueRating int     `json:"valueRating,omitempty"`
	MemoryType  string  `json:"memoryType,omitempty"`
	Group       SFGroup `json:"group"`
}

// SFGroup is the `SF_Group: [name (xN)]` marker: a set name and an optional
// completion multiplier.
type SFGroup struct {
	Name       string `json:"name,omitempty"`
	Multiplier int    `json:"multiplier,omitempty"`
}

// IsZero reports whether no marker was present.
func (p SFPatterns) IsZero() bool {
	return p == SFPatterns{}
}

var (
	sfRFIDRe       = regexp.MustCompile(`SF_RFID:\s*\[([^\]]*)\]`)
	sfRatingRe     = regexp.MustCompile(`SF_ValueRating:\s*\[([1-5])\]`)
	sfMemoryTypeRe = regexp.MustCompile(`SF_MemoryType:\s*\[(Personal|Business|Technical)\]`)
	sfGroupRe      = regexp.MustCompile(`SF_Group:\s*\[([^\]]*)\]`)
	sfMultiplierRe = regexp.MustCompile(`^(.*?)\s*\(x(\d+)\)$`)
)

// ParseSFPatterns extracts the embedded metadata markers from an element
// description. Unknown or malformed markers are ignored; the text is left
// untouched either way.
func ParseSFPatterns(description string) SFPatterns {
	var p SFPatterns
	if description == "" {
		return p
	}

	if m := sfRFIDRe.FindStringSubmatch(description); m != nil {
		p.RFID = strings.TrimSpace(m[1])
	}
	if m := sfRatingRe.FindStringSubmatch(description); m != nil {
		p.ValueRating, _ = strconv.Atoi(m[1])
	}
	if m := sfMemoryTypeRe.FindStringSubmatch(description); m != nil {
		p.MemoryType = m[1]
	}
	if m := sfGroupRe.FindStringSubmatch(description); m != nil {
		raw := strings.TrimSpace(m[1])
		if inner := sfMultiplierRe.FindStringSubmatch(raw); inner != nil {
			p.Group.Name = strings.TrimSpace(inner[1])
			p.Group.Multiplier, _ = strconv.Atoi(inner[2])
		} else {
			p.Group.Name = raw
		}
	}
	return p
}
