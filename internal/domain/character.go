package domain

// Character types and tiers as they appear upstream.
const (
	CharacterTypePlayer = "Player"
	CharacterTypeNPC    = "NPC"

	TierCore      = "Core"
	TierSecondary = "Secondary"
	TierTertiary  = "Tertiary"
)

// Character is a person in the story: a player-facing role or an NPC.
type Character struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Tier string `json:"tier"`

	OwnedElementIDs      []string `json:"ownedElementIds"`
	AssociatedElementIDs []string `json:"associatedElementIds"`
	CharacterPuzzleIDs   []string `json:"characterPuzzleIds"`
	EventIDs             []string `json:"eventIds"`

	// Connections is an upstream rollup of related character ids.
	Connections []string `json:"connections"`

	PrimaryAction     string `json:"primaryAction"`
	CharacterLogline  string `json:"characterLogline"`
	Overview          string `json:"overview"`
	EmotionTowardsCEO string `json:"emotionTowardsCEO"`

	LastEdited string `json:"lastEdited,omitempty"`
	Version    int    `json:"version,omitempty"`
}

func (c *Character) EntityID() string         { return c.ID }
func (c *Character) Kind() EntityKind         { return KindCharacter }
func (c *Character) EntityName() string       { return c.Name }
func (c *Character) EntityLastEdited() string { return c.LastEdited }

func (c *Character) Field(key string) (interface{}, bool) {
	switch key {
	case FieldName:
		return c.Name, true
	case FieldCharacterType:
		return c.Type, true
	case FieldTier:
		return c.Tier, true
	case FieldOwnedElementIDs:
		return c.OwnedElementIDs, true
	case FieldAssociatedElementIDs:
		return c.AssociatedElementIDs, true
	case FieldCharacterPuzzleIDs:
		return c.CharacterPuzzleIDs, true
	case FieldEventIDs:
		return c.EventIDs, true
	case FieldConnections:
		return c.Connections, true
	case FieldPrimaryAction:
		return c.PrimaryAction, true
	case FieldCharacterLogline:
		return c.CharacterLogline, true
	case FieldOverview:
		return c.Overview, true
	case FieldEmotionTowardsCEO:
		return c.EmotionTowardsCEO, true
	case FieldLastEdited:
		return c.LastEdited, true
	}
	return nil, false
}

func (c *Character) SetField(key string, value interface{}) bool {
	switch key {
	case FieldName:
		return setString(&c.Name, value)
	case FieldCharacterType:
		return setString(&c.Type, value)
	case FieldTier:
		return setString(&c.Tier, value)
	case FieldOwnedElementIDs:
		return setStrings(&c.OwnedElementIDs, value)
	case FieldAssociatedElementIDs:
		return setStrings(&c.AssociatedElementIDs, value)
	case FieldCharacterPuzzleIDs:
		return setStrings(&c.CharacterPuzzleIDs, value)
	case FieldEventIDs:
		return setStrings(&c.EventIDs, value)
	case FieldConnections:
		return setStrings(&c.Connections, value)
	case FieldPrimaryAction:
		return setString(&c.PrimaryAction, value)
	case FieldCharacterLogline:
		return setString(&c.CharacterLogline, value)
	case FieldOverview:
		return setString(&c.Overview, value)
	case FieldEmotionTowardsCEO:
		return setString(&c.EmotionTowardsCEO, value)
	case FieldLastEdited:
		return setString(&c.LastEdited, value)
	}
	return false
}

func (c *Character) Clone() Entity {
	out := *c
	out.OwnedElementIDs = cloneStrings(c.OwnedElementIDs)
	out.AssociatedElementIDs = cloneStrings(c.AssociatedElementIDs)
	out.CharacterPuzzleIDs = cloneStrings(c.CharacterPuzzleIDs)
	out.EventIDs = cloneStrings(c.EventIDs)
	out.Connections = cloneStrings(c.Connections)
	return &out
}
