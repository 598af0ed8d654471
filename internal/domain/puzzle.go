package domain

// Puzzle is an in-game challenge gating one or more reward elements.
type Puzzle struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	DescriptionSolution string `json:"descriptionSolution"`
	AssetLink           string `json:"assetLink,omitempty"`

	PuzzleElementIDs []string `json:"puzzleElementIds"`
	LockedItemID     string   `json:"lockedItemId,omitempty"`
	RewardIDs        []string `json:"rewardIds"`
	ParentItemID     string   `json:"parentItemId,omitempty"`
	SubPuzzleIDs     []string `json:"subPuzzleIds"`

	// Rollups computed upstream.
	OwnerID          string   `json:"ownerId,omitempty"`
	StoryRevealIDs   []string `json:"storyRevealIds"`
	Timing           []string `json:"timing"`
	NarrativeThreads []string `json:"narrativeThreads"`

	LastEdited string `json:"lastEdited,omitempty"`
	Version    int    `json:"version,omitempty"`
}

func (p *Puzzle) EntityID() string         { return p.ID }
func (p *Puzzle) Kind() EntityKind         { return KindPuzzle }
func (p *Puzzle) EntityName() string       { return p.Name }
func (p *Puzzle) EntityLastEdited() string { return p.LastEdited }

func (p *Puzzle) Field(key string) (interface{}, bool) {
	switch key {
	case FieldName:
		return p.Name, true
	case FieldDescriptionSolution:
		return p.DescriptionSolution, true
	case FieldAssetLink:
		return p.AssetLink, true
	case FieldPuzzleElementIDs:
		return p.PuzzleElementIDs, true
	case FieldLockedItemID:
		return p.LockedItemID, true
	case FieldRewardIDs:
		return p.RewardIDs, true
	case FieldParentItemID:
		return p.ParentItemID, true
	case FieldSubPuzzleIDs:
		return p.SubPuzzleIDs, true
	case FieldOwnerID:
		return p.OwnerID, true
	case FieldStoryRevealIDs:
		return p.StoryRevealIDs, true
	case FieldTiming:
		return p.Timing, true
	case FieldNarrativeThreads:
		return p.NarrativeThreads, true
	case FieldLastEdited:
		return p.LastEdited, true
	}
	return nil, false
}

func (p *Puzzle) SetField(key string, value interface{}) bool {
	switch key {
	case FieldName:
		return setString(&p.Name, value)
	case FieldDescriptionSolution:
		return setString(&p.DescriptionSolution, value)
	case FieldAssetLink:
		return setString(&p.AssetLink, value)
	case FieldPuzzleElementIDs:
		return setStrings(&p.PuzzleElementIDs, value)
	case FieldLockedItemID:
		return setString(&p.LockedItemID, value)
	case FieldRewardIDs:
		return setStrings(&p.RewardIDs, value)
	case FieldParentItemID:
		return setString(&p.ParentItemID, value)
	case FieldSubPuzzleIDs:
		return setStrings(&p.SubPuzzleIDs, value)
	case FieldOwnerID:
		return setString(&p.OwnerID, value)
	case FieldStoryRevealIDs:
		return setStrings(&p.StoryRevealIDs, value)
	case FieldTiming:
		return setStrings(&p.Timing, value)
	case FieldNarrativeThreads:
		return setStrings(&p.NarrativeThreads, value)
	case FieldLastEdited:
		return setString(&p.LastEdited, value)
	}
	return false
}

func (p *Puzzle) Clone() Entity {
	out := *p
	out.PuzzleElementIDs = cloneStrings(p.PuzzleElementIDs)
	out.RewardIDs = cloneStrings(p.RewardIDs)
	out.SubPuzzleIDs = cloneStrings(p.SubPuzzleIDs)
	out.StoryRevealIDs = cloneStrings(p.StoryRevealIDs)
	out.Timing = cloneStrings(p.Timing)
	out.NarrativeThreads = cloneStrings(p.NarrativeThreads)
	return &out
}
