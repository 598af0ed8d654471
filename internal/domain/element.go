package domain

// First-available acts for elements.
const (
	ActZero = "Act 0"
	ActOne  = "Act 1"
	ActTwo  = "Act 2"
)

// Element is a physical or memory prop: set dressing, documents, RFID memory
// tokens and the containers that hold them.
type Element struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Description keeps the upstream text verbatim, embedded metadata
	// markers included. SFPatterns is the parsed view of those markers.
	Description string     `json:"descriptionText"`
	SFPatterns  SFPatterns `json:"sfPatterns"`

	BasicType      string `json:"basicType"`
	Status         string `json:"status"`
	FirstAvailable string `json:"firstAvailable"`

	NarrativeThreads []string  `json:"narrativeThreads"`
	ProductionNotes  string    `json:"productionNotes"`
	ContentLink      string    `json:"contentLink,omitempty"`
	FilesMedia       []FileRef `json:"filesMedia"`

	OwnerID              string   `json:"ownerId,omitempty"`
	ContainerID          string   `json:"containerId,omitempty"`
	ContentIDs           []string `json:"contentIds"`
	TimelineEventID      string   `json:"timelineEventId,omitempty"`
	RequiredForPuzzleIDs []string `json:"requiredForPuzzleIds"`
	RewardedByPuzzleIDs  []string `json:"rewardedByPuzzleIds"`
	ContainerPuzzleID    string   `json:"containerPuzzleId,omitempty"`

	// Rollups computed upstream.
	AssociatedCharacterIDs []string `json:"associatedCharacterIds"`
	PuzzleChain            []string `json:"puzzleChain"`
	IsContainer            bool     `json:"isContainer"`

	LastEdited string `json:"lastEdited,omitempty"`
	Version    int    `json:"version,omitempty"`
}

func (e *Element) EntityID() string         { return e.ID }
func (e *Element) Kind() EntityKind         { return KindElement }
func (e *Element) EntityName() string       { return e.Name }
func (e *Element) EntityLastEdited() string { return e.LastEdited }

func (e *Element) Field(key string) (interface{}, bool) {
	switch key {
	case FieldName:
		return e.Name, true
	case FieldDescriptionText:
		return e.Description, true
	case FieldSFPatterns:
		return e.SFPatterns, true
	case FieldBasicType:
		return e.BasicType, true
	case FieldStatus:
		return e.Status, true
	case FieldFirstAvailable:
		return e.FirstAvailable, true
	case FieldNarrativeThreads:
		return e.NarrativeThreads, true
	case FieldProductionNotes:
		return e.ProductionNotes, true
	case FieldContentLink:
		return e.ContentLink, true
	case FieldFilesMedia:
		return e.FilesMedia, true
	case FieldOwnerID:
		return e.OwnerID, true
	case FieldContainerID:
		return e.ContainerID, true
	case FieldContentIDs:
		return e.ContentIDs, true
	case FieldTimelineEventID:
		return e.TimelineEventID, true
	case FieldRequiredForPuzzleIDs:
		return e.RequiredForPuzzleIDs, true
	case FieldRewardedByPuzzleIDs:
		return e.RewardedByPuzzleIDs, true
	case FieldContainerPuzzleID:
		return e.ContainerPuzzleID, true
	case FieldAssociatedCharacterIDs:
		return e.AssociatedCharacterIDs, true
	case FieldPuzzleChain:
		return e.PuzzleChain, true
	case FieldIsContainer:
		return e.IsContainer, true
	case FieldLastEdited:
		return e.LastEdited, true
	}
	return nil, false
}

func (e *Element) SetField(key string, value interface{}) bool {
	switch key {
	case FieldName:
		return setString(&e.Name, value)
	case FieldDescriptionText:
		return setString(&e.Description, value)
	case FieldSFPatterns:
		if v, ok := value.(SFPatterns); ok {
			e.SFPatterns = v
			return true
		}
		return false
	case FieldBasicType:
		return setString(&e.BasicType, value)
	case FieldStatus:
		return setString(&e.Status, value)
	case FieldFirstAvailable:
		return setString(&e.FirstAvailable, value)
	case FieldNarrativeThreads:
		return setStrings(&e.NarrativeThreads, value)
	case FieldProductionNotes:
		return setString(&e.ProductionNotes, value)
	case FieldContentLink:
		return setString(&e.ContentLink, value)
	case FieldFilesMedia:
		if v, ok := value.([]FileRef); ok {
			e.FilesMedia = v
			return true
		}
		return false
	case FieldOwnerID:
		return setString(&e.OwnerID, value)
	case FieldContainerID:
		return setString(&e.ContainerID, value)
	case FieldContentIDs:
		return setStrings(&e.ContentIDs, value)
	case FieldTimelineEventID:
		return setString(&e.TimelineEventID, value)
	case FieldRequiredForPuzzleIDs:
		return setStrings(&e.RequiredForPuzzleIDs, value)
	case FieldRewardedByPuzzleIDs:
		return setStrings(&e.RewardedByPuzzleIDs, value)
	case FieldContainerPuzzleID:
		return setString(&e.ContainerPuzzleID, value)
	case FieldAssociatedCharacterIDs:
		return setStrings(&e.AssociatedCharacterIDs, value)
	case FieldPuzzleChain:
		return setStrings(&e.PuzzleChain, value)
	case FieldIsContainer:
		if v, ok := value.(bool); ok {
			e.IsContainer = v
			return true
		}
		return false
	case FieldLastEdited:
		return setString(&e.LastEdited, value)
	}
	return false
}

func (e *Element) Clone() Entity {
	out := *e
	out.NarrativeThreads = cloneStrings(e.NarrativeThreads)
	out.FilesMedia = cloneFileRefs(e.FilesMedia)
	out.ContentIDs = cloneStrings(e.ContentIDs)
	out.RequiredForPuzzleIDs = cloneStrings(e.RequiredForPuzzleIDs)
	out.RewardedByPuzzleIDs = cloneStrings(e.RewardedByPuzzleIDs)
	out.AssociatedCharacterIDs = cloneStrings(e.AssociatedCharacterIDs)
	out.PuzzleChain = cloneStrings(e.PuzzleChain)
	return &out
}
