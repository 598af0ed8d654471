package domain

// TimelineEvent is one backstory beat: something that happened, when, and
// which characters and memory evidence it touches.
type TimelineEvent struct {
	ID string `json:"id"`

	// Name is derived from the description at transform time; the upstream
	// table titles events by their description text.
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	Notes       string `json:"notes"`

	CharactersInvolvedIDs []string `json:"charactersInvolvedIds"`
	MemoryEvidenceIDs     []string `json:"memoryEvidenceIds"`

	// Rollups computed upstream.
	MemTypes            []string `json:"memTypes"`
	AssociatedPuzzleIDs []string `json:"associatedPuzzleIds"`

	LastEdited string `json:"lastEdited,omitempty"`
	Version    int    `json:"version,omitempty"`
}

func (t *TimelineEvent) EntityID() string         { return t.ID }
func (t *TimelineEvent) Kind() EntityKind         { return KindTimeline }
func (t *TimelineEvent) EntityName() string       { return t.Name }
func (t *TimelineEvent) EntityLastEdited() string { return t.LastEdited }

func (t *TimelineEvent) Field(key string) (interface{}, bool) {
	switch key {
	case FieldName:
		return t.Name, true
	case FieldDescription:
		return t.Description, true
	case FieldDate:
		return t.Date, true
	case FieldNotes:
		return t.Notes, true
	case FieldCharactersInvolvedIDs:
		return t.CharactersInvolvedIDs, true
	case FieldMemoryEvidenceIDs:
		return t.MemoryEvidenceIDs, true
	case FieldMemTypes:
		return t.MemTypes, true
	case FieldAssociatedPuzzleIDs:
		return t.AssociatedPuzzleIDs, true
	case FieldLastEdited:
		return t.LastEdited, true
	}
	return nil, false
}

func (t *TimelineEvent) SetField(key string, value interface{}) bool {
	switch key {
	case FieldName:
		return setString(&t.Name, value)
	case FieldDescription:
		return setString(&t.Description, value)
	case FieldDate:
		return setString(&t.Date, value)
	case FieldNotes:
		return setString(&t.Notes, value)
	case FieldCharactersInvolvedIDs:
		return setStrings(&t.CharactersInvolvedIDs, value)
	case FieldMemoryEvidenceIDs:
		return setStrings(&t.MemoryEvidenceIDs, value)
	case FieldMemTypes:
		return setStrings(&t.MemTypes, value)
	case FieldAssociatedPuzzleIDs:
		return setStrings(&t.AssociatedPuzzleIDs, value)
	case FieldLastEdited:
		return setString(&t.LastEdited, value)
	}
	return false
}

func (t *TimelineEvent) Clone() Entity {
	out := *t
	out.CharactersInvolvedIDs = cloneStrings(t.CharactersInvolvedIDs)
	out.MemoryEvidenceIDs = cloneStrings(t.MemoryEvidenceIDs)
	out.MemTypes = cloneStrings(t.MemTypes)
	out.AssociatedPuzzleIDs = cloneStrings(t.AssociatedPuzzleIDs)
	return &out
}
