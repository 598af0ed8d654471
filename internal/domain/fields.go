package domain

// Canonical field keys. These are the JSON names clients use in request
// bodies and the keys the classification tables are indexed by.
const (
	FieldName              = "name"
	FieldLastEdited        = "lastEdited"
	FieldCharacterType     = "type"
	FieldTier              = "tier"
	FieldPrimaryAction     = "primaryAction"
	FieldCharacterLogline  = "characterLogline"
	FieldOverview          = "overview"
	FieldEmotionTowardsCEO = "emotionTowardsCEO"

	FieldOwnedElementIDs      = "ownedElementIds"
	FieldAssociatedElementIDs = "associatedElementIds"
	FieldCharacterPuzzleIDs   = "characterPuzzleIds"
	FieldEventIDs             = "eventIds"
	FieldConnections          = "connections"

	FieldDescriptionText  = "descriptionText"
	FieldSFPatterns       = "sfPatterns"
	FieldBasicType        = "basicType"
	FieldStatus           = "status"
	FieldFirstAvailable   = "firstAvailable"
	FieldNarrativeThreads = "narrativeThreads"
	FieldProductionNotes  = "productionNotes"
	FieldContentLink      = "contentLink"
	FieldFilesMedia       = "filesMedia"

	FieldOwnerID              = "ownerId"
	FieldContainerID          = "containerId"
	FieldContentIDs           = "contentIds"
	FieldTimelineEventID      = "timelineEventId"
	FieldRequiredForPuzzleIDs = "requiredForPuzzleIds"
	FieldRewardedByPuzzleIDs  = "rewardedByPuzzleIds"
	FieldContainerPuzzleID    = "containerPuzzleId"

	FieldAssociatedCharacterIDs = "associatedCharacterIds"
	FieldPuzzleChain            = "puzzleChain"
	FieldIsContainer            = "isContainer"

	FieldDescriptionSolution = "descriptionSolution"
	FieldAssetLink           = "assetLink"
	FieldPuzzleElementIDs    = "puzzleElementIds"
	FieldLockedItemID        = "lockedItemId"
	FieldRewardIDs           = "rewardIds"
	FieldParentItemID        = "parentItemId"
	FieldSubPuzzleIDs        = "subPuzzleIds"
	FieldStoryRevealIDs      = "storyRevealIds"
	FieldTiming              = "timing"

	FieldDescription           = "description"
	FieldDate                  = "date"
	FieldNotes                 = "notes"
	FieldCharactersInvolvedIDs = "charactersInvolvedIds"
	FieldMemoryEvidenceIDs     = "memoryEvidenceIds"
	FieldMemTypes              = "memTypes"
	FieldAssociatedPuzzleIDs   = "associatedPuzzleIds"
)

// FieldClass separates properties the service may compare and write from
// rollups the upstream computes. Comparators must never look at derived
// fields; doing so produced spurious graph updates in earlier iterations.
type FieldClass int

const (
	ClassMutable FieldClass = iota
	ClassDerived
)

// ValueShape is the Go shape a field value takes through Field/SetField.
type ValueShape int

const (
	ShapeString ValueShape = iota
	ShapeStringList
	ShapeBool
	ShapeFiles
	ShapeSF
)

// FieldSpec classifies one field of one entity kind.
//
// ReadOnly marks fields that are never encoded back upstream. Every derived
// field is read-only; associatedElementIds is the one mutable field that is
// still read-only, because its upstream source is a rollup even though the
// value is meaningful for change detection.
type FieldSpec struct {
	Key      string
	Shape    ValueShape
	Class    FieldClass
	ReadOnly bool
	Aliases  []string
}

var characterFields = []FieldSpec{
	{Key: FieldName, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldCharacterType, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldTier, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldOwnedElementIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldAssociatedElementIDs, Shape: ShapeStringList, Class: ClassMutable, ReadOnly: true},
	{Key: FieldCharacterPuzzleIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldEventIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldConnections, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldPrimaryAction, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldCharacterLogline, Shape: ShapeString, Class: ClassMutable, Aliases: []string{"logline"}},
	{Key: FieldOverview, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldEmotionTowardsCEO, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldLastEdited, Shape: ShapeString, Class: ClassDerived, ReadOnly: true},
}

var elementFields = []FieldSpec{
	{Key: FieldName, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldDescriptionText, Shape: ShapeString, Class: ClassMutable, Aliases: []string{"description"}},
	{Key: FieldSFPatterns, Shape: ShapeSF, Class: ClassDerived, ReadOnly: true},
	{Key: FieldBasicType, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldStatus, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldFirstAvailable, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldNarrativeThreads, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldProductionNotes, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldContentLink, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldFilesMedia, Shape: ShapeFiles, Class: ClassMutable},
	{Key: FieldOwnerID, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldContainerID, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldContentIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldTimelineEventID, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldRequiredForPuzzleIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldRewardedByPuzzleIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldContainerPuzzleID, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldAssociatedCharacterIDs, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldPuzzleChain, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldIsContainer, Shape: ShapeBool, Class: ClassDerived, ReadOnly: true},
	{Key: FieldLastEdited, Shape: ShapeString, Class: ClassDerived, ReadOnly: true},
}

var puzzleFields = []FieldSpec{
	{Key: FieldName, Shape: ShapeString, Class: ClassMutable, Aliases: []string{"puzzle"}},
	{Key: FieldDescriptionSolution, Shape: ShapeString, Class: ClassMutable, Aliases: []string{"description", "solution"}},
	{Key: FieldAssetLink, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldPuzzleElementIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldLockedItemID, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldRewardIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldParentItemID, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldSubPuzzleIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldOwnerID, Shape: ShapeString, Class: ClassDerived, ReadOnly: true},
	{Key: FieldStoryRevealIDs, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldTiming, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldNarrativeThreads, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldLastEdited, Shape: ShapeString, Class: ClassDerived, ReadOnly: true},
}

var timelineFields = []FieldSpec{
	{Key: FieldName, Shape: ShapeString, Class: ClassDerived, ReadOnly: true},
	{Key: FieldDescription, Shape: ShapeString, Class: ClassMutable, Aliases: []string{"descriptionText"}},
	{Key: FieldDate, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldNotes, Shape: ShapeString, Class: ClassMutable},
	{Key: FieldCharactersInvolvedIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldMemoryEvidenceIDs, Shape: ShapeStringList, Class: ClassMutable},
	{Key: FieldMemTypes, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldAssociatedPuzzleIDs, Shape: ShapeStringList, Class: ClassDerived, ReadOnly: true},
	{Key: FieldLastEdited, Shape: ShapeString, Class: ClassDerived, ReadOnly: true},
}

// FieldSpecs returns the classification table for a kind. The returned slice
// is shared; callers must not mutate it.
func FieldSpecs(kind EntityKind) []FieldSpec {
	switch kind {
	case KindCharacter:
		return characterFields
	case KindElement:
		return elementFields
	case KindPuzzle:
		return puzzleFields
	case KindTimeline:
		return timelineFields
	}
	return nil
}

// ResolveFieldKey maps a request-body key, canonical or alias, to the
// canonical field key for the kind.
func ResolveFieldKey(kind EntityKind, key string) (string, bool) {
	for _, spec := range FieldSpecs(kind) {
		if spec.Key == key {
			return spec.Key, true
		}
		for _, alias := range spec.Aliases {
			if alias == key {
				return spec.Key, true
			}
		}
	}
	return "", false
}

// MutableFieldKeys lists the keys a comparator may inspect for a kind.
func MutableFieldKeys(kind EntityKind) []string {
	specs := FieldSpecs(kind)
	keys := make([]string, 0, len(specs))
	for _, spec := range specs {
		if spec.Class == ClassMutable {
			keys = append(keys, spec.Key)
		}
	}
	return keys
}

// NewEntity returns a zero value of the given kind with only the id set.
func NewEntity(kind EntityKind, id string) Entity {
	switch kind {
	case KindCharacter:
		return &Character{ID: id}
	case KindElement:
		return &Element{ID: id}
	case KindPuzzle:
		return &Puzzle{ID: id}
	case KindTimeline:
		return &TimelineEvent{ID: id}
	}
	return nil
}

func setString(dst *string, value interface{}) bool {
	s, ok := value.(string)
	if ok {
		*dst = s
	}
	return ok
}

func setStrings(dst *[]string, value interface{}) bool {
	switch v := value.(type) {
	case []string:
		*dst = v
		return true
	case nil:
		*dst = nil
		return true
	}
	return false
}

// IsEmptyValue reports whether a field value is the empty value for its
// shape: empty string, empty list, false, or an SFPatterns with nothing set.
// The merger uses this to tell "absent from a partial response" apart from
// real content.
func IsEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []FileRef:
		return len(t) == 0
	case bool:
		return !t
	case SFPatterns:
		return t.IsZero()
	}
	return false
}

// ValuesEqual compares two field values of the same shape. String lists are
// compared as multisets per the array-equality rule; everything else is
// value equality.
func ValuesEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []string:
		bv, ok := b.([]string)
		return ok && EqualStringMultisets(av, bv)
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []FileRef:
		bv, ok := b.([]FileRef)
		if !ok || len(av) != len(bv) {
			return false
		}
		counts := make(map[FileRef]int, len(av))
		for _, f := range av {
			counts[f]++
		}
		for _, f := range bv {
			counts[f]--
			if counts[f] < 0 {
				return false
			}
		}
		return true
	case SFPatterns:
		bv, ok := b.(SFPatterns)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}
