// Package transform converts upstream pages into domain entities and back.
// All property-name knowledge lives in this package's mapping tables; the
// rest of the pipeline works with canonical field keys only.
package transform

import (
	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
)

// propShape selects the decode/encode strategy for one mapped property.
type propShape int

const (
	shapeTitle propShape = iota
	shapeRichText
	shapeSelect
	shapeStatus
	shapeMultiSelect
	shapeRelation
	shapeSingleRelation
	shapeRollupStrings
	shapeFormulaBool
	shapeDate
	shapeURL
	shapeFiles
)

// propertyMapping binds one upstream property name to one canonical field.
type propertyMapping struct {
	property string
	field    string
	shape    propShape
}

// The mapping tables. One table per kind, property names exactly as they
// appear in the workspace schemas. Changing a column name upstream means
// changing one line here and nowhere else.

var characterMappings = []propertyMapping{
	{"Name", domain.FieldName, shapeTitle},
	{"Type", domain.FieldCharacterType, shapeSelect},
	{"Tier", domain.FieldTier, shapeSelect},
	{"Owned Elements", domain.FieldOwnedElementIDs, shapeRelation},
	{"Associated Elements", domain.FieldAssociatedElementIDs, shapeRollupStrings},
	{"Character Puzzles", domain.FieldCharacterPuzzleIDs, shapeRelation},
	{"Events", domain.FieldEventIDs, shapeRelation},
	{"Connections", domain.FieldConnections, shapeRollupStrings},
	{"Primary Action", domain.FieldPrimaryAction, shapeRichText},
	{"Character Logline", domain.FieldCharacterLogline, shapeRichText},
	{"Overview & Key Relationships", domain.FieldOverview, shapeRichText},
	{"Emotion towards CEO & others", domain.FieldEmotionTowardsCEO, shapeRichText},
}

var elementMappings = []propertyMapping{
	{"Name", domain.FieldName, shapeTitle},
	{"Description/Text", domain.FieldDescriptionText, shapeRichText},
	{"Basic Type", domain.FieldBasicType, shapeSelect},
	{"Status", domain.FieldStatus, shapeStatus},
	{"First Available", domain.FieldFirstAvailable, shapeSelect},
	{"Narrative Threads", domain.FieldNarrativeThreads, shapeMultiSelect},
	{"Production/Puzzle Notes", domain.FieldProductionNotes, shapeRichText},
	{"Content Link", domain.FieldContentLink, shapeURL},
	{"Files & media", domain.FieldFilesMedia, shapeFiles},
	{"Owner", domain.FieldOwnerID, shapeSingleRelation},
	{"Container", domain.FieldContainerID, shapeSingleRelation},
	{"Contents", domain.FieldContentIDs, shapeRelation},
	{"Timeline Event", domain.FieldTimelineEventID, shapeSingleRelation},
	{"Required For (Puzzle)", domain.FieldRequiredForPuzzleIDs, shapeRelation},
	{"Rewarded by (Puzzle)", domain.FieldRewardedByPuzzleIDs, shapeRelation},
	{"Container Puzzle", domain.FieldContainerPuzzleID, shapeSingleRelation},
	{"Associated Characters", domain.FieldAssociatedCharacterIDs, shapeRollupStrings},
	{"Puzzle Chain", domain.FieldPuzzleChain, shapeRollupStrings},
	{"Is Container", domain.FieldIsContainer, shapeFormulaBool},
}

var puzzleMappings = []propertyMapping{
	{"Puzzle", domain.FieldName, shapeTitle},
	{"Description/Solution", domain.FieldDescriptionSolution, shapeRichText},
	{"Asset Link", domain.FieldAssetLink, shapeURL},
	{"Puzzle Elements", domain.FieldPuzzleElementIDs, shapeRelation},
	{"Locked Item", domain.FieldLockedItemID, shapeSingleRelation},
	{"Rewards", domain.FieldRewardIDs, shapeRelation},
	{"Parent item", domain.FieldParentItemID, shapeSingleRelation},
	{"Sub-Puzzles", domain.FieldSubPuzzleIDs, shapeRelation},
	{"Owner", domain.FieldOwnerID, shapeRollupStrings},
	{"Story Reveals", domain.FieldStoryRevealIDs, shapeRollupStrings},
	{"Timing", domain.FieldTiming, shapeRollupStrings},
	{"Narrative Threads", domain.FieldNarrativeThreads, shapeRollupStrings},
}

var timelineMappings = []propertyMapping{
	{"Description", domain.FieldDescription, shapeTitle},
	{"Date", domain.FieldDate, shapeDate},
	{"Notes", domain.FieldNotes, shapeRichText},
	{"Characters Involved", domain.FieldCharactersInvolvedIDs, shapeRelation},
	{"Memory Evidence", domain.FieldMemoryEvidenceIDs, shapeRelation},
	{"mem type", domain.FieldMemTypes, shapeRollupStrings},
	{"Associated Puzzles", domain.FieldAssociatedPuzzleIDs, shapeRollupStrings},
}

func mappingsFor(kind domain.EntityKind) []propertyMapping {
	switch kind {
	case domain.KindCharacter:
		return characterMappings
	case domain.KindElement:
		return elementMappings
	case domain.KindPuzzle:
		return puzzleMappings
	case domain.KindTimeline:
		return timelineMappings
	}
	return nil
}

// mappingForField finds the mapping whose canonical field key matches.
func mappingForField(kind domain.EntityKind, field string) (propertyMapping, bool) {
	for _, m := range mappingsFor(kind) {
		if m.field == field {
			return m, true
		}
	}
	return propertyMapping{}, false
}

// RelationField identifies one writable relation property of a kind.
type RelationField struct {
	Key    string
	Single bool
}

// RelationFields lists a kind's writable relation properties. Rollups that
// merely echo ids are excluded: they never drive neighborhood fetches or
// inverse writes.
func RelationFields(kind domain.EntityKind) []RelationField {
	fields := make([]RelationField, 0, 8)
	for _, m := range mappingsFor(kind) {
		switch m.shape {
		case shapeRelation:
			fields = append(fields, RelationField{Key: m.field})
		case shapeSingleRelation:
			fields = append(fields, RelationField{Key: m.field, Single: true})
		}
	}
	return fields
}

// expectedType is the upstream type tag a mapping's shape decodes.
func (m propertyMapping) expectedType() string {
	switch m.shape {
	case shapeTitle:
		return notion.TypeTitle
	case shapeRichText:
		return notion.TypeRichText
	case shapeSelect:
		return notion.TypeSelect
	case shapeStatus:
		return notion.TypeStatus
	case shapeMultiSelect:
		return notion.TypeMultiSelect
	case shapeRelation, shapeSingleRelation:
		return notion.TypeRelation
	case shapeRollupStrings:
		return notion.TypeRollup
	case shapeFormulaBool:
		return notion.TypeFormula
	case shapeDate:
		return notion.TypeDate
	case shapeURL:
		return notion.TypeURL
	case shapeFiles:
		return notion.TypeFiles
	}
	return ""
}

// decodeValue reads one mapped property into the Go shape SetField expects.
// The second return is false when the property is present in the bag but
// carries a different type than the mapping expects.
func decodeValue(props notion.Properties, m propertyMapping) (interface{}, bool) {
	if p, present := props[m.property]; present && p.Type != "" && p.Type != m.expectedType() {
		return zeroValue(m.shape), false
	}

	switch m.shape {
	case shapeTitle:
		return notion.TitleOf(props, m.property), true
	case shapeRichText:
		return notion.TextOf(props, m.property), true
	case shapeSelect:
		return notion.SelectOf(props, m.property), true
	case shapeStatus:
		return notion.StatusOf(props, m.property), true
	case shapeMultiSelect:
		return notion.MultiSelectOf(props, m.property), true
	case shapeRelation:
		return notion.RelationIDsOf(props, m.property), true
	case shapeSingleRelation:
		ids := notion.RelationIDsOf(props, m.property)
		if len(ids) == 0 {
			return "", true
		}
		return ids[0], true
	case shapeRollupStrings:
		return normalizeRollup(notion.RollupStringsOf(props, m.property)), true
	case shapeFormulaBool:
		return notion.FormulaBoolOf(props, m.property), true
	case shapeDate:
		return notion.DateOf(props, m.property), true
	case shapeURL:
		return notion.URLOf(props, m.property), true
	case shapeFiles:
		return notion.FilesOf(props, m.property), true
	}
	return nil, false
}

func zeroValue(shape propShape) interface{} {
	switch shape {
	case shapeMultiSelect, shapeRelation, shapeRollupStrings:
		return []string(nil)
	case shapeFormulaBool:
		return false
	case shapeFiles:
		return []domain.FileRef(nil)
	default:
		return ""
	}
}

// normalizeRollup normalizes any id-shaped rollup values so derived relation
// lists compare cleanly against their mutable counterparts.
func normalizeRollup(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = domain.NormalizeID(v)
	}
	return out
}

// encodeValue builds the write payload for one mapped property. Shapes that
// only exist upstream (rollups, formulas) return false: they are never
// written back.
func encodeValue(m propertyMapping, value interface{}) (notion.Property, bool) {
	switch m.shape {
	case shapeTitle:
		s, ok := value.(string)
		return notion.TitleProperty(s), ok
	case shapeRichText:
		s, ok := value.(string)
		return notion.RichTextProperty(s), ok
	case shapeSelect:
		s, ok := value.(string)
		return notion.SelectProperty(s), ok
	case shapeStatus:
		s, ok := value.(string)
		return notion.StatusProperty(s), ok
	case shapeMultiSelect:
		ss, ok := toStringSlice(value)
		return notion.MultiSelectProperty(ss), ok
	case shapeRelation:
		ss, ok := toStringSlice(value)
		return notion.RelationProperty(ss), ok
	case shapeSingleRelation:
		s, ok := value.(string)
		return notion.SingleRelationProperty(s), ok
	case shapeDate:
		s, ok := value.(string)
		return notion.DateProperty(s), ok
	case shapeURL:
		s, ok := value.(string)
		return notion.URLProperty(s), ok
	case shapeFiles:
		files, ok := value.([]domain.FileRef)
		return notion.FilesProperty(files), ok
	}
	return notion.Property{}, false
}

func toStringSlice(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case nil:
		return nil, true
	}
	return nil, false
}
