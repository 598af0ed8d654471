package transform_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/errors"
)

func body(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestDecodePartial_CanonicalAndAliasKeys(t *testing.T) {
	payload := body(t, `{
		"name": "Alice",
		"logline": "A librarian with a grudge.",
		"ownedElementIds": ["AAAAAAAABBBBCCCCDDDDEEEEEEEEEEEE"]
	}`)

	entity, fields, readOnly, err := transform.DecodePartial(domain.KindCharacter, payload)
	require.NoError(t, err)

	character := entity.(*domain.Character)
	assert.Equal(t, "Alice", character.Name)
	assert.Equal(t, "A librarian with a grudge.", character.CharacterLogline, "alias resolves to the canonical field")
	assert.Equal(t, []string{"aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"}, character.OwnedElementIDs)

	assert.ElementsMatch(t, []string{
		domain.FieldName,
		domain.FieldCharacterLogline,
		domain.FieldOwnedElementIDs,
	}, fields)
	assert.Empty(t, readOnly)
}

func TestDecodePartial_ReadOnlyFieldsDroppedAndReported(t *testing.T) {
	payload := body(t, `{
		"name": "Alice",
		"connections": ["11111111-1111-1111-1111-111111111111"]
	}`)

	entity, fields, readOnly, err := transform.DecodePartial(domain.KindCharacter, payload)
	require.NoError(t, err)

	assert.Empty(t, entity.(*domain.Character).Connections)
	assert.Equal(t, []string{domain.FieldName}, fields)
	assert.Equal(t, []string{domain.FieldConnections}, readOnly)
}

func TestDecodePartial_UnknownFieldRejected(t *testing.T) {
	payload := body(t, `{"name": "Alice", "favouriteColor": "blue"}`)

	_, _, _, err := transform.DecodePartial(domain.KindCharacter, payload)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDecodePartial_ReservedKeysIgnored(t *testing.T) {
	payload := body(t, `{
		"id": "11111111-1111-1111-1111-111111111111",
		"_parentRelation": {"parentKind": "puzzle"},
		"version": 7,
		"name": "Alice"
	}`)

	_, fields, _, err := transform.DecodePartial(domain.KindCharacter, payload)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.FieldName}, fields)
}

func TestDecodePartial_WrongValueShapeRejected(t *testing.T) {
	payload := body(t, `{"ownedElementIds": "not-a-list"}`)

	_, _, _, err := transform.DecodePartial(domain.KindCharacter, payload)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDecodePartial_SingleRelationNormalized(t *testing.T) {
	payload := body(t, `{"ownerId": "AAAAAAAABBBBCCCCDDDDEEEEEEEEEEEE"}`)

	entity, _, _, err := transform.DecodePartial(domain.KindElement, payload)
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", entity.(*domain.Element).OwnerID)
}

func TestDecodePartial_FilesMedia(t *testing.T) {
	payload := body(t, `{"filesMedia": [{"name": "map.pdf", "url": "https://cdn.example.com/map.pdf"}]}`)

	entity, fields, _, err := transform.DecodePartial(domain.KindElement, payload)
	require.NoError(t, err)
	require.Equal(t, []string{domain.FieldFilesMedia}, fields)
	assert.Equal(t, []domain.FileRef{{Name: "map.pdf", URL: "https://cdn.example.com/map.pdf"}},
		entity.(*domain.Element).FilesMedia)
}
