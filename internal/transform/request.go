package transform

import (
	"encoding/json"
	"fmt"
	"sort"

	"storygraph-backend/internal/domain"
	"storygraph-backend/pkg/errors"
)

// reservedBodyKeys are accepted in request bodies but carry no entity
// field: ids come from the path, hints are handled by the router.
var reservedBodyKeys = map[string]struct{}{
	"id":              {},
	"_parentRelation": {},
	"version":         {},
}

// DecodePartial turns a client JSON object into a partial entity plus the
// list of canonical field keys the client actually named. Aliases resolve
// to canonical keys; unknown keys are a validation error; read-only fields
// are dropped and reported, not written.
func DecodePartial(kind domain.EntityKind, body map[string]json.RawMessage) (domain.Entity, []string, []string, error) {
	entity := domain.NewEntity(kind, "")
	if entity == nil {
		return nil, nil, nil, errors.NewInternalError("unrecognized entity kind").
			WithDetail("kind", string(kind))
	}

	var fields []string
	var readOnly []string
	var unknown []string

	// Deterministic iteration keeps error messages and warnings stable.
	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, reserved := reservedBodyKeys[key]; reserved {
			continue
		}
		canonical, ok := domain.ResolveFieldKey(kind, key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		spec, _ := fieldSpecFor(kind, canonical)
		if spec.ReadOnly {
			readOnly = append(readOnly, canonical)
			continue
		}

		value, err := decodeBodyValue(spec, body[key])
		if err != nil {
			return nil, nil, nil, errors.NewValidationError(
				fmt.Sprintf("invalid value for field %q", key)).WithCause(err)
		}
		value = normalizeRelationValue(kind, canonical, value)
		if !entity.SetField(canonical, value) {
			return nil, nil, nil, errors.NewValidationError(
				fmt.Sprintf("field %q does not accept the given value", key))
		}
		fields = append(fields, canonical)
	}

	if len(unknown) > 0 {
		return nil, nil, nil, errors.NewValidationError(
			fmt.Sprintf("unknown fields for %s: %v", kind, unknown)).
			WithDetail("fields", unknown)
	}
	return entity, fields, readOnly, nil
}

// normalizeRelationValue normalizes ids for relation-shaped fields only;
// option-name lists pass through untouched.
func normalizeRelationValue(kind domain.EntityKind, field string, value interface{}) interface{} {
	m, ok := mappingForField(kind, field)
	if !ok {
		return value
	}
	switch m.shape {
	case shapeSingleRelation:
		if s, ok := value.(string); ok {
			return domain.NormalizeID(s)
		}
	case shapeRelation:
		if ss, ok := value.([]string); ok {
			return domain.NormalizeIDs(ss)
		}
	}
	return value
}

// decodeBodyValue unmarshals one request value into the Go shape the field
// expects.
func decodeBodyValue(spec domain.FieldSpec, raw json.RawMessage) (interface{}, error) {
	switch spec.Shape {
	case domain.ShapeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case domain.ShapeStringList:
		var ss []string
		if err := json.Unmarshal(raw, &ss); err != nil {
			return nil, err
		}
		return ss, nil
	case domain.ShapeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case domain.ShapeFiles:
		var files []domain.FileRef
		if err := json.Unmarshal(raw, &files); err != nil {
			return nil, err
		}
		return files, nil
	case domain.ShapeSF:
		var p domain.SFPatterns
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unsupported value shape")
}
