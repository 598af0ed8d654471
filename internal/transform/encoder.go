package transform

import (
	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
)

// EncodeProperties builds the upstream write payload for the named fields
// of an entity. Read-only fields and fields without an upstream property
// are skipped and reported so callers can warn instead of silently writing
// less than requested.
func EncodeProperties(entity domain.Entity, fields []string) (notion.Properties, []string) {
	kind := entity.Kind()
	props := make(notion.Properties, len(fields))
	var skipped []string

	for _, field := range fields {
		spec, ok := fieldSpecFor(kind, field)
		if !ok || spec.ReadOnly {
			skipped = append(skipped, field)
			continue
		}
		m, ok := mappingForField(kind, field)
		if !ok {
			skipped = append(skipped, field)
			continue
		}
		value, ok := entity.Field(field)
		if !ok {
			skipped = append(skipped, field)
			continue
		}
		prop, ok := encodeValue(m, value)
		if !ok {
			skipped = append(skipped, field)
			continue
		}
		props[m.property] = prop
	}
	return props, skipped
}

// EncodeForCreate builds the payload for a create: every writable field the
// partial entity carries a non-empty value for.
func EncodeForCreate(entity domain.Entity) notion.Properties {
	kind := entity.Kind()
	var fields []string
	for _, spec := range domain.FieldSpecs(kind) {
		if spec.ReadOnly {
			continue
		}
		value, ok := entity.Field(spec.Key)
		if !ok || domain.IsEmptyValue(value) {
			continue
		}
		fields = append(fields, spec.Key)
	}
	props, _ := EncodeProperties(entity, fields)
	return props
}

func fieldSpecFor(kind domain.EntityKind, field string) (domain.FieldSpec, bool) {
	for _, spec := range domain.FieldSpecs(kind) {
		if spec.Key == field {
			return spec, true
		}
	}
	return domain.FieldSpec{}, false
}
