package transform

import "storygraph-backend/internal/domain"

// Merge reconciles a decoded update response onto the pre-update snapshot.
//
// The upstream may answer an update with only the properties that were
// written, so the decoded entity can carry empty values for everything the
// caller never mentioned. Those empties are response truncation, not user
// intent. The rule, per field: if the caller named the field, the decoded
// value wins even when empty (an explicit clear); otherwise an empty decoded
// value yields to a non-empty old value.
//
// The returned list names every field that was restored this way. A restore
// is expected with partial responses, but callers surface the list as
// consistency warnings so real field loss is never silent.
func Merge(old, decoded domain.Entity, requestedFields []string) (domain.Entity, []string) {
	if decoded == nil {
		return nil, nil
	}
	if old == nil {
		return decoded, nil
	}

	requested := make(map[string]struct{}, len(requestedFields))
	for _, key := range requestedFields {
		requested[key] = struct{}{}
	}

	merged := decoded.Clone()
	// Restored values come from a clone so merged never aliases the
	// caller's snapshot slices.
	snapshot := old.Clone()
	var restored []string

	for _, spec := range domain.FieldSpecs(old.Kind()) {
		if spec.Key == domain.FieldSFPatterns {
			// Tracks the description; recomputed below instead of restored.
			continue
		}
		if _, named := requested[spec.Key]; named {
			continue
		}
		newValue, ok := merged.Field(spec.Key)
		if !ok || !domain.IsEmptyValue(newValue) {
			continue
		}
		oldValue, ok := snapshot.Field(spec.Key)
		if !ok || domain.IsEmptyValue(oldValue) {
			continue
		}
		merged.SetField(spec.Key, oldValue)
		restored = append(restored, spec.Key)
	}

	if el, ok := merged.(*domain.Element); ok {
		el.SFPatterns = domain.ParseSFPatterns(el.Description)
	}
	return merged, restored
}
