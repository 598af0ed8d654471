package notion

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
)

// Decoder helpers. Each reads one property by name and yields the natural
// domain value, or the zero value when the property is absent or of another
// type. Missing and empty collapse here on purpose; the entity merger is
// the layer that distinguishes "not in this response" from "cleared".

// TitleOf concatenates the plain text of a title property.
func TitleOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeTitle {
		return ""
	}
	return joinRichText(p.Title)
}

// TextOf concatenates the plain text of a rich-text property.
func TextOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeRichText {
		return ""
	}
	return joinRichText(p.RichText)
}

func joinRichText(fragments []RichText) string {
	if len(fragments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fragments {
		if f.PlainText != "" {
			b.WriteString(f.PlainText)
		} else if f.Text != nil {
			b.WriteString(f.Text.Content)
		}
	}
	return b.String()
}

// SelectOf returns the selected option name.
func SelectOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeSelect || p.Select == nil {
		return ""
	}
	return p.Select.Name
}

// StatusOf returns the status option name.
func StatusOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeStatus || p.Status == nil {
		return ""
	}
	return p.Status.Name
}

// MultiSelectOf returns the selected option names in upstream order.
func MultiSelectOf(props Properties, name string) []string {
	p, ok := props[name]
	if !ok || p.Type != TypeMultiSelect || len(p.MultiSelect) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.MultiSelect))
	for _, opt := range p.MultiSelect {
		out = append(out, opt.Name)
	}
	return out
}

// RelationIDsOf returns the normalized target ids of a relation property.
// The result covers only the first page; callers that need the full list
// run CompleteRelations over the page first.
func RelationIDsOf(props Properties, name string) []string {
	p, ok := props[name]
	if !ok || p.Type != TypeRelation || len(p.Relation) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.Relation))
	for _, ref := range p.Relation {
		out = append(out, domain.NormalizeID(ref.ID))
	}
	return out
}

// NumberOf returns the value of a number property, zero when unset.
func NumberOf(props Properties, name string) float64 {
	p, ok := props[name]
	if !ok || p.Type != TypeNumber || p.Number == nil {
		return 0
	}
	return *p.Number
}

// CheckboxOf returns the value of a checkbox property.
func CheckboxOf(props Properties, name string) bool {
	p, ok := props[name]
	if !ok || p.Type != TypeCheckbox || p.Checkbox == nil {
		return false
	}
	return *p.Checkbox
}

// URLOf returns the value of a url property.
func URLOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeURL || p.URL == nil {
		return ""
	}
	return *p.URL
}

// DateOf returns the ISO-8601 start of a date property. End and time zone
// are dropped; the pipeline only compares starts.
func DateOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeDate || p.Date == nil {
		return ""
	}
	return p.Date.Start
}

// FormulaStringOf renders a formula property as a string: string formulas
// verbatim, numbers and booleans formatted, dates as their start.
func FormulaStringOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeFormula || p.Formula == nil {
		return ""
	}
	return formulaString(p.Formula)
}

func formulaString(f *Formula) string {
	switch f.Type {
	case "string":
		if f.String != nil {
			return *f.String
		}
	case "number":
		if f.Number != nil {
			return formatNumber(*f.Number)
		}
	case "boolean":
		if f.Boolean != nil {
			return strconv.FormatBool(*f.Boolean)
		}
	case "date":
		if f.Date != nil {
			return f.Date.Start
		}
	}
	return ""
}

// FormulaBoolOf returns the value of a boolean formula property.
func FormulaBoolOf(props Properties, name string) bool {
	p, ok := props[name]
	if !ok || p.Type != TypeFormula || p.Formula == nil || p.Formula.Boolean == nil {
		return false
	}
	return *p.Formula.Boolean
}

// FilesOf returns the attachments of a files property.
func FilesOf(props Properties, name string) []domain.FileRef {
	p, ok := props[name]
	if !ok || p.Type != TypeFiles || len(p.Files) == 0 {
		return nil
	}
	out := make([]domain.FileRef, 0, len(p.Files))
	for _, f := range p.Files {
		out = append(out, f.FileRef())
	}
	return out
}

// LastEditedOf returns a last-edited-time property as ISO-8601 text.
func LastEditedOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeLastEditedTime || p.LastEditedTime == nil {
		return ""
	}
	return *p.LastEditedTime
}

// CreatedTimeOf returns a created-time property as ISO-8601 text.
func CreatedTimeOf(props Properties, name string) string {
	p, ok := props[name]
	if !ok || p.Type != TypeCreatedTime || p.CreatedTime == nil {
		return ""
	}
	return *p.CreatedTime
}

// RollupNumberOf returns the value of a number rollup.
func RollupNumberOf(props Properties, name string) float64 {
	p, ok := props[name]
	if !ok || p.Type != TypeRollup || p.Rollup == nil || p.Rollup.Number == nil {
		return 0
	}
	return *p.Rollup.Number
}

// RollupStringsOf flattens an array rollup into strings: text fragments,
// option names, relation ids (normalized), formatted numbers, date starts.
// Elements that carry nothing renderable are skipped.
func RollupStringsOf(props Properties, name string) []string {
	p, ok := props[name]
	if !ok || p.Type != TypeRollup || p.Rollup == nil {
		return nil
	}
	if p.Rollup.Type == "number" && p.Rollup.Number != nil {
		return []string{formatNumber(*p.Rollup.Number)}
	}

	var out []string
	for _, item := range p.Rollup.Array {
		out = append(out, rollupItemStrings(item)...)
	}
	return out
}

func rollupItemStrings(item Property) []string {
	switch item.Type {
	case TypeTitle:
		if s := joinRichText(item.Title); s != "" {
			return []string{s}
		}
	case TypeRichText:
		if s := joinRichText(item.RichText); s != "" {
			return []string{s}
		}
	case TypeSelect:
		if item.Select != nil {
			return []string{item.Select.Name}
		}
	case TypeStatus:
		if item.Status != nil {
			return []string{item.Status.Name}
		}
	case TypeMultiSelect:
		out := make([]string, 0, len(item.MultiSelect))
		for _, opt := range item.MultiSelect {
			out = append(out, opt.Name)
		}
		return out
	case TypeRelation:
		out := make([]string, 0, len(item.Relation))
		for _, ref := range item.Relation {
			out = append(out, domain.NormalizeID(ref.ID))
		}
		return out
	case TypeNumber:
		if item.Number != nil {
			return []string{formatNumber(*item.Number)}
		}
	case TypeDate:
		if item.Date != nil {
			return []string{item.Date.Start}
		}
	case TypeFormula:
		if item.Formula != nil {
			if s := formulaString(item.Formula); s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// CompleteRelations rewrites every truncated relation property on the page
// with its full target list, following property-item pagination until the
// upstream reports no more. Truncated relations silently drop edges, so a
// failed completion is an error, not a skip.
func CompleteRelations(ctx context.Context, gw Gateway, page *Page, logger *zap.Logger) error {
	if page == nil {
		return nil
	}
	for name, prop := range page.Properties {
		if prop.Type != TypeRelation || !prop.HasMore {
			continue
		}

		ids, err := fetchAllRelationItems(ctx, gw, page.ID, prop.ID)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Debug("completed truncated relation",
				zap.String("pageId", page.ID),
				zap.String("property", name),
				zap.Int("targets", len(ids)),
			)
		}

		refs := make([]RelationRef, 0, len(ids))
		for _, id := range ids {
			refs = append(refs, RelationRef{ID: id})
		}
		prop.Relation = refs
		prop.HasMore = false
		page.Properties[name] = prop
	}
	return nil
}

func fetchAllRelationItems(ctx context.Context, gw Gateway, pageID, propertyID string) ([]string, error) {
	var ids []string
	cursor := ""
	for {
		propPage, err := gw.RetrievePropertyPage(ctx, pageID, propertyID, cursor)
		if err != nil {
			return nil, err
		}
		for _, item := range propPage.Results {
			if item.Type == TypeRelation && item.Relation != nil {
				ids = append(ids, item.Relation.ID)
			}
		}
		if !propPage.HasMore || propPage.NextCursor == "" {
			return ids, nil
		}
		cursor = propPage.NextCursor
	}
}
