package notion

import "storygraph-backend/internal/domain"

// richTextChunk is the upstream's per-fragment length cap.
const richTextChunk = 2000

// Encoder helpers. Each builds the write-payload form of one property.
// Empty inputs produce the explicit clear shape (empty array or null), not
// an omitted key; omitting the key means "leave unchanged" upstream.

// TitleProperty builds a title property from plain text.
func TitleProperty(text string) Property {
	return Property{Type: TypeTitle, Title: chunkText(text)}
}

// RichTextProperty builds a rich-text property from plain text, split into
// fragments under the upstream's length cap.
func RichTextProperty(text string) Property {
	return Property{Type: TypeRichText, RichText: chunkText(text)}
}

func chunkText(text string) []RichText {
	if text == "" {
		return []RichText{}
	}
	runes := []rune(text)
	fragments := make([]RichText, 0, (len(runes)+richTextChunk-1)/richTextChunk)
	for start := 0; start < len(runes); start += richTextChunk {
		end := start + richTextChunk
		if end > len(runes) {
			end = len(runes)
		}
		fragments = append(fragments, RichText{
			Type: "text",
			Text: &TextContent{Content: string(runes[start:end])},
		})
	}
	return fragments
}

// SelectProperty builds a select property; an empty name clears it.
func SelectProperty(name string) Property {
	p := Property{Type: TypeSelect}
	if name != "" {
		p.Select = &SelectOption{Name: name}
	}
	return p
}

// StatusProperty builds a status property; an empty name clears it.
func StatusProperty(name string) Property {
	p := Property{Type: TypeStatus}
	if name != "" {
		p.Status = &SelectOption{Name: name}
	}
	return p
}

// MultiSelectProperty builds a multi-select property from option names.
func MultiSelectProperty(names []string) Property {
	options := make([]SelectOption, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		options = append(options, SelectOption{Name: name})
	}
	return Property{Type: TypeMultiSelect, MultiSelect: options}
}

// RelationProperty builds a relation property from target ids. Blank ids
// are dropped; the rest pass through normalized.
func RelationProperty(ids []string) Property {
	refs := make([]RelationRef, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		refs = append(refs, RelationRef{ID: domain.NormalizeID(id)})
	}
	return Property{Type: TypeRelation, Relation: refs}
}

// SingleRelationProperty builds a relation property holding at most one
// target, the shape single-valued relation fields write.
func SingleRelationProperty(id string) Property {
	if id == "" {
		return Property{Type: TypeRelation, Relation: []RelationRef{}}
	}
	return Property{Type: TypeRelation, Relation: []RelationRef{{ID: domain.NormalizeID(id)}}}
}

// DateProperty builds a date property from an ISO-8601 start; empty clears.
func DateProperty(start string) Property {
	p := Property{Type: TypeDate}
	if start != "" {
		p.Date = &DateValue{Start: start}
	}
	return p
}

// URLProperty builds a url property; empty clears.
func URLProperty(url string) Property {
	p := Property{Type: TypeURL}
	if url != "" {
		p.URL = &url
	}
	return p
}

// FilesProperty builds a files property from attachments. Only external
// links can be written back; attachments without a URL are dropped.
func FilesProperty(files []domain.FileRef) Property {
	out := make([]File, 0, len(files))
	for _, f := range files {
		if f.URL == "" {
			continue
		}
		name := f.Name
		if name == "" {
			name = f.URL
		}
		out = append(out, File{
			Name:     name,
			Type:     "external",
			External: &FileLink{URL: f.URL},
		})
	}
	return Property{Type: TypeFiles, Files: out}
}
