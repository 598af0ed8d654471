// Package notion is the upstream gateway: a rate-limited, retrying client
// for the workspace API plus the codecs between its property bags and
// domain values. Nothing outside this package speaks HTTP to the upstream.
package notion

import (
	"encoding/json"

	"storygraph-backend/internal/domain"
)

// Property type tags as the upstream emits them.
const (
	TypeTitle          = "title"
	TypeRichText       = "rich_text"
	TypeSelect         = "select"
	TypeStatus         = "status"
	TypeMultiSelect    = "multi_select"
	TypeRelation       = "relation"
	TypeRollup         = "rollup"
	TypeDate           = "date"
	TypeFormula        = "formula"
	TypeURL            = "url"
	TypeFiles          = "files"
	TypeNumber         = "number"
	TypeCheckbox       = "checkbox"
	TypeLastEditedTime = "last_edited_time"
	TypeCreatedTime    = "created_time"
)

// Page is one upstream record: one row of one database.
type Page struct {
	Object         string     `json:"object,omitempty"`
	ID             string     `json:"id"`
	CreatedTime    string     `json:"created_time,omitempty"`
	LastEditedTime string     `json:"last_edited_time,omitempty"`
	Archived       bool       `json:"archived,omitempty"`
	Parent         Parent     `json:"parent,omitempty"`
	Properties     Properties `json:"properties"`
	URL            string     `json:"url,omitempty"`
}

// Parent locates a page inside the workspace.
type Parent struct {
	Type       string `json:"type,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// Properties is a page's property bag, keyed by human-readable property name.
type Properties map[string]Property

// Property is one slot of a property bag. Only the value field matching
// Type carries data; the rest stay zero.
type Property struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`

	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	Status      *SelectOption  `json:"status,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Relation    []RelationRef  `json:"relation,omitempty"`
	// HasMore marks a relation truncated to its first page; the decoder
	// must complete it through the property-item endpoint.
	HasMore bool `json:"has_more,omitempty"`

	Rollup         *Rollup     `json:"rollup,omitempty"`
	Date           *DateValue  `json:"date,omitempty"`
	Formula        *Formula    `json:"formula,omitempty"`
	URL            *string     `json:"url,omitempty"`
	Files          []File      `json:"files,omitempty"`
	Number         *float64    `json:"number,omitempty"`
	Checkbox       *bool       `json:"checkbox,omitempty"`
	LastEditedTime *string     `json:"last_edited_time,omitempty"`
	CreatedTime    *string     `json:"created_time,omitempty"`
}

// MarshalJSON emits the write-payload shape for the property's type. Update
// and create payloads need explicit empty arrays and nulls to express
// "clear this field"; omitempty on the struct fields would silently drop
// them, so writes go through this typed projection instead.
func (p Property) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 1)
	switch p.Type {
	case TypeTitle:
		out["title"] = emptyRichText(p.Title)
	case TypeRichText:
		out["rich_text"] = emptyRichText(p.RichText)
	case TypeSelect:
		out["select"] = p.Select
	case TypeStatus:
		out["status"] = p.Status
	case TypeMultiSelect:
		if p.MultiSelect == nil {
			out["multi_select"] = []SelectOption{}
		} else {
			out["multi_select"] = p.MultiSelect
		}
	case TypeRelation:
		if p.Relation == nil {
			out["relation"] = []RelationRef{}
		} else {
			out["relation"] = p.Relation
		}
	case TypeDate:
		out["date"] = p.Date
	case TypeURL:
		out["url"] = p.URL
	case TypeFiles:
		if p.Files == nil {
			out["files"] = []File{}
		} else {
			out["files"] = p.Files
		}
	case TypeNumber:
		out["number"] = p.Number
	case TypeCheckbox:
		out["checkbox"] = p.Checkbox
	default:
		// Read-only and unknown kinds never appear in write payloads;
		// emit the type tag alone so accidental marshals stay visible.
		if p.Type != "" {
			out["type"] = p.Type
		}
	}
	return json.Marshal(out)
}

func emptyRichText(rt []RichText) []RichText {
	if rt == nil {
		return []RichText{}
	}
	return rt
}

// RichText is one fragment of a title or rich-text property.
type RichText struct {
	Type      string       `json:"type,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

// TextContent is the writable inner value of a rich-text fragment.
type TextContent struct {
	Content string `json:"content"`
}

// SelectOption is one option of a select, status or multi-select property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// RelationRef points at another page.
type RelationRef struct {
	ID string `json:"id"`
}

// Rollup is an upstream-computed aggregate over related pages.
type Rollup struct {
	Type   string     `json:"type"`
	Number *float64   `json:"number,omitempty"`
	Array  []Property `json:"array,omitempty"`
}

// DateValue carries the start of a date property. End and time zone are
// dropped; the pipeline only compares starts.
type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// Formula is an upstream-computed scalar.
type Formula struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// File is one attachment of a files property.
type File struct {
	Name     string    `json:"name,omitempty"`
	Type     string    `json:"type,omitempty"`
	External *FileLink `json:"external,omitempty"`
	File     *FileLink `json:"file,omitempty"`
}

// FileLink holds the resolved URL of a file.
type FileLink struct {
	URL string `json:"url"`
}

// ResolvedURL returns the usable URL regardless of hosting variant.
func (f File) ResolvedURL() string {
	if f.External != nil {
		return f.External.URL
	}
	if f.File != nil {
		return f.File.URL
	}
	return ""
}

// FileRef converts an upstream file to the domain attachment shape.
func (f File) FileRef() domain.FileRef {
	return domain.FileRef{Name: f.Name, URL: f.ResolvedURL()}
}

// QueryResult is one page of a database query.
type QueryResult struct {
	Pages      []Page
	NextCursor string
	HasMore    bool
}

// QueryOptions narrow a database query. Filter is opaque: handlers pass it
// through from the client verbatim, the gateway never inspects it.
type QueryOptions struct {
	StartCursor string
	PageSize    int
	Filter      json.RawMessage
}

// PropertyPage is one page of property items from the property-item
// endpoint, used to complete truncated relations.
type PropertyPage struct {
	Results    []PropertyItem
	NextCursor string
	HasMore    bool
}

// PropertyItem is one entry of a paginated property.
type PropertyItem struct {
	Object   string       `json:"object,omitempty"`
	Type     string       `json:"type"`
	Relation *RelationRef `json:"relation,omitempty"`
}

type queryRequest struct {
	StartCursor string          `json:"start_cursor,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
	Filter      json.RawMessage `json:"filter,omitempty"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type propertyItemResponse struct {
	Object     string          `json:"object"`
	Type       string          `json:"type,omitempty"`
	Results    []PropertyItem  `json:"results,omitempty"`
	Relation   *RelationRef    `json:"relation,omitempty"`
	NextCursor *string         `json:"next_cursor"`
	HasMore    bool            `json:"has_more"`
	Item       json.RawMessage `json:"property_item,omitempty"`
}

type updatePageRequest struct {
	Properties Properties `json:"properties,omitempty"`
	Archived   *bool      `json:"archived,omitempty"`
}

type createPageRequest struct {
	Parent     Parent     `json:"parent"`
	Properties Properties `json:"properties"`
}

// apiError is the upstream's error payload.
type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
