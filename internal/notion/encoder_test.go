package notion_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
)

func marshalProperty(t *testing.T, p notion.Property) string {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return string(data)
}

func TestTitleProperty(t *testing.T) {
	got := marshalProperty(t, notion.TitleProperty("Victoria Kingsley"))
	assert.JSONEq(t, `{"title":[{"type":"text","text":{"content":"Victoria Kingsley"}}]}`, got)
}

func TestRichTextProperty_ChunksLongText(t *testing.T) {
	long := strings.Repeat("a", 4100)
	p := notion.RichTextProperty(long)

	require.Len(t, p.RichText, 3)
	assert.Len(t, p.RichText[0].Text.Content, 2000)
	assert.Len(t, p.RichText[1].Text.Content, 2000)
	assert.Len(t, p.RichText[2].Text.Content, 100)
}

func TestRichTextProperty_ChunksOnRunes(t *testing.T) {
	long := strings.Repeat("é", 2001)
	p := notion.RichTextProperty(long)

	require.Len(t, p.RichText, 2)
	assert.Equal(t, 2000, len([]rune(p.RichText[0].Text.Content)), "split counts runes, not bytes")
}

func TestRelationProperty_NormalizesAndDropsBlanks(t *testing.T) {
	p := notion.RelationProperty([]string{"AAAAAAAABBBBCCCCDDDDEEEEEEEEEEEE", "", "12345678-1234-1234-1234-123456789abc"})

	require.Len(t, p.Relation, 2)
	assert.Equal(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", p.Relation[0].ID)
}

func TestEncoder_ClearShapes(t *testing.T) {
	tests := []struct {
		name string
		prop notion.Property
		want string
	}{
		{"empty title", notion.TitleProperty(""), `{"title":[]}`},
		{"empty rich text", notion.RichTextProperty(""), `{"rich_text":[]}`},
		{"cleared select", notion.SelectProperty(""), `{"select":null}`},
		{"cleared status", notion.StatusProperty(""), `{"status":null}`},
		{"empty multi select", notion.MultiSelectProperty(nil), `{"multi_select":[]}`},
		{"empty relation", notion.RelationProperty(nil), `{"relation":[]}`},
		{"cleared single relation", notion.SingleRelationProperty(""), `{"relation":[]}`},
		{"cleared date", notion.DateProperty(""), `{"date":null}`},
		{"cleared url", notion.URLProperty(""), `{"url":null}`},
		{"empty files", notion.FilesProperty(nil), `{"files":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, marshalProperty(t, tt.prop))
		})
	}
}

func TestSelectProperty_NamedOption(t *testing.T) {
	got := marshalProperty(t, notion.SelectProperty("Core"))
	assert.JSONEq(t, `{"select":{"name":"Core"}}`, got)
}

func TestSingleRelationProperty(t *testing.T) {
	got := marshalProperty(t, notion.SingleRelationProperty("AAAAAAAABBBBCCCCDDDDEEEEEEEEEEEE"))
	assert.JSONEq(t, `{"relation":[{"id":"aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"}]}`, got)
}

func TestFilesProperty_WritesExternalLinks(t *testing.T) {
	p := notion.FilesProperty([]domain.FileRef{
		{Name: "map.pdf", URL: "https://cdn.example.com/map.pdf"},
		{Name: "broken", URL: ""},
		{Name: "", URL: "https://cdn.example.com/anon.png"},
	})

	require.Len(t, p.Files, 2)
	assert.Equal(t, "external", p.Files[0].Type)
	assert.Equal(t, "https://cdn.example.com/map.pdf", p.Files[0].External.URL)
	assert.Equal(t, "https://cdn.example.com/anon.png", p.Files[1].Name, "name falls back to the URL")
}

func TestEncodeDecode_RoundTripsValues(t *testing.T) {
	props := notion.Properties{
		"Name":        notion.TitleProperty("The locked safe"),
		"Description": notion.RichTextProperty("Contains SF_RFID: [SAFE01] marker text."),
		"Tier":        notion.SelectProperty("Secondary"),
		"Threads":     notion.MultiSelectProperty([]string{"Memory Drug"}),
		"Owner":       notion.SingleRelationProperty("11111111-2222-3333-4444-555555555555"),
		"Date":        notion.DateProperty("2019-06-14"),
		"Link":        notion.URLProperty("https://example.com/asset"),
	}

	assert.Equal(t, "The locked safe", notion.TitleOf(props, "Name"))
	assert.Equal(t, "Contains SF_RFID: [SAFE01] marker text.", notion.TextOf(props, "Description"))
	assert.Equal(t, "Secondary", notion.SelectOf(props, "Tier"))
	assert.Equal(t, []string{"Memory Drug"}, notion.MultiSelectOf(props, "Threads"))
	assert.Equal(t, []string{"11111111-2222-3333-4444-555555555555"}, notion.RelationIDsOf(props, "Owner"))
	assert.Equal(t, "2019-06-14", notion.DateOf(props, "Date"))
	assert.Equal(t, "https://example.com/asset", notion.URLOf(props, "Link"))
}
