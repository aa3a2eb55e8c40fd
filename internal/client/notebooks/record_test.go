package notebooks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeListEnvelopes(t *testing.T) {
	item := `{"id":"n1","title":"First","content":"hello","order":0}`

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[` + item + `]`, 1},
		{"dynamo items", `{"Items":[` + item + `]}`, 1},
		{"lowercase items", `{"items":[` + item + `]}`, 1},
		{"notebooks wrapper", `{"notebooks":[` + item + `]}`, 1},
		{"data wrapper", `{"data":[` + item + `]}`, 1},
		{"bare single object", item, 1},
		{"empty array", `[]`, 0},
		{"null body", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NormalizeList([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, records, tt.want)
			if tt.want > 0 {
				require.Equal(t, "n1", records[0].ID)
				require.Equal(t, "First", records[0].Title)
			}
		})
	}
}

func TestNormalizeFieldSynonyms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want NotebookRecord
	}{
		{
			name: "pascal case backend",
			body: `{"NotebookId":"n1","Title":"A","Content":"b","Order":3}`,
			want: NotebookRecord{ID: "n1", Title: "A", Content: "b", Order: 3},
		},
		{
			name: "legacy names",
			body: `{"uuid":"n2","name":"B","body":"c","sequence":"7"}`,
			want: NotebookRecord{ID: "n2", Title: "B", Content: "c", Order: 7},
		},
		{
			name: "camel case",
			body: `{"notebookId":"n3","title":"C","content":"d","order":1}`,
			want: NotebookRecord{ID: "n3", Title: "C", Content: "d", Order: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOne([]byte(tt.body))
			require.NoError(t, err)
			require.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalizeFirstSynonymWins(t *testing.T) {
	// earlier names in the chain take precedence over later ones
	got, err := NormalizeOne([]byte(`{"id":"canonical","uuid":"legacy","title":"x"}`))
	require.NoError(t, err)
	require.Equal(t, "canonical", got.ID)

	// the backend's own key beats the generic one when both are present
	got, err = NormalizeOne([]byte(`{"NotebookId":"primary","id":"secondary","title":"x"}`))
	require.NoError(t, err)
	require.Equal(t, "primary", got.ID)
}

func TestNormalizeTimestamps(t *testing.T) {
	body := `{"id":"n1","created_date":"2024-03-01T10:00:00Z","tsUpdated":"2024-03-02T11:30:00Z"}`
	got, err := NormalizeOne([]byte(body))
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), got.CreatedAt)
	require.Equal(t, time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC), got.UpdatedAt)
}

func TestNormalizeClampsUpdatedAt(t *testing.T) {
	// updatedAt must never precede createdAt
	body := `{"id":"n1","createdAt":"2024-03-05T00:00:00Z","updatedAt":"2024-03-01T00:00:00Z"}`
	got, err := NormalizeOne([]byte(body))
	require.NoError(t, err)
	require.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestNormalizeTagsAsSet(t *testing.T) {
	body := `{"id":"n1","tags":["work","ideas","work","","ideas"]}`
	got, err := NormalizeOne([]byte(body))
	require.NoError(t, err)
	require.Equal(t, []string{"ideas", "work"}, got.Tags)
}

func TestNormalizeAttachments(t *testing.T) {
	body := `{"id":"n1",
		"attachments":[{"id":"f1","name":"scan.pdf","size":2048,"mimeType":"application/pdf","locator":"s3://x/f1"}],
		"links":[{"id":"l1","url":"https://example.com","label":"ref"}]}`
	got, err := NormalizeOne([]byte(body))
	require.NoError(t, err)
	require.Len(t, got.AttachedFiles, 1)
	require.Equal(t, int64(2048), got.AttachedFiles[0].Size)
	require.Len(t, got.AttachedLinks, 1)
	require.Equal(t, "https://example.com", got.AttachedLinks[0].URL)
}

func TestNormalizeOneEmptyResponse(t *testing.T) {
	_, err := NormalizeOne([]byte(`[]`))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeListRejectsGarbage(t *testing.T) {
	_, err := NormalizeList([]byte(`"just a string"`))
	require.Error(t, err)

	_, err = NormalizeList([]byte(`{not json`))
	require.Error(t, err)
}

func TestSortRecordsTieBreaksByID(t *testing.T) {
	records := []NotebookRecord{
		{ID: "b", Order: 1},
		{ID: "a", Order: 1},
		{ID: "c", Order: 0},
	}
	SortRecords(records)
	require.Equal(t, "c", records[0].ID)
	require.Equal(t, "a", records[1].ID)
	require.Equal(t, "b", records[2].ID)
}

func TestPatchApply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	record := NotebookRecord{
		ID: "n1", Title: "old", Content: "text",
		Tags: []string{"a"}, CreatedAt: created, UpdatedAt: created,
	}

	title := "new"
	now := created.Add(time.Hour)
	Patch{Title: &title, Tags: []string{"b", "a"}}.apply(&record, now)

	require.Equal(t, "new", record.Title)
	require.Equal(t, "text", record.Content) // untouched
	require.Equal(t, []string{"a", "b"}, record.Tags)
	require.Equal(t, now, record.UpdatedAt)
}
