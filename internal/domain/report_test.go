package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGalleryReport_Finalize_SortAndCountsAndUTC(t *testing.T) {
	r := GalleryReport{
		Root:       "/abs/root",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Folders: []FolderResult{
			{Name: "b", Images: 2, Outcome: OutcomeSuccess},
			{Name: "a", Images: 0, Outcome: OutcomeDegraded, Error: "missing"},
			{Name: "c", Images: 3, Outcome: OutcomeSuccess},
		},
	}

	r.Finalize()

	require.Len(t, r.Folders, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{r.Folders[0].Name, r.Folders[1].Name, r.Folders[2].Name})
	assert.Equal(t, 5, r.Entries)
	assert.Equal(t, 1, r.Degraded)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"started_at":"2026-02-09T02:00:00Z"`)
}

func TestTriageReport_Finalize_Defaults(t *testing.T) {
	var r TriageReport
	r.Finalize()

	assert.Equal(t, StatusProcessed, r.Status)
	require.NotNil(t, r.Stages)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"stages":[]`)
}

func TestSubmission_AddSourceDedup(t *testing.T) {
	var s Submission
	s.AddSource("https://a.test/1")
	s.AddSource(" https://a.test/1 ")
	s.AddSource("")
	s.AddSource("https://b.test/2")

	assert.Equal(t, []string{"https://a.test/1", "https://b.test/2"}, s.Sources)
	assert.False(t, s.Complete())

	s.Title, s.Description = "t", "d"
	assert.True(t, s.Complete())
}
