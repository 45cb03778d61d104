package services

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Code review":             "code-review",
		"  Explain like I'm five": "explain-like-i-m-five",
		"A -- B!!":                "a-b",
		"":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), in)
	}
}

func TestSeedID_StablePerOwner(t *testing.T) {
	u := models.Authenticated("u1")
	a := SeedID(u, "Code review")
	assert.Equal(t, a, SeedID(u, "code  REVIEW"))
	assert.NotEqual(t, a, SeedID(models.Anonymous(), "Code review"))
	assert.NotEqual(t, a, SeedID(u, "Summarize"))

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestCatalogFor(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := catalogFor(models.Authenticated("u1"), DefaultCatalog, now)
	require.Len(t, rows, len(DefaultCatalog))
	for i, p := range rows {
		assert.Equal(t, "u1", p.OwnerID)
		assert.Equal(t, DefaultCatalog[i].Title, p.Title)
		assert.True(t, p.CreatedAt.Equal(now))
		assert.Nil(t, p.DeletedAt)
	}

	rows[0].Tags[0] = "changed"
	assert.NotEqual(t, "changed", DefaultCatalog[0].Tags[0])
}
