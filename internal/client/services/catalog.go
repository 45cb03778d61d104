package services

import (
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/google/uuid"
)

// seedNamespace scopes the name-based UUIDs of starter prompts.
var seedNamespace = uuid.MustParse("0b9f4c1e-5d0a-4f57-9c3e-6a2d8e7f1b44")

// Starter is one entry of the first-run catalog.
type Starter struct {
	Title string
	Body  string
	Tags  []string
}

// DefaultCatalog is what a new identity starts with.
var DefaultCatalog = []Starter{
	{
		Title: "Explain like I'm five",
		Body:  "Explain the following concept in simple words a five year old would understand:\n\n{{topic}}",
		Tags:  []string{"learning", "starter"},
	},
	{
		Title: "Code review",
		Body:  "Review this code. Point out bugs, unclear naming and missing tests, most important first:\n\n{{code}}",
		Tags:  []string{"coding", "starter"},
	},
	{
		Title: "Summarize",
		Body:  "Summarize the text below in five bullet points, keeping numbers and names exact:\n\n{{text}}",
		Tags:  []string{"writing", "starter"},
	},
	{
		Title: "Commit message",
		Body:  "Write a git commit message for this diff. Imperative subject under 60 characters, then a short body:\n\n{{diff}}",
		Tags:  []string{"coding", "git", "starter"},
	},
}

// SeedID is the stable id of the starter titled title for owner. Seeding the
// same owner twice yields the same ids.
func SeedID(owner models.Identity, title string) string {
	return uuid.NewSHA1(seedNamespace, []byte(owner.OwnerKey()+"/"+slug(title))).String()
}

// catalogFor materializes starters as prompts owned by owner.
func catalogFor(owner models.Identity, starters []Starter, now time.Time) []models.Prompt {
	out := make([]models.Prompt, 0, len(starters))
	for _, s := range starters {
		tags := append([]string{}, s.Tags...)
		out = append(out, models.Prompt{
			ID:        SeedID(owner, s.Title),
			OwnerID:   owner.OwnerKey(),
			Title:     s.Title,
			Body:      s.Body,
			Tags:      tags,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
