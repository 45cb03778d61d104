// Package models defines the client-side data model: prompts and their
// secondary entities, identities and sync status.
package models

import "time"

// Prompt is the synchronized record. Id and timestamps are assigned by the
// creating client; DeletedAt non-nil marks a tombstone.
type Prompt struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Tags      []string   `json:"tags"`
	Favorite  bool       `json:"is_favorite"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// IsDeleted reports whether p is a tombstone.
func (p *Prompt) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Clone returns a deep copy of p.
func (p Prompt) Clone() Prompt {
	c := p
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.DeletedAt != nil {
		d := *p.DeletedAt
		c.DeletedAt = &d
	}
	return c
}

// PromptInput carries the caller-editable fields of a new prompt.
type PromptInput struct {
	Title    string   `validate:"required,max=200"`
	Body     string   `validate:"max=20000"`
	Tags     []string `validate:"max=32,dive,min=1,max=64"`
	Favorite bool
}

// PromptPatch is a partial update; nil fields are left unchanged. It has no
// owner field, so an update can never move a prompt to another owner.
type PromptPatch struct {
	Title    *string
	Body     *string
	Tags     *[]string
	Favorite *bool
}

// Empty reports whether the patch changes nothing.
func (p PromptPatch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.Tags == nil && p.Favorite == nil
}
