package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

// Add asks for the fields of a new prompt.
func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	body, err := GetMultiline(a.reader, "Body", a.out)
	if err != nil {
		return err
	}
	tags, err := getSimpleText(a.reader, "Tags (comma separated)", a.out)
	if err != nil {
		return err
	}
	return a.AddPrompt(ctx, models.PromptInput{Title: title, Body: body, Tags: ParseTags(tags)})
}

func (a *App) AddPrompt(ctx context.Context, in models.PromptInput) error {
	p, err := a.local.Create(ctx, in)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			fmt.Fprintf(a.out, "Invalid prompt: %v\n", err)
		}
		return err
	}
	fmt.Fprintf(a.out, "Added %s\n", p.ID)
	return nil
}

func (a *App) List(ctx context.Context, includeDeleted bool) error {
	rows, err := a.local.GetAll(ctx, includeDeleted)
	if err != nil {
		return err
	}
	a.printPrompts(rows)
	return nil
}

func (a *App) Search(ctx context.Context, query string) error {
	rows, err := a.local.Search(ctx, query)
	if err != nil {
		return err
	}
	a.printPrompts(rows)
	return nil
}

// Show prints one prompt and records the view.
func (a *App) Show(ctx context.Context, id string) error {
	p, err := a.local.GetByID(ctx, id)
	if err != nil {
		return a.notFound(id, err)
	}
	fmt.Fprintf(a.out, "%s\n%s\n\n%s\n", p.Title, strings.Repeat("-", len(p.Title)), p.Body)
	if len(p.Tags) > 0 {
		fmt.Fprintf(a.out, "\ntags: %s\n", strings.Join(p.Tags, ", "))
	}
	if err := a.local.RecordUsage(ctx, p.ID, models.UsageView); err != nil {
		a.log.Debug(ctx, "usage not recorded", "error", err)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.local.SoftDelete(ctx, id); err != nil {
		return a.notFound(id, err)
	}
	fmt.Fprintf(a.out, "Deleted %s\n", id)
	return nil
}

// ToggleFavorite flips the favorite flag of id.
func (a *App) ToggleFavorite(ctx context.Context, id string) error {
	p, err := a.local.GetByID(ctx, id)
	if err != nil {
		return a.notFound(id, err)
	}
	fav := !p.Favorite
	if _, err := a.local.Update(ctx, id, models.PromptPatch{Favorite: &fav}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Favorite: %t\n", fav)
	return nil
}

func (a *App) Recent(ctx context.Context) error {
	events, err := a.local.RecentUsage(ctx, 10)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AT\tACTION\tPROMPT")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\n", timex.Format(e.At), e.Action, e.PromptID)
	}
	return w.Flush()
}

func (a *App) NewCollection(ctx context.Context, name string) error {
	c, err := a.local.CreateCollection(ctx, models.CollectionInput{Name: name})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Collection %s created\n", c.ID)
	return nil
}

func (a *App) Collect(ctx context.Context, collectionID, promptID string) error {
	c, err := a.local.AddToCollection(ctx, collectionID, promptID)
	if err != nil {
		return a.notFound(collectionID+"/"+promptID, err)
	}
	fmt.Fprintf(a.out, "%s now holds %d prompts\n", c.Name, len(c.PromptIDs))
	return nil
}

func (a *App) ListCollections(ctx context.Context) error {
	cols, err := a.local.Collections(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROMPTS")
	for _, c := range cols {
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Name, len(c.PromptIDs))
	}
	return w.Flush()
}

// Theme prints the theme or, with a name, saves it.
func (a *App) Theme(ctx context.Context, name string) error {
	if name != "" {
		return a.local.SetTheme(ctx, name)
	}
	t, err := a.local.Theme(ctx)
	if err != nil {
		return err
	}
	if t == "" {
		t = "default"
	}
	fmt.Fprintln(a.out, t)
	return nil
}

func (a *App) printPrompts(rows []models.Prompt) {
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No prompts")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTAGS\tUPDATED")
	for _, p := range rows {
		title := p.Title
		if p.Favorite {
			title = "* " + title
		}
		if p.IsDeleted() {
			title += " (deleted)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, title, strings.Join(p.Tags, ","), p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func (a *App) notFound(id string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		fmt.Fprintf(a.out, "Not found: %s\n", id)
	}
	return err
}
