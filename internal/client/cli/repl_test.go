package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	signedIn bool
	calls    []string
}

func (f *fakeExec) rec(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return nil
}

func (f *fakeExec) isSignedIn() bool                      { return f.signedIn }
func (f *fakeExec) SignUp(context.Context) error          { return f.rec("signup") }
func (f *fakeExec) Login(context.Context) error           { return f.rec("login") }
func (f *fakeExec) Logout(context.Context) error          { return f.rec("logout") }
func (f *fakeExec) Add(context.Context) error             { return f.rec("add") }
func (f *fakeExec) Recent(context.Context) error          { return f.rec("recent") }
func (f *fakeExec) ListCollections(context.Context) error { return f.rec("collections") }
func (f *fakeExec) Sync(context.Context) error            { return f.rec("sync") }
func (f *fakeExec) Status(context.Context) error          { return f.rec("status") }

func (f *fakeExec) List(_ context.Context, all bool) error { return f.rec("list all=%t", all) }
func (f *fakeExec) Search(_ context.Context, q string) error {
	return f.rec("search %q", q)
}
func (f *fakeExec) Show(_ context.Context, id string) error   { return f.rec("show %s", id) }
func (f *fakeExec) Delete(_ context.Context, id string) error { return f.rec("delete %s", id) }
func (f *fakeExec) ToggleFavorite(_ context.Context, id string) error {
	return f.rec("fav %s", id)
}
func (f *fakeExec) NewCollection(_ context.Context, name string) error {
	return f.rec("newcol %q", name)
}
func (f *fakeExec) Collect(_ context.Context, col, id string) error {
	return f.rec("collect %s %s", col, id)
}
func (f *fakeExec) Theme(_ context.Context, name string) error { return f.rec("theme %q", name) }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}

func runWith(f *fakeExec, input string) {
	runREPL(context.Background(), f, func() string { return "guest, local" }, bufio.NewReader(strings.NewReader(input)))
}

func TestREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)
	f := &fakeExec{}

	runWith(f, strings.Join([]string{
		"add",
		"l",
		"list all",
		"search  code  review ",
		"show p1",
		"delete p2",
		"fav p3",
		"recent",
		"collections",
		"newcol Work stuff",
		"collect c1 p1",
		"theme dark",
		"sync",
		"status",
		"signup",
		"login",
		"logout",
		"exit",
		"add",
	}, "\n"))

	assert.Equal(t, []string{
		"add",
		"list all=false",
		"list all=true",
		`search "code review"`,
		"show p1",
		"delete p2",
		"fav p3",
		"recent",
		"collections",
		`newcol "Work stuff"`,
		"collect c1 p1",
		`theme "dark"`,
		"sync",
		"status",
		"signup",
		"login",
		"logout",
	}, f.calls, "nothing runs after exit")
}

func TestREPL_UsageAndUnknown(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	runWith(f, "show\ncollect c1\nnewcol\nfrobnicate\n\n")

	assert.Empty(t, f.calls)
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Usage: show <id>")
	assert.Contains(t, joined, "Usage: collect <collection-id> <prompt-id>")
	assert.Contains(t, joined, "Usage: newcol <name>")
	assert.Contains(t, joined, "Unknown command: frobnicate")
	assert.Contains(t, joined, "pk (guest, local) >")
}

func TestREPL_HelpDependsOnIdentity(t *testing.T) {
	out := captureOutput(t)
	runWith(&fakeExec{}, "help\n")
	assert.Contains(t, *out, helpGuest)

	out = captureOutput(t)
	runWith(&fakeExec{signedIn: true}, "help\n")
	assert.Contains(t, *out, helpUser)
}

func TestREPL_SharedReaderForFollowUps(t *testing.T) {
	captureOutput(t)
	a := newTestApp(t, nil, nil, "add\nHaiku\nfive seven five\n\nart\nl\nexit\n")
	ctx := context.Background()
	a.Start(ctx)

	a.REPL(ctx)

	rows, err := a.local.Search(ctx, "haiku")
	assert.NoError(t, err)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, "five seven five", rows[0].Body)
		assert.Equal(t, []string{"art"}, rows[0].Tags)
	}
	assert.Contains(t, a.out.String(), "Haiku")
}
