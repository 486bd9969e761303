package cascade

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/aidanlsb/tendr/internal/testutil"
	"github.com/aidanlsb/tendr/internal/vault"
	"github.com/aidanlsb/tendr/internal/wikirefs"
)

func load(t *testing.T, g *testutil.TestGarden) *Engine {
	t.Helper()
	c, err := vault.Load(context.Background(), g.Path, nil)
	if err != nil {
		t.Fatalf("vault.Load() error = %v", err)
	}
	return &Engine{Corpus: c}
}

func TestRenameDocument(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"a": "[[b]]",
		"b": "",
	}).Build()

	res, err := load(t, g).RenameDocument(context.Background(), "b", "c", RenameOptions{})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}

	if want := []Rename{{Old: "b", New: "c"}}; !reflect.DeepEqual(res.Renamed, want) {
		t.Errorf("Renamed = %+v, want %+v", res.Renamed, want)
	}
	if want := []string{"a"}; !reflect.DeepEqual(res.Changed, want) {
		t.Errorf("Changed = %v, want %v", res.Changed, want)
	}
	if !res.OK() {
		t.Errorf("Failed = %+v", res.Failed)
	}
	g.AssertFileNotExists("b.md")
	g.AssertFileExists("c.md")
	g.AssertDoc("a", "[[c]]")
}

func TestRenameDocumentKeepsStructure(t *testing.T) {
	g := testutil.NewTestGarden(t).
		WithFile("notes/fname-a.md", "self: [[fname-a|me]]\n").
		WithDoc("index", ":t::\n- [[fname-a]]\n- [[other]]\n\n![[notes/fname-a.md#top]] and fname-a in prose\n```\n[[fname-a]]\n```\n").
		WithDoc("other", "").
		Build()

	res, err := load(t, g).RenameDocument(context.Background(), "fname-a.md", "new-name", RenameOptions{})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if want := []string{"index", "new-name"}; !reflect.DeepEqual(res.Changed, want) {
		t.Errorf("Changed = %v, want %v", res.Changed, want)
	}
	g.AssertFileExists("notes/new-name.md")
	if got := g.ReadFile("notes/new-name.md"); got != "self: [[new-name|me]]\n" {
		t.Errorf("renamed document = %q", got)
	}
	g.AssertDoc("index", ":t::\n- [[new-name]]\n- [[other]]\n\n![[notes/new-name.md#top]] and fname-a in prose\n```\n[[fname-a]]\n```\n")
}

func TestRenameRegex(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"fname-a":  ":rel::[[fname-b]]\n[[fname-a]]",
		"fname-b":  "[[fname-a]] and [[fname-ab]]",
		"fname-ab": "",
		"other":    "[[fname-a]], [[fname-b]]",
	}).Build()

	res, err := load(t, g).RenameDocument(context.Background(), `^fname-(.)$`, "new-$1", RenameOptions{Regex: true})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	wantRenamed := []Rename{{Old: "fname-a", New: "new-a"}, {Old: "fname-b", New: "new-b"}}
	if !reflect.DeepEqual(res.Renamed, wantRenamed) {
		t.Errorf("Renamed = %+v, want %+v", res.Renamed, wantRenamed)
	}
	if want := []string{"new-a", "new-b", "other"}; !reflect.DeepEqual(res.Changed, want) {
		t.Errorf("Changed = %v, want %v", res.Changed, want)
	}
	g.AssertDoc("new-a", ":rel::[[new-b]]\n[[new-a]]")
	g.AssertDoc("new-b", "[[new-a]] and [[fname-ab]]")
	g.AssertDoc("other", "[[new-a]], [[new-b]]")
	g.AssertFileExists("fname-ab.md")
}

func TestRenameSwap(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"x-1": "one [[x-2]]",
		"x-2": "two [[x-1]]",
	}).Build()

	res, err := load(t, g).RenameDocument(context.Background(), `^x-(1|2)$`, "x-${1}${1}", RenameOptions{Regex: true})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("Failed = %+v", res.Failed)
	}
	g.AssertDoc("x-11", "one [[x-22]]")
	g.AssertDoc("x-22", "two [[x-11]]")

	g2 := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"p": "I am p, see [[q]]",
		"q": "I am q, see [[p]]",
	}).Build()
	res, err = load(t, g2).RenameDocument(context.Background(), `^(p|q)$`, "${1}", RenameOptions{Regex: true})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("identity regex error = %v, want ErrNotFound", err)
	}

	e := load(t, g2)
	plan := &Plan{Pairs: []Pair{
		pairFor(e.Corpus, "p", "q"),
		pairFor(e.Corpus, "q", "p"),
	}}
	if err := validate(e.Corpus, plan); err != nil {
		t.Fatalf("swap plan rejected: %v", err)
	}
	res = e.Apply(plan, false)
	if !res.OK() {
		t.Fatalf("Failed = %+v", res.Failed)
	}
	g2.AssertDoc("q", "I am p, see [[p]]")
	g2.AssertDoc("p", "I am q, see [[q]]")
	if n := len(g2.Snapshot()); n != 2 {
		t.Errorf("garden has %d documents after swap, want 2", n)
	}
}

func TestRenameOrderIndependent(t *testing.T) {
	docs := map[string]string{
		"fname-a": "[[fname-b]] [[fname-a]]",
		"fname-b": ":t::[[fname-a]]",
		"c":       "[[fname-a]] [[fname-b]]",
	}
	run := func(reverse bool) map[string]string {
		g := testutil.NewTestGarden(t).WithDocs(docs).Build()
		e := load(t, g)
		plan, err := PlanRename(e.Corpus, `^fname-(.)$`, "new-$1", true)
		if err != nil {
			t.Fatal(err)
		}
		if reverse {
			for i, j := 0, len(plan.Pairs)-1; i < j; i, j = i+1, j-1 {
				plan.Pairs[i], plan.Pairs[j] = plan.Pairs[j], plan.Pairs[i]
			}
		}
		if res := e.Apply(plan, false); !res.OK() {
			t.Fatalf("Failed = %+v", res.Failed)
		}
		return g.Snapshot()
	}
	forward, backward := run(false), run(true)
	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("results depend on order:\n%v\n%v", forward, backward)
	}
	if forward["new-a.md"] != "[[new-b]] [[new-a]]" {
		t.Errorf("new-a = %q", forward["new-a.md"])
	}
}

func TestRenameValidation(t *testing.T) {
	docs := map[string]string{
		"a":       "[[b]]",
		"b":       "",
		"fname-1": "",
		"fname-2": "",
	}
	tests := []struct {
		name     string
		selector string
		repl     string
		regex    bool
		want     error
	}{
		{"missing", "nope", "x", false, ErrNotFound},
		{"regex matches nothing", "^zzz", "x", true, ErrNotFound},
		{"existing id", "a", "b", false, ErrCollision},
		{"two renames to one id", `^fname-\d$`, "merged", true, ErrCollision},
		{"bad regex", "(", "x", true, ErrInvalidPattern},
		{"empty id", "a", "", false, ErrInvalidID},
		{"path separator", "a", "dir/a", false, ErrInvalidID},
		{"reference syntax", "a", "a]]", false, ErrInvalidID},
		{"markdown extension", "a", "b.MD", false, ErrInvalidID},
		{"markdown extension regex", "^a$", "b.md", true, ErrInvalidID},
		{"mixed case extension regex", "^a$", "c.Md", true, ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.NewTestGarden(t).WithDocs(docs).Build()
			before := g.Snapshot()
			_, err := load(t, g).RenameDocument(context.Background(), tt.selector, tt.repl, RenameOptions{Regex: tt.regex})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			g.AssertUnchanged(before)
		})
	}
}

func TestCollisionError(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"fname-1": "", "fname-2": "", "taken": "",
	}).Build()
	_, err := load(t, g).RenameDocument(context.Background(), `^fname-\d$`, "taken", RenameOptions{Regex: true})
	var ce *CollisionError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CollisionError", err)
	}
	want := []Collision{{New: "taken", Old: []string{"fname-1", "fname-2"}, Existing: true}}
	if !reflect.DeepEqual(ce.Collisions, want) {
		t.Errorf("Collisions = %+v, want %+v", ce.Collisions, want)
	}
	if !strings.Contains(ce.Error(), "already exists") {
		t.Errorf("Error() = %q", ce.Error())
	}
}

func TestRenameHiddenCollision(t *testing.T) {
	g := testutil.NewTestGarden(t).
		WithDoc("a", "").
		WithFile("b.md", "ignored document").
		Build()
	c, err := vault.Load(context.Background(), g.Path, &vault.Options{Ignore: []string{"b.md"}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = (&Engine{Corpus: c}).RenameDocument(context.Background(), "a", "b", RenameOptions{})
	if !errors.Is(err, ErrCollision) {
		t.Fatalf("error = %v, want ErrCollision", err)
	}
	g.AssertDoc("b", "ignored document")
}

func TestRenameDuplicateIDs(t *testing.T) {
	g := testutil.NewTestGarden(t).
		WithFile("x/dup.md", "").
		WithFile("y/dup.md", "").
		WithDoc("a", "").
		Build()
	_, err := load(t, g).RenameDocument(context.Background(), "a", "z", RenameOptions{})
	if !errors.Is(err, ErrDuplicateIDs) {
		t.Fatalf("error = %v, want ErrDuplicateIDs", err)
	}
	g.AssertFileExists("a.md")
}

func TestRenameDryRun(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{"a": "[[b]]", "b": ""}).Build()
	before := g.Snapshot()

	res, err := load(t, g).RenameDocument(context.Background(), "b", "c", RenameOptions{DryRun: true})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if !res.DryRun || len(res.Renamed) != 1 || !reflect.DeepEqual(res.Changed, []string{"a"}) {
		t.Errorf("dry run result = %+v", res)
	}
	g.AssertUnchanged(before)
}

func TestRenameSameID(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDoc("a", "").Build()
	res, err := load(t, g).RenameDocument(context.Background(), "a", "a", RenameOptions{})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if len(res.Renamed) != 0 || len(res.Messages) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestRenameCancelledBeforeMutation(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{"a": "[[b]]", "b": ""}).Build()
	before := g.Snapshot()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := load(t, g).RenameDocument(ctx, "b", "c", RenameOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	g.AssertUnchanged(before)
}

// failingFS fails operations touching paths with the given base names.
type failingFS struct {
	writes  map[string]bool
	renames map[string]bool
}

func (f failingFS) Rename(oldPath, newPath string) error {
	if f.renames[filepath.Base(oldPath)] {
		return errors.New("rename refused")
	}
	return OS.Rename(oldPath, newPath)
}

func (f failingFS) WriteFile(path string, data []byte) error {
	if f.writes[filepath.Base(path)] {
		return errors.New("disk full")
	}
	return OS.WriteFile(path, data)
}

func TestRenamePartialWriteFailure(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"a": "[[b]]",
		"b": "",
		"d": "[[b]]",
	}).Build()
	e := load(t, g)
	e.FS = failingFS{writes: map[string]bool{"a.md": true}}

	res, err := e.RenameDocument(context.Background(), "b", "c", RenameOptions{})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if res.OK() {
		t.Fatal("expected a partial failure")
	}
	if len(res.Failed) != 1 || res.Failed[0].ID != "a" || res.Failed[0].Op != "write" {
		t.Errorf("Failed = %+v", res.Failed)
	}
	if !reflect.DeepEqual(res.Changed, []string{"d"}) {
		t.Errorf("Changed = %v, want [d]", res.Changed)
	}
	g.AssertDoc("d", "[[c]]")
	g.AssertDoc("a", "[[b]]")
}

func TestRenamePhysicalFailure(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"fname-a": "", "fname-b": "", "x": "[[fname-a]] [[fname-b]]",
	}).Build()
	e := load(t, g)
	e.FS = failingFS{renames: map[string]bool{"fname-b.md": true}}

	res, err := e.RenameDocument(context.Background(), `^fname-(.)$`, "n-$1", RenameOptions{Regex: true})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if want := []Rename{{Old: "fname-a", New: "n-a"}}; !reflect.DeepEqual(res.Renamed, want) {
		t.Errorf("Renamed = %+v, want %+v", res.Renamed, want)
	}
	if len(res.Failed) != 1 || res.Failed[0].Op != "rename" {
		t.Errorf("Failed = %+v", res.Failed)
	}
	// References to the document that kept its name are left alone.
	g.AssertDoc("x", "[[n-a]] [[fname-b]]")
	g.AssertFileExists("fname-b.md")
}

func TestRetypeReference(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDocs(map[string]string{
		"a": ":t::[[b]]",
		"b": ":t::[[a]]",
	}).Build()

	res, err := load(t, g).RetypeReference(context.Background(), "t", "u", wikirefs.KindAttr, RetypeOptions{})
	if err != nil {
		t.Fatalf("RetypeReference() error = %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(res.Changed, want) {
		t.Errorf("Changed = %v, want %v", res.Changed, want)
	}
	g.AssertDoc("a", ":u::[[b]]")
	g.AssertDoc("b", ":u::[[a]]")

	again, err := load(t, g).RetypeReference(context.Background(), "t", "u", wikirefs.KindAttr, RetypeOptions{})
	if err != nil {
		t.Fatalf("second RetypeReference() error = %v", err)
	}
	if len(again.Changed) != 0 {
		t.Errorf("second run Changed = %v, want none", again.Changed)
	}
	if len(again.Messages) != 1 || again.Messages[0].Level != LevelInfo {
		t.Errorf("second run Messages = %+v", again.Messages)
	}
}

func TestRetypeScopes(t *testing.T) {
	content := ":t::[[x]]\n:t::[[x]] inline\n"
	tests := []struct {
		kind string
		want string
	}{
		{"attrtype", ":u::[[x]]\n:t::[[x]] inline\n"},
		{"linktype", ":t::[[x]]\n:u::[[x]] inline\n"},
		{"", ":u::[[x]]\n:u::[[x]] inline\n"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			g := testutil.NewTestGarden(t).WithDoc("doc", content).WithDoc("x", "").Build()
			scope, err := ParseScope(tt.kind)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := load(t, g).RetypeReference(context.Background(), "t", "u", scope, RetypeOptions{}); err != nil {
				t.Fatal(err)
			}
			g.AssertDoc("doc", tt.want)
		})
	}
}

func TestRetypeErrors(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDoc("a", ":t::[[b]]").Build()
	e := load(t, g)
	if _, err := e.RetypeReference(context.Background(), "t", "bad type", wikirefs.KindRef, RetypeOptions{}); !errors.Is(err, ErrInvalidType) {
		t.Errorf("error = %v, want ErrInvalidType", err)
	}
	if _, err := e.RetypeReference(context.Background(), "t", "u", wikirefs.KindEmbed, RetypeOptions{}); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("error = %v, want ErrInvalidScope", err)
	}
	if _, err := ParseScope("embed"); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("ParseScope(embed) error = %v", err)
	}
	g.AssertDoc("a", ":t::[[b]]")
}

func TestRetypeDryRun(t *testing.T) {
	g := testutil.NewTestGarden(t).WithDoc("a", ":t::[[b]]").Build()
	before := g.Snapshot()
	res, err := load(t, g).RetypeReference(context.Background(), "t", "u", wikirefs.KindRef, RetypeOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Changed, []string{"a"}) {
		t.Errorf("Changed = %v", res.Changed)
	}
	g.AssertUnchanged(before)
}
