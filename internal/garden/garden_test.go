package garden

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aidanlsb/tendr/internal/cascade"
	"github.com/aidanlsb/tendr/internal/config"
	"github.com/aidanlsb/tendr/internal/rels"
	"github.com/aidanlsb/tendr/internal/testutil"
)

const doctypes = `
[index]
prefix = "i."

[entry]
prefix = ":date"

[note]
path = "notes"
`

func openGarden(t *testing.T, tg *testutil.TestGarden, cfg *config.Config) *Garden {
	t.Helper()
	g, err := Open(context.Background(), tg.Path, &Options{Config: cfg})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func itemIDs(l *rels.List) []string {
	out := []string{}
	if l == nil {
		return out
	}
	for _, it := range l.Items {
		out = append(out, it.ID)
	}
	return out
}

func TestResolveDoctype(t *testing.T) {
	tg := testutil.NewTestGarden(t).
		WithDoctypes(doctypes).
		WithDocs(testutil.BonsaiGarden()).
		WithDoc("2024-03-01", "").
		WithFile("notes/idea.md", "").
		WithDoc("tagged", "---\nnote: true\n---\n").
		WithDoc("broken", "---\n: [\n---\n").
		Build()
	g := openGarden(t, tg, nil)

	tests := []struct {
		id   string
		want string
	}{
		{"i.bonsai", "index"},
		{"2024-03-01", "entry"},
		{"idea", "note"},
		{"idea.md", "note"},
		{"tagged", "note"},
		{"broken", "default"},
		{"fname-a", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := g.ResolveDoctype(tt.id)
			if err != nil {
				t.Fatalf("ResolveDoctype() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveDoctype(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}

	if _, err := g.ResolveDoctype("missing"); !errors.Is(err, cascade.ErrNotFound) {
		t.Errorf("missing doc error = %v, want ErrNotFound", err)
	}
}

func TestOpenInvalidRules(t *testing.T) {
	tg := testutil.NewTestGarden(t).
		WithDoctypes("[broken]\nprefix = 3\n").
		Build()
	if _, err := Open(context.Background(), tg.Path, nil); !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("error = %v, want ErrInvalidRules", err)
	}
}

func TestQueryRelationshipsFamily(t *testing.T) {
	tg := testutil.NewTestGarden(t).
		WithDoctypes(doctypes).
		WithDocs(testutil.BonsaiGarden()).
		Build()
	g := openGarden(t, tg, nil)

	res, err := g.QueryRelationships(context.Background(), "fname-b", "fam")
	if err != nil {
		t.Fatalf("QueryRelationships() error = %v", err)
	}
	if got := itemIDs(res.Fam.Ancestors); !reflect.DeepEqual(got, []string{"i.bonsai", "fname-a"}) {
		t.Errorf("ancestors = %v", got)
	}
	if res.Fore != nil || res.Back != nil {
		t.Error("fam query returned reference groups")
	}

	res, err = g.QueryRelationships(context.Background(), "fname-a", "child")
	if err != nil {
		t.Fatal(err)
	}
	if got := itemIDs(res.Fam.Children); !reflect.DeepEqual(got, []string{"fname-b"}) {
		t.Errorf("children = %v", got)
	}
}

func TestQueryRelationshipsWithoutTree(t *testing.T) {
	docs := testutil.BonsaiGarden()
	delete(docs, "i.bonsai")
	tg := testutil.NewTestGarden(t).WithDocs(docs).Build()
	g := openGarden(t, tg, nil)

	res, err := g.QueryRelationships(context.Background(), "fname-a", "rel")
	if err != nil {
		t.Fatalf("QueryRelationships() error = %v", err)
	}
	if res.Fam == nil || res.Fam.Error == "" {
		t.Errorf("Fam = %+v, want tree error", res.Fam)
	}
	if got := itemIDs(res.Back.Links); !reflect.DeepEqual(got, []string{"fname-b"}) {
		t.Errorf("back links = %v", got)
	}
}

func TestQueryRelationshipsUnknownKind(t *testing.T) {
	tg := testutil.NewTestGarden(t).WithDocs(testutil.BonsaiGarden()).Build()
	g := openGarden(t, tg, nil)
	if _, err := g.QueryRelationships(context.Background(), "fname-a", "sideways"); !errors.Is(err, rels.ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestIndexGlob(t *testing.T) {
	cfg := config.Default()
	cfg.Garden.IndexGlob = "index/**"
	tg := testutil.NewTestGarden(t).
		WithDoc("i.bonsai", "- [[topics]]\n").
		WithFile("index/topics.md", "- [[leaf]]\n").
		WithDoc("leaf", "").
		Build()
	g := openGarden(t, tg, cfg)

	tree, err := g.Tree(context.Background())
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	n, ok := tree.Node("leaf")
	if !ok {
		t.Fatal("leaf not in tree")
	}
	if !reflect.DeepEqual(n.Ancestors, []string{"i.bonsai", "topics"}) {
		t.Errorf("leaf ancestors = %v", n.Ancestors)
	}
}

func TestRenameAndRetype(t *testing.T) {
	tg := testutil.NewTestGarden(t).WithDocs(testutil.BonsaiGarden()).Build()
	g := openGarden(t, tg, nil)

	res, err := g.RenameDocument(context.Background(), "fname-b", "fname-z", cascade.RenameOptions{})
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("rename failed: %+v", res.Failed)
	}
	tg.AssertFileExists("fname-z.md")
	tg.AssertFileNotExists("fname-b.md")
	tg.AssertFileContains("fname-a.md", ":reftype::[[fname-z]]")

	if _, err := g.RetypeReference(context.Background(), "a", "b", "sideways", cascade.RetypeOptions{}); !errors.Is(err, cascade.ErrInvalidScope) {
		t.Errorf("error = %v, want ErrInvalidScope", err)
	}
}

func TestRetypeReference(t *testing.T) {
	tg := testutil.NewTestGarden(t).WithDocs(testutil.BonsaiGarden()).Build()
	g := openGarden(t, tg, nil)

	res, err := g.RetypeReference(context.Background(), "attrtype", "kind", "attrtype", cascade.RetypeOptions{})
	if err != nil {
		t.Fatalf("RetypeReference() error = %v", err)
	}
	if want := []string{"fname-a", "fname-c"}; !reflect.DeepEqual(res.Changed, want) {
		t.Errorf("Changed = %v, want %v", res.Changed, want)
	}
	tg.AssertFileContains("fname-c.md", ":kind::[[fname-a]]")
}

func TestFind(t *testing.T) {
	tg := testutil.NewTestGarden(t).WithDocs(testutil.BonsaiGarden()).Build()
	g := openGarden(t, tg, nil)

	docs, err := g.Find("fname-[ab]", true)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Find() = %d docs, want 2", len(docs))
	}
	docs, err = g.Find("fname-a.md", false)
	if err != nil || len(docs) != 1 {
		t.Errorf("literal Find() = %v, %v", docs, err)
	}
}

func TestScanCache(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = true
	tg := testutil.NewTestGarden(t).WithDocs(testutil.BonsaiGarden()).Build()

	for i := 0; i < 2; i++ {
		g, err := Open(context.Background(), tg.Path, &Options{Config: cfg})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if g.cache == nil {
			t.Fatal("cache not opened")
		}
		res, err := g.QueryRelationships(context.Background(), "fname-a", "backlink")
		if err != nil {
			t.Fatal(err)
		}
		if got := itemIDs(res.Back.Links); !reflect.DeepEqual(got, []string{"fname-b", "i.bonsai"}) {
			t.Errorf("run %d back links = %v", i, got)
		}
		if i == 1 {
			stats, err := g.cache.Stats()
			if err != nil {
				t.Fatal(err)
			}
			if stats.Hits == 0 {
				t.Errorf("second run had no cache hits: %+v", stats)
			}
		}
		if err := g.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
	tg.AssertFileExists(".tendr/cache.db")
}
