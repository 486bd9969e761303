//go:build integration

package cli_test

import (
	"path/filepath"
	"testing"

	"github.com/aidanlsb/tendr/internal/testutil"
)

const doctypes = `
[index]
prefix = "i."

[entry]
prefix = ":date"
`

func bonsai(t *testing.T) *testutil.TestGarden {
	t.Helper()
	return testutil.NewTestGarden(t).
		WithDoctypes(doctypes).
		WithDocs(testutil.BonsaiGarden()).
		Build()
}

func TestIntegration_Status(t *testing.T) {
	g := bonsai(t)

	result := g.RunCLI("status", "fname-a")
	result.MustSucceed(t)
	if result.DataString("doctype") != "default" {
		t.Errorf("doctype = %q", result.DataString("doctype"))
	}
	fam := result.DataMap("fam")
	if fam == nil {
		t.Fatalf("missing fam section: %s", result.RawJSON)
	}

	back := result.DataMap("back")
	links, _ := back["links"].(map[string]interface{})
	items, _ := links["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("back links = %v, want fname-b and i.bonsai", items)
	}

	result = g.RunCLI("ls", "fname-a", "--kind", "foreembed")
	result.MustSucceed(t)
	if result.DataMap("back") != nil || result.DataMap("fam") != nil {
		t.Errorf("foreembed returned other sections: %s", result.RawJSON)
	}
}

func TestIntegration_StatusMissingDocument(t *testing.T) {
	g := bonsai(t)

	result := g.RunCLI("st", "no-doc", "--kind", "back")
	result.MustSucceed(t)
	result.AssertHasWarning(t, "NOT_FOUND")
	if found, _ := result.Data["found"].(bool); found {
		t.Error("found = true for missing document")
	}
}

func TestIntegration_StatusBadKind(t *testing.T) {
	g := bonsai(t)
	result := g.RunCLI("status", "fname-a", "--kind", "sideways")
	result.MustFail(t, "INVALID_INPUT")
	if result.ExitCode == 0 {
		t.Error("expected non-zero exit code")
	}
}

func TestIntegration_Rename(t *testing.T) {
	g := bonsai(t)

	result := g.RunCLI("rename", "fname-b", "fname-z", "--yes")
	result.MustSucceed(t)
	g.AssertFileExists("fname-z.md")
	g.AssertFileNotExists("fname-b.md")
	g.AssertFileContains("fname-a.md", ":reftype::[[fname-z]]")
	g.AssertFileContains("i.bonsai.md", "  - [[fname-z]]")
	result.AssertResultCount(t, "renamed", 1)
	g.AssertFileNotContains("fname-a.md", "[[fname-b]]")
}

func TestIntegration_RenameRequiresConfirmation(t *testing.T) {
	g := bonsai(t)
	before := g.Snapshot()

	g.RunCLI("rename", "fname-b", "fname-z").MustFail(t, "CONFIRMATION_REQUIRED")
	g.AssertUnchanged(before)
}

func TestIntegration_RenameDryRun(t *testing.T) {
	g := bonsai(t)
	before := g.Snapshot()

	result := g.RunCLI("rn", "^fname-(.)$", "new-$1", "--regex", "--dry-run")
	result.MustSucceed(t)
	result.AssertResultCount(t, "renamed", 5)
	if dry, _ := result.Data["dry_run"].(bool); !dry {
		t.Error("dry_run = false")
	}
	g.AssertUnchanged(before)
}

func TestIntegration_RenameCollision(t *testing.T) {
	g := bonsai(t)
	before := g.Snapshot()

	result := g.RunCLI("rename", "fname-b", "fname-c", "--yes")
	result.MustFail(t, "ID_COLLISION")
	if result.Error.Details["collisions"] == nil {
		t.Errorf("missing collision details: %s", result.RawJSON)
	}
	g.AssertUnchanged(before)
}

func TestIntegration_RenameNotFound(t *testing.T) {
	g := bonsai(t)
	g.RunCLI("rename", "nope", "other", "--yes").MustFail(t, "FILE_NOT_FOUND")
}

func TestIntegration_Retype(t *testing.T) {
	g := bonsai(t)

	result := g.RunCLI("retype", "attrtype", "kind", "--kind", "attr", "--yes")
	result.MustSucceed(t)
	result.AssertResultCount(t, "changed", 2)
	g.AssertFileContains("fname-c.md", ":kind::[[fname-a]]")

	result = g.RunCLI("rt", "attrtype", "kind", "--yes")
	result.MustSucceed(t)
	result.AssertHasWarning(t, "NOTHING_TO_DO")
}

func TestIntegration_Doctype(t *testing.T) {
	g := testutil.NewTestGarden(t).
		WithDoctypes(doctypes).
		WithDoc("i.bonsai", "").
		WithDoc("2024-01-02", "").
		Build()

	result := g.RunCLI("doctype", "i.bonsai")
	result.MustSucceed(t)
	if result.DataString("doctype") != "index" {
		t.Errorf("doctype = %q, want index", result.DataString("doctype"))
	}

	result = g.RunCLI("doctype")
	result.MustSucceed(t)
	result.AssertResultCount(t, "items", 2)
	if names := result.DataList("doctypes"); len(names) == 0 || names[len(names)-1] != "default" {
		t.Errorf("doctypes = %v, want default last", names)
	}

	g.RunCLI("doctype", "missing").MustFail(t, "FILE_NOT_FOUND")
}

func TestIntegration_Find(t *testing.T) {
	g := bonsai(t)

	result := g.RunCLI("find", "^fname-[abc]$", "--regex")
	result.MustSucceed(t)
	result.AssertResultCount(t, "items", 3)

	g.RunCLI("find", "(", "--regex").MustFail(t, "INVALID_INPUT")
	g.RunCLI("find", "nothing-here").MustFail(t, "FILE_NOT_FOUND")
}

func TestIntegration_Tree(t *testing.T) {
	g := bonsai(t)

	result := g.RunCLI("tree")
	result.MustSucceed(t)
	if result.DataString("root") != "i.bonsai" {
		t.Errorf("root = %q", result.DataString("root"))
	}
	result.AssertResultCount(t, "nodes", 4)

	g.RunCLI("tree", "--root", "i.missing").MustFail(t, "FILE_NOT_FOUND")
}

func TestIntegration_TreeDuplicate(t *testing.T) {
	g := testutil.NewTestGarden(t).
		WithDoctypes(doctypes).
		WithDoc("i.bonsai", "- [[a]]\n- [[a]]\n").
		Build()
	g.RunCLI("tree").MustFail(t, "TREE_INVALID")
}

func TestIntegration_InvalidConfig(t *testing.T) {
	g := testutil.NewTestGarden(t).
		WithConfig("[garden]\nroots = \"x\"\n").
		Build()
	g.RunCLI("status", "x").MustFail(t, "CONFIG_INVALID")
}

func TestIntegration_InvalidDoctypeRules(t *testing.T) {
	tests := []struct {
		name  string
		rules string
	}{
		{"malformed toml", "[index\nprefix = \"i.\"\n"},
		{"wrong value type", "[index]\nprefix = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.NewTestGarden(t).
				WithDoctypes(tt.rules).
				WithDocs(testutil.BonsaiGarden()).
				Build()
			g.RunCLI("status", "fname-a").MustFail(t, "CONFIG_INVALID")
			g.RunCLI("doctype").MustFail(t, "CONFIG_INVALID")
		})
	}
}

func TestIntegration_MissingGarden(t *testing.T) {
	g := testutil.NewTestGarden(t).Build()
	result := g.RunCLI("--garden", filepath.Join(g.Path, "nope"), "status", "x")
	result.MustFail(t, "GARDEN_NOT_FOUND")
}

func TestIntegration_Init(t *testing.T) {
	g := testutil.NewTestGarden(t).Build()

	result := g.RunCLI("init")
	result.MustSucceed(t)
	result.AssertResultCount(t, "created", 2)
	g.AssertFileExists("config.toml")
	g.AssertFileExists("t.doc.toml")

	result = g.RunCLI("init")
	result.MustSucceed(t)
	result.AssertResultCount(t, "created", 0)
}
