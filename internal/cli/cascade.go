package cli

import (
	"fmt"

	"github.com/aidanlsb/tendr/internal/cascade"
	"github.com/aidanlsb/tendr/internal/ui"
)

// cascadeRun carries the preview and apply steps of a mutating command.
type cascadeRun struct {
	yes    bool
	dryRun bool
	verb   string
	// args is the command line, used to suggest a rerun with --yes.
	args    []string
	run     func(dryRun bool) (*cascade.Result, error)
	confirm func(preview *cascade.Result) string
}

// execute previews the cascade, asks for confirmation unless --yes or
// --dry-run is set, then applies it and reports the result.
func (c cascadeRun) execute() error {
	if c.dryRun || !c.yes {
		preview, err := c.run(true)
		if err != nil {
			return handleDomainError(err)
		}
		if c.dryRun || nothingToDo(preview) {
			return reportCascade(preview)
		}
		if !isJSONOutput() {
			printCascade(preview)
			fmt.Println()
		}
		if err := confirmCascade(c.yes, c.confirm(preview), c.args); err != nil {
			return err
		}
	}

	spinner := ui.NewSpinner(c.verb + "...")
	if !isJSONOutput() {
		spinner.Start()
	}
	res, err := c.run(false)
	spinner.Stop()
	if err != nil {
		return handleDomainError(err)
	}
	return reportCascade(res)
}

func nothingToDo(res *cascade.Result) bool {
	return len(res.Renamed) == 0 && len(res.Changed) == 0 && len(res.Failed) == 0
}

func cascadeWarnings(res *cascade.Result) []Warning {
	var warnings []Warning
	for _, m := range res.Messages {
		code := WarnNothingToDo
		if m.Level == cascade.LevelWarn {
			code = WarnCascadeIssue
		} else if !nothingToDo(res) {
			continue
		}
		warnings = append(warnings, Warning{Code: code, Message: m.Text})
	}
	return warnings
}

// reportCascade prints res and turns per-file failures into a
// PARTIAL_FAILURE error so the process exits non-zero.
func reportCascade(res *cascade.Result) error {
	if isJSONOutput() {
		if !res.OK() {
			outputError(ErrPartialFailure,
				fmt.Sprintf("%d file operation(s) failed", len(res.Failed)),
				res, "Fix the listed files and re-run; completed changes are kept")
			return errReported
		}
		outputSuccessWithWarnings(res, cascadeWarnings(res), &Meta{Count: len(res.Changed)})
		return nil
	}

	printCascade(res)
	if !res.OK() {
		return fmt.Errorf("%d file operation(s) failed", len(res.Failed))
	}
	return nil
}

func printCascade(res *cascade.Result) {
	renamed, changed := "Renamed", "Updated"
	if res.DryRun {
		renamed, changed = "Would rename", "Would update"
	}
	for _, r := range res.Renamed {
		fmt.Println(ui.Successf("%s %s -> %s", renamed, ui.FilePath(r.Old), ui.FilePath(r.New)))
	}
	if len(res.Changed) > 0 {
		fmt.Printf("%s %s\n", ui.Success(changed), ui.Count(len(res.Changed), "document", "documents"))
		for _, id := range res.Changed {
			fmt.Printf("  %s\n", ui.FilePath(id))
		}
	}
	for _, f := range res.Failed {
		fmt.Println(ui.Errorf("%s %s (%s): %s", f.Op, f.ID, f.Path, f.Error))
	}
	for _, m := range res.Messages {
		if m.Level == cascade.LevelWarn {
			fmt.Println(ui.Warning(m.Text))
		} else {
			fmt.Println(ui.Info(m.Text))
		}
	}
}
