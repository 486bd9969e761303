package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/tendr/internal/cascade"
	"github.com/aidanlsb/tendr/internal/config"
	"github.com/aidanlsb/tendr/internal/garden"
	"github.com/aidanlsb/tendr/internal/rels"
	"github.com/aidanlsb/tendr/internal/vault"
)

// openGarden loads the resolved garden for the running command. The caller
// must Close it.
func openGarden(cmd *cobra.Command) (*garden.Garden, error) {
	g, err := garden.Open(cmd.Context(), getGardenPath(), &garden.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		if errors.Is(err, garden.ErrInvalidRules) {
			return nil, handleError(ErrConfigInvalid, err, "Fix the doctype rule file named by [garden] doctypes")
		}
		return nil, handleError(ErrGardenNotFound, err, "")
	}
	return g, nil
}

func closeGarden(g *garden.Garden) {
	if err := g.Close(); err != nil {
		logger.Warn("failed to close garden", "error", err)
	}
}

// errorCode maps domain errors onto stable CLI codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, cascade.ErrNotFound):
		return ErrFileNotFound
	case errors.Is(err, cascade.ErrCollision):
		return ErrIDCollision
	case errors.Is(err, cascade.ErrDuplicateIDs):
		return ErrDuplicateID
	case errors.Is(err, cascade.ErrInvalidID),
		errors.Is(err, cascade.ErrInvalidPattern),
		errors.Is(err, cascade.ErrInvalidType),
		errors.Is(err, cascade.ErrInvalidScope),
		errors.Is(err, vault.ErrInvalidPattern),
		errors.Is(err, rels.ErrUnknownKind):
		return ErrInvalidInput
	}
	return ErrInternal
}

// handleDomainError reports err with its mapped code and, for collisions and
// duplicate ids, the offending documents as details.
func handleDomainError(err error) error {
	var collision *cascade.CollisionError
	if errors.As(err, &collision) {
		return handleErrorWithDetails(ErrIDCollision, err,
			"Choose a replacement that does not clash with existing documents",
			map[string]interface{}{"collisions": collision.Collisions})
	}
	var dup *vault.DuplicateIDError
	if errors.As(err, &dup) {
		return handleErrorWithDetails(ErrDuplicateID, err,
			"Rename one of the duplicated files by hand first",
			map[string]interface{}{"paths": dup.Paths})
	}
	suggestion := ""
	switch errorCode(err) {
	case ErrFileNotFound:
		suggestion = "Run 'tendr find <pattern> --regex' to look for it"
	case ErrDuplicateID:
		suggestion = "Rename one of the duplicated files by hand first"
	}
	return handleError(errorCode(err), err, suggestion)
}

// enumValue is a pflag.Value restricted to a fixed set of lower-case names.
type enumValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(def string, allowed []string) *enumValue {
	return &enumValue{value: def, allowed: allowed}
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range e.allowed {
		if s == a {
			e.value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(e.allowed, ", "))
}

func (e *enumValue) Type() string { return "kind" }

func (e *enumValue) complete(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return e.allowed, cobra.ShellCompDirectiveNoFileComp
}

// completeDocIDs completes document ids of the resolved garden.
func completeDocIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	root := gardenPathFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if root, err = config.FindRoot(wd); err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	}
	c, err := vault.Load(context.Background(), root, nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, id := range c.IDs() {
		if strings.HasPrefix(id, toComplete) {
			out = append(out, id)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
