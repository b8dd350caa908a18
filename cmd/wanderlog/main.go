package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wanderlog/internal/app"
	"wanderlog/internal/apperr"
	"wanderlog/pkg/graceful"
)

// Exit codes reported to the shell.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
)

func main() {
	ctx, cancel := graceful.Context(context.Background(), nil)
	defer cancel()

	rt := &runtime{}
	err := newRootCmd(rt).ExecuteContext(ctx)
	rt.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch kind, _ := apperr.KindOf(err); kind {
	case apperr.KindValidation, apperr.KindInvalidInput:
		return exitValidation
	case apperr.KindNotFound:
		return exitNotFound
	}
	if err == nil {
		return exitOK
	}
	return exitFailure
}

// runtime is shared by every subcommand; it is built lazily so that --help
// never touches the data directory.
type runtime struct {
	app *app.App
}

func (r *runtime) load() (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	a, err := app.New()
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

// close flushes the logger of a loaded app. It runs whether or not the
// command succeeded.
func (r *runtime) close() {
	if r.app != nil {
		r.app.Close()
		r.app = nil
	}
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "wanderlog",
		Short:         "Import location history and curate visited places and trips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newIngestCmd(rt),
		newAddCmd(rt),
		newArchiveCmd(rt, true),
		newArchiveCmd(rt, false),
		newAliasCmd(rt),
		newDescribeCmd(rt),
		newDeleteCmd(rt),
		newListCmd(rt),
		newBackupCmd(rt),
		newResetCmd(rt),
		newExportPGCmd(rt),
		newVisitsCmd(),
		newTripCmd(rt),
	)
	return root
}

// printJSON writes v to stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errNoArgs = errors.New("at least one place key is required")
