package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adamavenir/tangent/internal/api"
	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	switch {
	case api.IsTransient(err):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: the server did not answer. Check --server or TANGENT_SERVER_URL.")
	case isSchemaError(err):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: the local state database looks out of date. Remove tangent.db from the data directory.")
	}

	return err
}

// isSchemaError checks if an error is a SQLite schema mismatch.
func isSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "has no column")
}
