package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chino/internal/logger"
)

func (a *app) documentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Short:   "Manage documents",
		Aliases: []string{"docs"},
	}
	cmd.AddCommand(a.deleteAllCommand())
	return cmd
}

func (a *app) deleteAllCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-all <schema_id>",
		Short: "Permanently delete every document of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete documents of schema %s without --yes", args[0])
			}
			n, err := a.client.Documents().DeleteAll(cmd.Context(), args[0])
			logger.From(cmd.Context()).Info("delete-all finished",
				zap.String("schema_id", args[0]), zap.Int("deleted", n), zap.Error(err))
			if err != nil {
				return fmt.Errorf("deleted %d documents before failing: %w", n, err)
			}
			return a.render(cmd.OutOrStdout(), view{
				footer: "deleted " + strconv.Itoa(n) + " documents",
				raw:    map[string]any{"schema_id": args[0], "deleted": n},
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}
