package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/chino"
)

func (a *app) consentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consents",
		Short: "Inspect consent records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "history <consent_id>",
		Short: "List every version of a consent, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := a.client.Consents().History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), historyView(versions))
		},
	})
	return cmd
}

func historyView(versions []chino.Consent) view {
	rows := make([][]string, 0, len(versions))
	for _, c := range versions {
		authorized := 0
		for _, p := range c.Purposes {
			if p.Authorized {
				authorized++
			}
		}
		rows = append(rows, []string{
			c.Details.PolicyVersion,
			stamp(c.InsertedDate.Time),
			stamp(c.WithdrawnDate.Time),
			fmt.Sprintf("%d/%d", authorized, len(c.Purposes)),
		})
	}
	raw := versions
	if raw == nil {
		raw = []chino.Consent{}
	}
	return view{
		header: []string{"POLICY VERSION", "INSERTED", "WITHDRAWN", "AUTHORIZED"},
		rows:   rows,
		footer: fmt.Sprintf("%d versions", len(versions)),
		raw:    raw,
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
