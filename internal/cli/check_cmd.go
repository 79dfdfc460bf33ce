package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the database and object store are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.open()
			if err != nil {
				return err
			}
			report := p.Check(cmd.Context())

			if a.output == outputJSON {
				err = printJSON(cmd.OutOrStdout(), report)
			} else {
				rows := make([][]string, len(report.Statuses))
				for i, s := range report.Statuses {
					rows[i] = []string{s.Name, s.State, s.Elapsed.String(), s.Error}
				}
				err = printTable(cmd.OutOrStdout(), []string{"service", "state", "elapsed", "error"}, rows)
			}
			if err != nil {
				return err
			}
			if !report.Healthy() {
				return fmt.Errorf("unavailable: %s", strings.Join(report.Failed(), ", "))
			}
			return nil
		},
	}
}
