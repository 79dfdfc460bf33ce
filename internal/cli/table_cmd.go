package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/txn2/dataexec/pkg/frame"
	"github.com/txn2/dataexec/pkg/table"
)

func (a *app) tables(ctx context.Context) (*table.Exec, error) {
	p, err := a.open()
	if err != nil {
		return nil, err
	}
	return p.Tables(ctx)
}

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exec, err := a.tables(cmd.Context())
			if err != nil {
				return err
			}
			names, err := exec.TableNames(cmd.Context())
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), names)
			}
			rows := make([][]string, len(names))
			for i, n := range names {
				rows[i] = []string{n}
			}
			return printTable(cmd.OutOrStdout(), []string{"table"}, rows)
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	var (
		columns []string
		where   []string
		orderBy []string
		limit   uint64
		convert frame.ConvertSpec
		dates   []string
	)

	cmd := &cobra.Command{
		Use:   "read <table>",
		Short: "Read rows from a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseWhere(where)
			if err != nil {
				return err
			}
			convert.DateTime, err = parseDateTimes(dates)
			if err != nil {
				return err
			}
			exec, err := a.tables(cmd.Context())
			if err != nil {
				return err
			}
			f, err := exec.GetDF(cmd.Context(), args[0], table.ReadOptions{
				Columns: columns,
				Where:   filters,
				OrderBy: orderBy,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			f, err = frame.ConvertDTypes(f, convert)
			if err != nil {
				return err
			}
			return a.printFrame(cmd, f)
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to read (all when empty)")
	cmd.Flags().StringArrayVar(&where, "where", nil, "Equality filter as column=value, repeatable")
	cmd.Flags().StringSliceVar(&orderBy, "order-by", nil, "Columns to order by")
	cmd.Flags().Uint64Var(&limit, "limit", 0, "Maximum rows to read (0 for all)")
	cmd.Flags().StringSliceVar(&convert.String, "as-string", nil, "Columns to convert to strings")
	cmd.Flags().StringSliceVar(&convert.Int, "as-int", nil, "Columns to convert to integers")
	cmd.Flags().StringSliceVar(&convert.Float, "as-float", nil, "Columns to convert to floats")
	cmd.Flags().StringArrayVar(&dates, "as-datetime", nil, "Column to parse as column=format (strftime or Go layout), repeatable")
	return cmd
}

// parseWhere turns column=value pairs into an equality filter. Repeating a
// column matches any of its values.
func parseWhere(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := map[string][]string{}
	for _, pair := range pairs {
		col, val, ok := strings.Cut(pair, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --where %q: want column=value", pair)
		}
		values[col] = append(values[col], val)
	}

	filters := make(map[string]any, len(values))
	for col, vals := range values {
		if len(vals) == 1 {
			filters[col] = vals[0]
			continue
		}
		filters[col] = vals
	}
	return filters, nil
}

// parseDateTimes turns column=format pairs into a datetime conversion map.
func parseDateTimes(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		col, format, ok := strings.Cut(pair, "=")
		if !ok || col == "" || format == "" {
			return nil, fmt.Errorf("invalid --as-datetime %q: want column=format", pair)
		}
		out[col] = format
	}
	return out, nil
}

func (a *app) printFrame(cmd *cobra.Command, f *frame.Frame) error {
	cols := f.Columns()
	if a.output == outputJSON {
		records := make([]map[string]any, f.Len())
		for i := range records {
			row := f.Row(i)
			rec := make(map[string]any, len(cols))
			for j, c := range cols {
				rec[c] = row[j]
			}
			records[i] = rec
		}
		return printJSON(cmd.OutOrStdout(), records)
	}

	rows := make([][]string, f.Len())
	for i := range rows {
		row := f.Row(i)
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = formatValue(v)
		}
	}
	return printTable(cmd.OutOrStdout(), cols, rows)
}
