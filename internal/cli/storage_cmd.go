package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/txn2/dataexec/pkg/storage"
)

func (a *app) storage(ctx context.Context) (*storage.Exec, error) {
	p, err := a.open()
	if err != nil {
		return nil, err
	}
	return p.Storage(ctx)
}

func newBucketsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "List buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exec, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			buckets, err := exec.ListBuckets(cmd.Context())
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), buckets)
			}
			rows := make([][]string, len(buckets))
			for i, b := range buckets {
				rows[i] = []string{b.Name, formatValue(b.CreationDate)}
			}
			return printTable(cmd.OutOrStdout(), []string{"name", "created"}, rows)
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <substr>",
		Short: "Find objects whose key contains substr, one per bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			matches, err := exec.SearchFiles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), matches)
			}
			rows := make([][]string, len(matches))
			for i, m := range matches {
				rows[i] = []string{m.Bucket.Name, m.Object.Key, strconv.FormatInt(m.Object.Size, 10), formatValue(m.Object.LastModified)}
			}
			return printTable(cmd.OutOrStdout(), []string{"bucket", "key", "size", "modified"}, rows)
		},
	}
}

func newDownloadCmd(a *app) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "download <substr> <out>",
		Short: "Download the single object whose key contains substr",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			match, err := exec.DownloadFileMatch(cmd.Context(), args[0], args[1], overwrite)
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), match)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s/%s to %s\n", match.Bucket.Name, match.Object.Key, args[1])
			return err
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing output file")
	return cmd
}

func newCreateBucketCmd(a *app) *cobra.Command {
	var noVersioning bool

	cmd := &cobra.Command{
		Use:   "create-bucket <prefix>",
		Short: "Create a bucket named prefix plus a random suffix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			name, created, err := exec.CreateBucket(cmd.Context(), args[0], storage.WithVersioning(!noVersioning))
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), created)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created bucket %s in %s\n", name, created.Region)
			return err
		},
	}
	cmd.Flags().BoolVar(&noVersioning, "no-versioning", false, "Leave object versioning disabled")
	return cmd
}

func newEmptyBucketCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "empty-bucket <bucket>",
		Short: "Delete every object version and delete marker in a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			result, err := exec.DeleteAllObjects(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d versions from %s\n", len(result.Deleted), args[0])
			return err
		},
	}
}
