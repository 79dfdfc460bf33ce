package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/txn2/dataexec/pkg/credentials"
)

func newSetupCredentialsCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "setup-credentials",
		Short: "Write AWSAccessKeyId and AWSSecretKey to the shared credentials file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := credentials.FromLookup(a.lookup)
			if err != nil {
				return err
			}
			if path == "" {
				home, err := a.homeDir()
				if err != nil {
					return fmt.Errorf("resolving home directory: %w", err)
				}
				path = credentials.SharedFilePath(home)
			}
			if err := credentials.WriteSharedFile(path, creds); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s to %s\n", creds, path)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Credentials file (default $HOME/.aws/credentials)")
	return cmd
}
