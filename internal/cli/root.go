// Package cli implements the fileshare command-line client.
package cli

import (
	"fmt"
	"os"

	"fileshare/internal/client"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:3000"

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	Server string
	Output string
}

// NewRootCommand returns the fileshare command with all subcommands attached.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	flags := &GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:           "fileshare",
		Short:         "Post files and browse the fileshare feed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch flags.Output {
			case outputText, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want text, json or yaml)", flags.Output)
			}
		},
	}

	server := os.Getenv("FILESHARE_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&flags.Server, "server", "s", server, "fileshare server base URL")
	rootCmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", outputText, "output format: text, json or yaml")

	rootCmd.AddCommand(newPostCmd(fs, flags))
	rootCmd.AddCommand(newFeedCmd(flags))
	rootCmd.AddCommand(newSalesCmd(flags))
	rootCmd.AddCommand(newWatchCmd(flags))

	return rootCmd
}

func (f *GlobalFlags) client() (*client.Client, error) {
	return client.New(f.Server)
}
