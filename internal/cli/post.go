package cli

import (
	"fmt"
	"io"
	"time"

	"fileshare/internal/client"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newPostCmd(fs afero.Fs, flags *GlobalFlags) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "post [files...]",
		Short: "Create a post from text and files",
		Long: `Create a post from text and any number of files.

A file selected twice (same name, size and modification time) is sent once.

Examples:
  fileshare post --text "trip photos" beach.jpg sunset.png
  fileshare post notes.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			draft := client.NewDraft()
			draft.Text = text
			for _, path := range args {
				added, err := draft.AddPath(fs, path)
				if err != nil {
					return err
				}
				if !added {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping duplicate %s\n", path)
				}
			}
			if draft.Empty() {
				return fmt.Errorf("nothing to post: pass --text or at least one file")
			}

			post, err := c.Submit(cmd.Context(), draft)
			if err != nil {
				return fmt.Errorf("post failed: %s", client.Message(err))
			}

			return render(cmd.OutOrStdout(), flags.Output, post, func(w io.Writer) {
				writePost(w, *post, time.Now())
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "post text")
	return cmd
}
