package cli

import (
	"fmt"
	"io"
	"time"

	"fileshare/internal/client"
	"fileshare/internal/models"

	"github.com/spf13/cobra"
)

func newFeedCmd(flags *GlobalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			posts, err := c.Feed(cmd.Context())
			if err != nil {
				return fmt.Errorf("load feed: %s", client.Message(err))
			}
			if limit > 0 && len(posts) > limit {
				posts = posts[:limit]
			}

			return render(cmd.OutOrStdout(), flags.Output, posts, func(w io.Writer) {
				writeFeed(w, posts, time.Now())
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n posts (0 for all)")
	return cmd
}

func writeFeed(w io.Writer, posts []models.Post, now time.Time) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	for i, p := range posts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writePost(w, p, now)
	}
}
