package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"fileshare/internal/client"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newWatchCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live feed events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = c.Watch(cmd.Context(), func(ev client.Event) {
				if flags.Output == outputText {
					writeEvent(out, ev, time.Now())
					return
				}
				var payload any
				_ = json.Unmarshal(ev.Payload, &payload)
				_ = render(out, flags.Output, map[string]any{"type": ev.Type, "payload": payload}, nil)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("watch: %s", client.Message(err))
			}
			return nil
		},
	}
}

func writeEvent(w io.Writer, ev client.Event, now time.Time) {
	switch ev.Type {
	case "post_created":
		var p struct {
			ID         uint      `json:"id"`
			User       string    `json:"user"`
			MediaCount int       `json:"mediaCount"`
			Timestamp  time.Time `json:"timestamp"`
		}
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			fmt.Fprintf(w, "%s (unreadable payload)\n", ev.Type)
			return
		}
		fmt.Fprintf(w, "new post #%d by %s with %d file(s), %s\n",
			p.ID, p.User, p.MediaCount, humanize.RelTime(p.Timestamp, now, "ago", "from now"))
	case "messages_dropped":
		fmt.Fprintln(w, "missed some events; run `fileshare feed` to catch up")
	default:
		fmt.Fprintf(w, "%s %s\n", ev.Type, string(ev.Payload))
	}
}
