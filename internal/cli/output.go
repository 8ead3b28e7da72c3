package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"fileshare/internal/models"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// render writes v as JSON or YAML, or calls text for the human format.
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

func writePost(w io.Writer, p models.Post, now time.Time) {
	fmt.Fprintf(w, "#%d %s · %s\n", p.ID, p.User, humanize.RelTime(p.Timestamp, now, "ago", "from now"))
	if strings.TrimSpace(p.Text) != "" {
		fmt.Fprintf(w, "  %s\n", p.Text)
	}
	for _, m := range p.Media {
		fmt.Fprintf(w, "  [%s] %s (%s) %s\n", m.Label, m.Name, humanize.Bytes(uint64(max(m.Size, 0))), m.URL)
	}
}

func writeSales(w io.Writer, records []models.SalesRecord, total, page int) {
	fmt.Fprintf(w, "%s sales match, page %d\n", humanize.Comma(int64(total)), page)
	for _, r := range records {
		fmt.Fprintf(w, "%4d  %-10s %10s  %s  %-9s %s\n",
			r.ID, r.Product, "$"+humanize.CommafWithDigits(r.Amount, 2), r.Date, r.Location, r.UserName)
	}
}
