package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"fileshare/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
)

//go:embed web/index.html.tmpl
var webFS embed.FS

type feedPage struct {
	tmpl *template.Template
}

type feedPageData struct {
	Posts []models.Post
}

func newFeedPage() (*feedPage, error) {
	tmpl, err := template.New("index.html.tmpl").Funcs(template.FuncMap{
		"humanBytes": func(n int64) string {
			if n < 0 {
				n = 0
			}
			return humanize.Bytes(uint64(n))
		},
		"humanTime": func(t time.Time) string {
			return humanize.Time(t)
		},
		"previewKind": func(k models.MediaKind) string {
			return string(k.PreviewKind())
		},
	}).ParseFS(webFS, "web/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse feed page: %w", err)
	}
	return &feedPage{tmpl: tmpl}, nil
}

// FeedPage handles GET /, the browser form and the server-rendered feed.
func (s *Server) FeedPage(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.page.tmpl.Execute(&buf, feedPageData{Posts: posts}); err != nil {
		return fmt.Errorf("render feed page: %w", err)
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
