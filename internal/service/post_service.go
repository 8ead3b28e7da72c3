// Package service implements the ingestion and query use cases behind the HTTP layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"fileshare/internal/models"
	"fileshare/internal/observability"
	"fileshare/internal/repository"
	"fileshare/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

// Defaults applied when PostServiceConfig leaves a limit unset.
const (
	DefaultMaxFilesPerPost = 10
	DefaultMaxTextLength   = 5000
	DefaultUser            = "DemoUser"
)

// ErrEmptyPost is the validation message for a post with neither text nor files.
const ErrEmptyPost = "Post must include text or at least one file"

// MediaSaver is the subset of storage.MediaStore the ingestion flow needs.
type MediaSaver interface {
	Save(ctx context.Context, originalName string, r io.Reader) (*storage.StoredFile, error)
	Remove(name string) error
}

// PreviewRenderer renders a thumbnail for a stored file and returns its URL.
type PreviewRenderer interface {
	Generate(ctx context.Context, file *storage.StoredFile) (string, error)
}

// PostPublisher is notified after a post has been appended.
type PostPublisher func(ctx context.Context, post *models.Post)

// UploadedFile is one file part of an ingestion request.
type UploadedFile struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type CreatePostInput struct {
	Text  string
	Files []UploadedFile
}

type PostServiceConfig struct {
	DefaultUser   string
	MaxFiles      int
	MaxTextLength int
}

type PostService struct {
	posts    repository.PostRepository
	media    MediaSaver
	previews PreviewRenderer
	publish  PostPublisher
	cfg      PostServiceConfig
}

// NewPostService wires the ingestion flow. previews and publish may be nil.
func NewPostService(
	posts repository.PostRepository,
	media MediaSaver,
	previews PreviewRenderer,
	publish PostPublisher,
	cfg PostServiceConfig,
) *PostService {
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = DefaultUser
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFilesPerPost
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = DefaultMaxTextLength
	}
	return &PostService{
		posts:    posts,
		media:    media,
		previews: previews,
		publish:  publish,
		cfg:      cfg,
	}
}

// CreatePost validates the submission, stores every file, and only then appends the post.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost")
	defer span.End()

	files := make([]UploadedFile, 0, len(in.Files))
	for _, f := range in.Files {
		if f.Filename == "" || f.Size <= 0 || f.Open == nil {
			continue
		}
		files = append(files, f)
	}
	span.AddAttributes(
		attribute.Int("post.files", len(files)),
		attribute.Int("post.text_length", len(in.Text)),
	)

	if err := s.validate(in.Text, files); err != nil {
		span.SetError(err)
		return nil, err
	}

	media, stored, err := s.storeFiles(ctx, files)
	if err != nil {
		s.cleanup(ctx, stored)
		observability.PostsRejected.WithLabelValues("storage").Inc()
		span.SetError(err)
		return nil, models.NewUploadError(err)
	}

	post, err := s.posts.Append(ctx, &models.Post{
		User:  s.cfg.DefaultUser,
		Text:  in.Text,
		Media: media,
	})
	if err != nil {
		s.cleanup(ctx, stored)
		span.SetError(err)
		return nil, models.NewInternalError(fmt.Errorf("append post: %w", err))
	}

	observability.PostsCreated.Inc()
	for _, m := range post.Media {
		observability.MediaStored.WithLabelValues(string(m.Kind)).Inc()
		observability.MediaBytesStored.Add(float64(m.Size))
	}
	span.AddAttributes(attribute.Int("post.id", int(post.ID)))

	if s.publish != nil {
		s.publish(ctx, post)
	}
	return post, nil
}

// ListPosts returns the feed, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) validate(text string, files []UploadedFile) error {
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		observability.PostsRejected.WithLabelValues("empty").Inc()
		return models.NewValidationError(ErrEmptyPost)
	}
	if utf8.RuneCountInString(text) > s.cfg.MaxTextLength {
		observability.PostsRejected.WithLabelValues("text_too_long").Inc()
		return models.NewValidationError(fmt.Sprintf("Text must be at most %d characters", s.cfg.MaxTextLength))
	}
	if len(files) > s.cfg.MaxFiles {
		observability.PostsRejected.WithLabelValues("too_many_files").Inc()
		return models.NewValidationError(fmt.Sprintf("A post may include at most %d files", s.cfg.MaxFiles))
	}
	return nil
}

// storeFiles writes files in submission order. On failure it returns the names
// written so far so the caller can remove them.
func (s *PostService) storeFiles(ctx context.Context, files []UploadedFile) ([]models.MediaItem, []string, error) {
	media := make([]models.MediaItem, 0, len(files))
	written := make([]string, 0, len(files)*2)

	for _, f := range files {
		stored, err := s.storeOne(ctx, f)
		if err != nil {
			return nil, written, fmt.Errorf("%s: %w", f.Filename, err)
		}
		written = append(written, stored.Name)

		ext := models.ExtensionOf(f.Filename)
		mt := models.LookupMediaKind(ext)
		item := models.MediaItem{
			URL:      stored.URL,
			Name:     f.Filename,
			Type:     ext,
			Kind:     mt.Kind,
			Label:    mt.Label,
			Size:     stored.Size,
			MimeType: stored.MimeType,
		}

		if mt.Kind == models.MediaKindImage && s.previews != nil {
			if url, err := s.previews.Generate(ctx, stored); err == nil {
				item.PreviewURL = url
				written = append(written, storage.PreviewName(stored.Name))
			} else if !errors.Is(err, storage.ErrNotPreviewable) {
				observability.PreviewFailures.Inc()
				observability.Logger.WarnContext(ctx, "preview generation failed",
					"file", stored.Name, "error", err)
			}
		}

		media = append(media, item)
	}
	return media, written, nil
}

func (s *PostService) storeOne(ctx context.Context, f UploadedFile) (*storage.StoredFile, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return s.media.Save(ctx, f.Filename, rc)
}

func (s *PostService) cleanup(ctx context.Context, names []string) {
	for _, name := range names {
		if err := s.media.Remove(name); err != nil {
			observability.Logger.WarnContext(ctx, "failed to remove orphaned upload", "file", name, "error", err)
		}
	}
}
