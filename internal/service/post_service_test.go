package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"fileshare/internal/models"
	"fileshare/internal/repository"
	"fileshare/internal/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	appendFn  func(context.Context, *models.Post) (*models.Post, error)
	listAllFn func(context.Context) ([]models.Post, error)
	countFn   func(context.Context) int
}

func (s *postRepoStub) Append(ctx context.Context, post *models.Post) (*models.Post, error) {
	return s.appendFn(ctx, post)
}
func (s *postRepoStub) ListAll(ctx context.Context) ([]models.Post, error) {
	return s.listAllFn(ctx)
}
func (s *postRepoStub) Count(ctx context.Context) int {
	return s.countFn(ctx)
}

// mediaSaverStub records saves and removals.
type mediaSaverStub struct {
	saveFn  func(context.Context, string, io.Reader) (*storage.StoredFile, error)
	removed []string
}

func (s *mediaSaverStub) Save(ctx context.Context, name string, r io.Reader) (*storage.StoredFile, error) {
	return s.saveFn(ctx, name, r)
}
func (s *mediaSaverStub) Remove(name string) error {
	s.removed = append(s.removed, name)
	return nil
}

type previewStub struct {
	generateFn func(context.Context, *storage.StoredFile) (string, error)
}

func (s *previewStub) Generate(ctx context.Context, f *storage.StoredFile) (string, error) {
	return s.generateFn(ctx, f)
}

func fileOf(name, content string) UploadedFile {
	return UploadedFile{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func newMemoryService(t *testing.T, publish PostPublisher) (*PostService, repository.PostRepository, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store := storage.NewMediaStore(fs, "uploads", "/uploads")
	repo := repository.NewPostRepository()
	svc := NewPostService(repo, store, storage.NewPreviewGenerator(store, 32), publish, PostServiceConfig{})
	return svc, repo, fs
}

func TestCreatePost_TextOnly(t *testing.T) {
	var published []*models.Post
	svc, repo, _ := newMemoryService(t, func(_ context.Context, p *models.Post) {
		published = append(published, p)
	})

	post, err := svc.CreatePost(context.Background(), CreatePostInput{Text: "  hello world  "})
	require.NoError(t, err)

	assert.Equal(t, uint(1), post.ID)
	assert.Equal(t, DefaultUser, post.User)
	assert.Equal(t, "  hello world  ", post.Text, "text is stored as submitted")
	assert.Empty(t, post.Media)
	assert.NotNil(t, post.Media)
	assert.False(t, post.Timestamp.IsZero())
	assert.Equal(t, 1, repo.Count(context.Background()))
	require.Len(t, published, 1)
	assert.Equal(t, post.ID, published[0].ID)
}

func TestCreatePost_WithFiles(t *testing.T) {
	svc, _, fs := newMemoryService(t, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Files: []UploadedFile{
			fileOf("song.MP3", "ID3\x03\x00"),
			fileOf("report.pdf", "%PDF-1.7\n"),
			fileOf("Makefile", "all:\n\ttrue\n"),
			fileOf("archive.xyz", "????"),
		},
	})
	require.NoError(t, err)
	require.Len(t, post.Media, 4)

	tests := []struct {
		name  string
		typ   string
		kind  models.MediaKind
		label string
	}{
		{"song.MP3", ".mp3", models.MediaKindAudio, "Audio File"},
		{"report.pdf", ".pdf", models.MediaKindPDF, "PDF Document"},
		{"Makefile", "", models.MediaKindFile, "File"},
		{"archive.xyz", ".xyz", models.MediaKindFile, "XYZ File"},
	}
	for i, tt := range tests {
		item := post.Media[i]
		assert.Equal(t, tt.name, item.Name)
		assert.Equal(t, tt.typ, item.Type)
		assert.Equal(t, tt.kind, item.Kind)
		assert.Equal(t, tt.label, item.Label)
		assert.True(t, strings.HasPrefix(item.URL, "/uploads/"), item.URL)

		exists, err := afero.Exists(fs, "uploads/"+strings.TrimPrefix(item.URL, "/uploads/"))
		require.NoError(t, err)
		assert.True(t, exists, "stored file for %s", tt.name)
	}
}

func TestCreatePost_SkipsEmptyFileParts(t *testing.T) {
	svc, repo, _ := newMemoryService(t, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		Text: "   ",
		Files: []UploadedFile{
			{Filename: "", Size: 10, Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("x")), nil }},
			fileOf("empty.txt", ""),
		},
	})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrEmptyPost, appErr.Message)
	assert.Equal(t, 0, repo.Count(context.Background()))
}

func TestCreatePost_ValidationHappensBeforeWrites(t *testing.T) {
	saver := &mediaSaverStub{saveFn: func(context.Context, string, io.Reader) (*storage.StoredFile, error) {
		t.Fatal("no file may be written for an invalid post")
		return nil, nil
	}}
	repo := &postRepoStub{appendFn: func(context.Context, *models.Post) (*models.Post, error) {
		t.Fatal("nothing may be appended for an invalid post")
		return nil, nil
	}}
	svc := NewPostService(repo, saver, nil, nil, PostServiceConfig{MaxFiles: 2, MaxTextLength: 5})

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"Empty", CreatePostInput{}},
		{"Text too long", CreatePostInput{Text: "123456"}},
		{"Too many files", CreatePostInput{Files: []UploadedFile{fileOf("a", "1"), fileOf("b", "2"), fileOf("c", "3")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(context.Background(), tt.in)
			assert.True(t, models.IsValidationError(err), "got %v", err)
		})
	}
}

func TestCreatePost_WriteFailureRemovesEarlierFiles(t *testing.T) {
	calls := 0
	saver := &mediaSaverStub{}
	saver.saveFn = func(_ context.Context, name string, r io.Reader) (*storage.StoredFile, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("disk full")
		}
		_, _ = io.Copy(io.Discard, r)
		return &storage.StoredFile{Name: "stored_" + name, URL: "/uploads/stored_" + name, Size: 1}, nil
	}
	appended := false
	repo := &postRepoStub{appendFn: func(context.Context, *models.Post) (*models.Post, error) {
		appended = true
		return nil, nil
	}}
	svc := NewPostService(repo, saver, nil, nil, PostServiceConfig{})

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		Text:  "two files",
		Files: []UploadedFile{fileOf("a.txt", "a"), fileOf("b.txt", "b")},
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeUpload, appErr.Code)
	assert.Equal(t, "Error processing upload", appErr.Message)
	assert.Contains(t, appErr.Err.Error(), "disk full")

	assert.False(t, appended)
	assert.Equal(t, []string{"stored_a.txt"}, saver.removed)
}

func TestCreatePost_OpenFailureIsUploadError(t *testing.T) {
	svc, repo, _ := newMemoryService(t, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		Files: []UploadedFile{{
			Filename: "a.txt",
			Size:     3,
			Open:     func() (io.ReadCloser, error) { return nil, errors.New("part vanished") },
		}},
	})

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeUpload, appErr.Code)
	assert.Equal(t, 0, repo.Count(context.Background()))
}

func TestCreatePost_PreviewFailureIsBestEffort(t *testing.T) {
	saver := &mediaSaverStub{saveFn: func(_ context.Context, name string, _ io.Reader) (*storage.StoredFile, error) {
		return &storage.StoredFile{Name: "n_" + name, URL: "/uploads/n_" + name, Size: 4, MimeType: "image/png"}, nil
	}}
	previews := &previewStub{generateFn: func(context.Context, *storage.StoredFile) (string, error) {
		return "", errors.New("decode failed")
	}}
	svc := NewPostService(repository.NewPostRepository(), saver, previews, nil, PostServiceConfig{})

	post, err := svc.CreatePost(context.Background(), CreatePostInput{Files: []UploadedFile{fileOf("a.png", "\x89PNG")}})
	require.NoError(t, err)
	require.Len(t, post.Media, 1)
	assert.Empty(t, post.Media[0].PreviewURL)
	assert.Equal(t, models.MediaKindImage, post.Media[0].Kind)
}

func TestCreatePost_PreviewForImages(t *testing.T) {
	saver := &mediaSaverStub{saveFn: func(_ context.Context, name string, _ io.Reader) (*storage.StoredFile, error) {
		return &storage.StoredFile{Name: "n_" + name, URL: "/uploads/n_" + name, Size: 4, MimeType: "image/png"}, nil
	}}
	var rendered []string
	previews := &previewStub{generateFn: func(_ context.Context, f *storage.StoredFile) (string, error) {
		rendered = append(rendered, f.Name)
		return "/uploads/" + storage.PreviewName(f.Name), nil
	}}
	svc := NewPostService(repository.NewPostRepository(), saver, previews, nil, PostServiceConfig{})

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Files: []UploadedFile{fileOf("a.png", "\x89PNG"), fileOf("b.pdf", "%PDF")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"n_a.png"}, rendered)
	assert.Equal(t, "/uploads/n_a.png.thumb.webp", post.Media[0].PreviewURL)
	assert.Empty(t, post.Media[1].PreviewURL)
}

func TestCreatePost_AppendFailureCleansUp(t *testing.T) {
	saver := &mediaSaverStub{saveFn: func(_ context.Context, name string, r io.Reader) (*storage.StoredFile, error) {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		return &storage.StoredFile{Name: "n_" + name, URL: "/uploads/n_" + name, Size: int64(buf.Len())}, nil
	}}
	repo := &postRepoStub{appendFn: func(ctx context.Context, _ *models.Post) (*models.Post, error) {
		return nil, context.Canceled
	}}
	svc := NewPostService(repo, saver, nil, nil, PostServiceConfig{})

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Files: []UploadedFile{fileOf("a.txt", "a")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"n_a.txt"}, saver.removed)
}

func TestListPosts(t *testing.T) {
	svc, _, _ := newMemoryService(t, nil)
	ctx := context.Background()

	for _, text := range []string{"first", "second"} {
		_, err := svc.CreatePost(ctx, CreatePostInput{Text: text})
		require.NoError(t, err)
	}

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.GreaterOrEqual(t, posts[0].ID, uint(1))
	assert.False(t, posts[0].Timestamp.Before(posts[1].Timestamp))
}

func TestListPosts_RepositoryError(t *testing.T) {
	repo := &postRepoStub{listAllFn: func(context.Context) ([]models.Post, error) {
		return nil, errors.New("boom")
	}}
	svc := NewPostService(repo, &mediaSaverStub{}, nil, nil, PostServiceConfig{})

	_, err := svc.ListPosts(context.Background())
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeInternal, appErr.Code)
}
