package server

import (
	"errors"
	"io"
	"mime/multipart"

	"fileshare/internal/models"
	"fileshare/internal/observability"
	"fileshare/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Returns every post, newest first.
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Failure 500 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Creates a post from optional text and zero or more uploaded files. At least one of them is required.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param text formData string false "Post text"
// @Param files formData file false "Attachments (repeatable)"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	input, err := parseCreatePostForm(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), input)
	if err != nil {
		status := mapServiceError(err)
		if status >= fiber.StatusInternalServerError {
			s.logServerError(c, "create post failed", err)
		}
		return models.RespondWithError(c, status, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// parseCreatePostForm reads the text field and every "files" part. Requests that
// are not multipart contribute their text field only.
func parseCreatePostForm(c *fiber.Ctx) (service.CreatePostInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return service.CreatePostInput{Text: c.FormValue("text")}, nil
		}
		return service.CreatePostInput{}, models.NewValidationError("Malformed multipart body")
	}

	var input service.CreatePostInput
	if values := form.Value["text"]; len(values) > 0 {
		input.Text = values[0]
	}
	for _, fh := range form.File["files"] {
		input.Files = append(input.Files, uploadedFile(fh))
	}
	return input, nil
}

func uploadedFile(fh *multipart.FileHeader) service.UploadedFile {
	return service.UploadedFile{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (s *Server) logServerError(c *fiber.Ctx, msg string, err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		err = appErr.Err
	}
	observability.Logger.ErrorContext(c.UserContext(), msg, "path", c.Path(), "error", err)
}
