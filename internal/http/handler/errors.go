package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	"github.com/xingxinag/onebooknav/internal/app/service"
)

// statusForError maps a service or repository error onto the right status
// code. Missing rows are 404; rows the caller may not touch are 403. The two
// never blur: a private row that exists is forbidden, not hidden.
func statusForError(err error) int {
	switch {
	case errors.Is(err, repository.ErrWebsiteNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrTagNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrSettingNotFound),
		errors.Is(err, repository.ErrInvitationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAccountDisabled):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrInvalidParent),
		errors.Is(err, service.ErrRegistrationDisabled),
		errors.Is(err, service.ErrInvalidInvitation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// failJSON writes the JSON error body for statusForError's verdict.
func failJSON(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// pageMeta is the pagination envelope shared by list endpoints.
type pageMeta struct {
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

func newPageMeta(page, perPage int, total int64) pageMeta {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages == 0 {
		pages = 1
	}
	return pageMeta{
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// pageParams reads page/per_page query parameters with sane bounds.
func pageParams(c *fiber.Ctx) (page, perPage int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage = c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
