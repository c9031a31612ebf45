package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	"github.com/xingxinag/onebooknav/internal/app/service"
	"github.com/xingxinag/onebooknav/internal/http/middleware"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger     *zap.Logger
	Websites   service.WebsiteService
	Categories service.CategoryService
	Tags       service.TagService
	Checks     *service.LinkCheckService
	Stats      *service.StatsService
	Settings   *service.SettingsService
}

// APIHandler implements the JSON management API.
type APIHandler struct {
	logger     *zap.Logger
	websites   service.WebsiteService
	categories service.CategoryService
	tags       service.TagService
	checks     *service.LinkCheckService
	stats      *service.StatsService
	settings   *service.SettingsService
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:     logger,
		websites:   deps.Websites,
		categories: deps.Categories,
		tags:       deps.Tags,
		checks:     deps.Checks,
		stats:      deps.Stats,
		settings:   deps.Settings,
	}
}

// Register wires API routes onto the provided router. Reads are open to the
// request's scope; mutations require a session.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		categories := api.Group("/categories")
		{
			categories.Get("/", h.ListCategories)
			categories.Get("/:id", h.GetCategory)
			categories.Get("/:id/children", h.CategoryChildren)
			categories.Post("/", middleware.RequireAuth(), h.CreateCategory)
			categories.Put("/:id", middleware.RequireAuth(), h.UpdateCategory)
			categories.Delete("/:id", middleware.RequireAuth(), h.DeleteCategory)
		}

		websites := api.Group("/websites")
		{
			websites.Get("/", h.ListWebsites)
			websites.Get("/:id", h.GetWebsite)
			websites.Post("/:id/click", h.ClickWebsite)
			websites.Post("/", middleware.RequireAuth(), h.CreateWebsite)
			websites.Put("/:id", middleware.RequireAuth(), h.UpdateWebsite)
			websites.Delete("/:id", middleware.RequireAuth(), h.DeleteWebsite)
			websites.Put("/:id/tags", middleware.RequireAuth(), h.SetWebsiteTags)
			websites.Post("/:id/check", middleware.RequireAuth(), h.CheckWebsite)
			websites.Get("/:id/checks", middleware.RequireAuth(), h.WebsiteCheckHistory)
		}

		api.Get("/tags", h.ListTags)
		api.Get("/search", h.ListWebsites)
		api.Get("/settings", h.PublicSettings)
		api.Get("/stats/me", middleware.RequireAuth(), h.MyStats)

		user := api.Group("/user", middleware.RequireAuth())
		{
			user.Get("/profile", h.MyProfile)
			user.Get("/categories", h.MyCategories)
			user.Get("/websites", h.MyWebsites)
		}
	}
}

func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func badID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
}

// --- categories ---

// CategoryRequest represents the request body for creating or updating a
// category.
type CategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
	IsVisible   *bool   `json:"is_visible,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
	ParentID    *uint   `json:"parent_id,omitempty"`
	ClearParent bool    `json:"clear_parent,omitempty"`
}

// ListCategories handles GET /api/categories
func (h *APIHandler) ListCategories(c *fiber.Ctx) error {
	scope := middleware.CurrentScope(c)
	rootsOnly := c.QueryBool("roots_only", false)

	var (
		categories interface{}
		err        error
	)
	if c.QueryBool("mine", false) {
		user := middleware.CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}
		categories, err = h.categories.ListOwned(c.UserContext(), user.ID)
	} else {
		categories, err = h.categories.List(c.UserContext(), scope, rootsOnly)
	}
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GetCategory handles GET /api/categories/:id
func (h *APIHandler) GetCategory(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	category, err := h.categories.Get(c.UserContext(), middleware.CurrentScope(c), id)
	if err != nil {
		return failJSON(c, err)
	}

	path, err := h.categories.Path(c.UserContext(), id)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"category": category, "path": path})
}

// CategoryChildren handles GET /api/categories/:id/children
func (h *APIHandler) CategoryChildren(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	children, err := h.categories.Children(c.UserContext(), middleware.CurrentScope(c), id)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"categories": children})
}

// CreateCategory handles POST /api/categories
func (h *APIHandler) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == nil || *req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	input := service.CreateCategoryInput{
		Name:      *req.Name,
		IsVisible: true,
		ParentID:  req.ParentID,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Icon != nil {
		input.Icon = *req.Icon
	}
	if req.SortOrder != nil {
		input.SortOrder = *req.SortOrder
	}
	if req.IsVisible != nil {
		input.IsVisible = *req.IsVisible
	}
	if req.IsPublic != nil {
		input.IsPublic = *req.IsPublic
	}

	category, err := h.categories.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return failJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/categories/:id
func (h *APIHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	category, err := h.categories.Update(c.UserContext(), middleware.CurrentUser(c), id, service.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		IsVisible:   req.IsVisible,
		IsPublic:    req.IsPublic,
		ParentID:    req.ParentID,
		ClearParent: req.ClearParent,
	})
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id. The delete cascades
// over the subtree and its websites.
func (h *APIHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	if err := h.categories.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return failJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- websites ---

// WebsiteRequest represents the request body for creating or updating a
// website.
type WebsiteRequest struct {
	Title       *string  `json:"title,omitempty"`
	URL         *string  `json:"url,omitempty"`
	Description *string  `json:"description,omitempty"`
	Icon        *string  `json:"icon,omitempty"`
	Keywords    *string  `json:"keywords,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	IsFeatured  *bool    `json:"is_featured,omitempty"`
	SortOrder   *int     `json:"sort_order,omitempty"`
	CategoryID  *uint    `json:"category_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ListWebsites handles GET /api/websites
func (h *APIHandler) ListWebsites(c *fiber.Ctx) error {
	page, perPage := pageParams(c)

	filter := repository.WebsiteListFilter{
		Scope:        middleware.CurrentScope(c),
		ActiveOnly:   !c.QueryBool("include_inactive", false),
		FeaturedOnly: c.QueryBool("featured", false),
		Search:       c.Query("q"),
		OrderByClick: c.Query("sort") == "popular",
		OrderRecent:  c.Query("sort") == "recent",
		Limit:        perPage,
		Offset:       (page - 1) * perPage,
	}
	if id := c.QueryInt("category_id"); id > 0 {
		filter.CategoryIDs = []uint{uint(id)}
	}
	if id := c.QueryInt("tag_id"); id > 0 {
		tagID := uint(id)
		filter.TagID = &tagID
	}
	if c.QueryBool("mine", false) {
		user := middleware.CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}
		filter.UserID = &user.ID
	}

	websites, total, err := h.websites.List(c.UserContext(), filter)
	if err != nil {
		h.logger.Error("failed to list websites", zap.Error(err))
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"websites":   websites,
		"pagination": newPageMeta(page, perPage, total),
	})
}

// GetWebsite handles GET /api/websites/:id
func (h *APIHandler) GetWebsite(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	website, err := h.websites.Get(c.UserContext(), middleware.CurrentScope(c), id)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(website)
}

// CreateWebsite handles POST /api/websites
func (h *APIHandler) CreateWebsite(c *fiber.Ctx) error {
	var req WebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == nil || *req.Title == "" || req.URL == nil || *req.URL == "" || req.CategoryID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title, url and category_id are required"})
	}

	input := service.CreateWebsiteInput{
		Title:      *req.Title,
		URL:        *req.URL,
		IsPublic:   true,
		CategoryID: *req.CategoryID,
		Tags:       req.Tags,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Icon != nil {
		input.Icon = *req.Icon
	}
	if req.Keywords != nil {
		input.Keywords = *req.Keywords
	}
	if req.IsPublic != nil {
		input.IsPublic = *req.IsPublic
	}
	if req.IsFeatured != nil {
		input.IsFeatured = *req.IsFeatured
	}
	if req.SortOrder != nil {
		input.SortOrder = *req.SortOrder
	}

	website, err := h.websites.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return failJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(website)
}

// UpdateWebsite handles PUT /api/websites/:id
func (h *APIHandler) UpdateWebsite(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	var req WebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	website, err := h.websites.Update(c.UserContext(), middleware.CurrentUser(c), id, service.UpdateWebsiteInput{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Icon:        req.Icon,
		Keywords:    req.Keywords,
		IsActive:    req.IsActive,
		IsPublic:    req.IsPublic,
		IsFeatured:  req.IsFeatured,
		SortOrder:   req.SortOrder,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(website)
}

// DeleteWebsite handles DELETE /api/websites/:id
func (h *APIHandler) DeleteWebsite(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	if err := h.websites.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return failJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClickWebsite handles POST /api/websites/:id/click and returns the target
// URL with the fresh counter instead of redirecting.
func (h *APIHandler) ClickWebsite(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	result, err := h.websites.Click(c.UserContext(), middleware.CurrentScope(c), id, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"url":         result.TargetURL,
		"click_count": result.ClickCount,
	})
}

// SetWebsiteTagsRequest represents the request body for tag replacement.
type SetWebsiteTagsRequest struct {
	Tags []string `json:"tags"`
}

// SetWebsiteTags handles PUT /api/websites/:id/tags
func (h *APIHandler) SetWebsiteTags(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	var req SetWebsiteTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	website, err := h.websites.SetTags(c.UserContext(), middleware.CurrentUser(c), id, req.Tags)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(website)
}

// CheckWebsite handles POST /api/websites/:id/check
func (h *APIHandler) CheckWebsite(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	check, err := h.checks.Check(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(check)
}

// WebsiteCheckHistory handles GET /api/websites/:id/checks
func (h *APIHandler) WebsiteCheckHistory(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	history, err := h.checks.History(c.UserContext(), middleware.CurrentUser(c), id, c.QueryInt("limit", 20))
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"checks": history})
}

// --- tags and stats ---

// ListTags handles GET /api/tags and only returns tags in use.
func (h *APIHandler) ListTags(c *fiber.Ctx) error {
	tags, err := h.tags.ListUsed(c.UserContext(), middleware.CurrentScope(c))
	if err != nil {
		h.logger.Error("failed to list tags", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// MyStats handles GET /api/stats/me
func (h *APIHandler) MyStats(c *fiber.Ctx) error {
	stats, err := h.stats.User(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.logger.Error("failed to compute user stats", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(stats)
}

// PublicSettings handles GET /api/settings and only exposes settings flagged
// as public.
func (h *APIHandler) PublicSettings(c *fiber.Ctx) error {
	values, err := h.settings.PublicValues(c.UserContext())
	if err != nil {
		h.logger.Error("failed to load public settings", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"settings": values})
}

// --- current-user shortcuts ---

// MyProfile handles GET /api/user/profile
func (h *APIHandler) MyProfile(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// MyCategories handles GET /api/user/categories
func (h *APIHandler) MyCategories(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	categories, err := h.categories.ListOwned(c.UserContext(), user.ID)
	if err != nil {
		h.logger.Error("failed to list owned categories", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// MyWebsites handles GET /api/user/websites
func (h *APIHandler) MyWebsites(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page, perPage := pageParams(c)

	websites, total, err := h.websites.List(c.UserContext(), repository.WebsiteListFilter{
		Scope:  middleware.CurrentScope(c),
		UserID: &user.ID,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		h.logger.Error("failed to list owned websites", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"websites":   websites,
		"pagination": newPageMeta(page, perPage, total),
	})
}
