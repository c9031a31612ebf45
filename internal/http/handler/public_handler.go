package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	"github.com/xingxinag/onebooknav/internal/app/service"
	"github.com/xingxinag/onebooknav/internal/http/middleware"
	"github.com/xingxinag/onebooknav/internal/http/view"
	"go.uber.org/zap"
)

const themeCookie = "onebooknav_theme"

// PublicDeps groups dependencies required by the public pages.
type PublicDeps struct {
	Logger     *zap.Logger
	Websites   service.WebsiteService
	Categories service.CategoryService
	Tags       service.TagService
	Settings   *service.SettingsService
	Stats      *service.StatsService
}

// PublicHandler serves the navigation pages and the click redirect.
type PublicHandler struct {
	logger     *zap.Logger
	websites   service.WebsiteService
	categories service.CategoryService
	tags       service.TagService
	settings   *service.SettingsService
	stats      *service.StatsService
}

// NewPublicHandler creates a public handler with the provided dependencies.
func NewPublicHandler(deps PublicDeps) *PublicHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{
		logger:     logger,
		websites:   deps.Websites,
		categories: deps.Categories,
		tags:       deps.Tags,
		settings:   deps.Settings,
		stats:      deps.Stats,
	}
}

// Register wires public routes onto the provided router.
func (h *PublicHandler) Register(router fiber.Router) {
	router.Get("/", h.Home)
	router.Get("/health", h.Health)
	router.Get("/search", h.Search)
	router.Get("/category/:id", h.CategoryPage)
	router.Get("/tag/:id", h.TagPage)
	router.Get("/website/:id/click", h.Click)
	router.Get("/stats", h.Stats)
	router.Get("/theme/:name", h.SetTheme)
}

// Health is a simple endpoint so we know the service is running.
func (h *PublicHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "OneBookNav",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Home renders the navigation page: visible categories with their websites.
func (h *PublicHandler) Home(c *fiber.Ctx) error {
	scope := middleware.CurrentScope(c)
	ctx := c.UserContext()

	categories, err := h.categories.List(ctx, scope, false)
	if err != nil {
		h.logger.Error("failed to load categories", zap.Error(err))
		return h.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	websites, _, err := h.websites.List(ctx, repository.WebsiteListFilter{
		Scope:      scope,
		ActiveOnly: true,
	})
	if err != nil {
		h.logger.Error("failed to load websites", zap.Error(err))
		return h.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	byCategory := make(map[uint][]view.WebsiteView)
	for i := range websites {
		byCategory[websites[i].CategoryID] = append(byCategory[websites[i].CategoryID], websiteView(&websites[i]))
	}

	cards := make([]view.CategoryView, 0, len(categories))
	for i := range categories {
		sites := byCategory[categories[i].ID]
		if len(sites) == 0 {
			continue
		}
		cards = append(cards, view.CategoryView{
			ID:       categories[i].ID,
			Name:     categories[i].Name,
			Icon:     categories[i].Icon,
			Websites: sites,
		})
	}

	return h.renderHome(c, cards, "")
}

// Search renders the navigation page filtered by the q parameter.
func (h *PublicHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Redirect("/", fiber.StatusFound)
	}

	scope := middleware.CurrentScope(c)
	websites, _, err := h.websites.List(c.UserContext(), repository.WebsiteListFilter{
		Scope:      scope,
		ActiveOnly: true,
		Search:     query,
	})
	if err != nil {
		h.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return h.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	return h.renderHome(c, []view.CategoryView{{
		Name:     "Search results",
		Websites: websiteViews(websites),
	}}, query)
}

// CategoryPage renders one category and its websites.
func (h *PublicHandler) CategoryPage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return h.renderError(c, fiber.StatusBadRequest, "Invalid category id")
	}

	scope := middleware.CurrentScope(c)
	ctx := c.UserContext()

	category, err := h.categories.Get(ctx, scope, uint(id))
	if err != nil {
		return h.renderServiceError(c, err)
	}

	websites, _, err := h.websites.List(ctx, repository.WebsiteListFilter{
		Scope:       scope,
		ActiveOnly:  true,
		CategoryIDs: []uint{category.ID},
	})
	if err != nil {
		h.logger.Error("failed to load category websites", zap.Uint("category_id", category.ID), zap.Error(err))
		return h.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	return h.renderHome(c, []view.CategoryView{{
		ID:       category.ID,
		Name:     category.Name,
		Icon:     category.Icon,
		Websites: websiteViews(websites),
	}}, "")
}

// TagPage renders all websites carrying one tag.
func (h *PublicHandler) TagPage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return h.renderError(c, fiber.StatusBadRequest, "Invalid tag id")
	}

	scope := middleware.CurrentScope(c)
	ctx := c.UserContext()

	tag, err := h.tags.Get(ctx, uint(id))
	if err != nil {
		return h.renderServiceError(c, err)
	}

	tagID := tag.ID
	websites, _, err := h.websites.List(ctx, repository.WebsiteListFilter{
		Scope:      scope,
		ActiveOnly: true,
		TagID:      &tagID,
	})
	if err != nil {
		h.logger.Error("failed to load tag websites", zap.Uint("tag_id", tag.ID), zap.Error(err))
		return h.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	return h.renderHome(c, []view.CategoryView{{
		Name:     "#" + tag.Name,
		Websites: websiteViews(websites),
	}}, "")
}

// Click counts the click and redirects to the bookmarked URL.
func (h *PublicHandler) Click(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return h.renderError(c, fiber.StatusBadRequest, "Invalid website id")
	}

	scope := middleware.CurrentScope(c)
	result, err := h.websites.Click(c.UserContext(), scope, uint(id), c.IP(), c.Get("User-Agent"))
	if err != nil {
		return h.renderServiceError(c, err)
	}

	return c.Redirect(result.TargetURL, fiber.StatusFound)
}

// Stats exposes the public aggregate counters.
func (h *PublicHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Public(c.UserContext())
	if err != nil {
		h.logger.Error("failed to compute public stats", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(stats)
}

// SetTheme stores the theme choice in a cookie and returns home.
func (h *PublicHandler) SetTheme(c *fiber.Ctx) error {
	name := c.Params("name")
	if name != "default" && name != "light" {
		name = "default"
	}
	c.Cookie(&fiber.Cookie{
		Name:    themeCookie,
		Value:   name,
		Path:    "/",
		Expires: time.Now().AddDate(1, 0, 0),
	})
	return c.Redirect("/", fiber.StatusFound)
}

func (h *PublicHandler) renderHome(c *fiber.Ctx, cards []view.CategoryView, query string) error {
	ctx := c.UserContext()
	html, err := view.RenderHomePage(view.HomePageData{
		SiteName:        h.settings.GetString(ctx, service.SettingSiteName, "OneBookNav"),
		SiteDescription: h.settings.GetString(ctx, service.SettingSiteDescription, ""),
		Theme:           h.theme(c),
		Query:           query,
		Categories:      cards,
	})
	if err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("internal server error")
	}
	return c.Type("html", "utf-8").SendString(html)
}

func (h *PublicHandler) renderServiceError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	message := "Something went wrong"
	switch status {
	case fiber.StatusNotFound:
		message = "Not found"
	case fiber.StatusForbidden:
		message = "You do not have access to this page"
	case fiber.StatusInternalServerError:
		h.logger.Error("request failed", zap.Error(err))
	}
	return h.renderError(c, status, message)
}

func (h *PublicHandler) renderError(c *fiber.Ctx, status int, message string) error {
	html, err := view.RenderErrorPage(view.ErrorPageData{
		SiteName: h.settings.GetString(c.UserContext(), service.SettingSiteName, "OneBookNav"),
		Status:   status,
		Message:  message,
	})
	if err != nil {
		return c.Status(status).SendString(message)
	}
	return c.Status(status).Type("html", "utf-8").SendString(html)
}

func (h *PublicHandler) theme(c *fiber.Ctx) string {
	if user := middleware.CurrentUser(c); user != nil && user.Theme != "" {
		return user.Theme
	}
	if cookie := c.Cookies(themeCookie); cookie != "" {
		return cookie
	}
	return h.settings.GetString(c.UserContext(), service.SettingDefaultTheme, "default")
}

func websiteView(w *model.Website) view.WebsiteView {
	tags := make([]string, 0, len(w.Tags))
	for _, tag := range w.Tags {
		tags = append(tags, tag.Name)
	}
	return view.WebsiteView{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Icon:        w.Icon,
		Domain:      w.Domain(),
		ClickCount:  w.ClickCount,
		ClickURL:    "/website/" + itoa(w.ID) + "/click",
		Tags:        tags,
	}
}

func websiteViews(websites []model.Website) []view.WebsiteView {
	out := make([]view.WebsiteView, len(websites))
	for i := range websites {
		out[i] = websiteView(&websites[i])
	}
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
