package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/moviehub/internal/config"
	"github.com/user/moviehub/internal/model"
	"github.com/user/moviehub/internal/repository"
	"github.com/user/moviehub/internal/service"
	"github.com/user/moviehub/internal/storage"
)

// Handler HTTP 处理器
type Handler struct {
	Repos   *repository.Repositories
	Config  *config.Config
	Catalog *service.CatalogService
	Posters *storage.PosterStore
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) (*Handler, error) {
	posters, err := storage.NewPosterStore(cfg.UploadDir, cfg.AllowedExts, cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	gate := service.NewAdminGate(cfg.AdminPassword, cfg.AdminPasswordHash)
	catalog := service.NewCatalogService(repos, posters, gate, cfg.PageSize)

	return &Handler{
		Repos:   repos,
		Config:  cfg,
		Catalog: catalog,
		Posters: posters,
	}, nil
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	// 基础数据
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"Path":     c.Request.URL.Path,
	}

	// 取出一次性提示消息
	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		session.Save()
		res["Flashes"] = flashes
	}

	// 合并传入的数据
	for k, v := range data {
		res[k] = v
	}

	return res
}

// flash 写入一条只显示一次的提示消息
func (h *Handler) flash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	session.Save()
}

// redirectHome 回到列表页，带上管理密码参数以便继续操作删除链接
func redirectHome(c *gin.Context, key string) {
	target := "/"
	if key != "" {
		target += "?key=" + url.QueryEscape(key)
	}
	c.Redirect(http.StatusFound, target)
}

// abortWithBusinessError 把业务错误映射为 HTTP 状态码
func abortWithBusinessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		c.AbortWithStatus(http.StatusUnauthorized)
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrUnsupportedType):
		c.AbortWithStatus(http.StatusBadRequest)
	case errors.Is(err, model.ErrPayloadTooLarge):
		c.AbortWithStatus(http.StatusRequestEntityTooLarge)
	case errors.Is(err, model.ErrNotFound):
		c.AbortWithStatus(http.StatusNotFound)
	default:
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

// ==================== 页面 ====================

// Home 首页（搜索 / 排序 / 分页列表）
func (h *Handler) Home(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	sort := c.DefaultQuery("sort", "new")
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	listing, err := h.Catalog.List(q, sort, page)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title":    "Home",
		"Listing":  listing,
		"PrevPage": listing.Page - 1,
		"NextPage": listing.Page + 1,
		"AdminKey": c.Query("key"),
	}))
}

// AddPage 新增影片表单页
func (h *Handler) AddPage(c *gin.Context) {
	c.HTML(http.StatusOK, "add.html", h.RenderData(c, gin.H{
		"Title": "Add",
	}))
}

// addMovieForm 新增影片表单
type addMovieForm struct {
	Key         string `form:"key"`
	Title       string `form:"title"`
	Year        string `form:"year"`
	Quality     string `form:"quality"`
	Languages   string `form:"languages"`
	TgURL       string `form:"tg_url"`
	Description string `form:"description"`
}

// AddSubmit 接收新增影片表单（multipart）
func (h *Handler) AddSubmit(c *gin.Context) {
	// 整个请求体限流，表单文本部分留 1MB 余量
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Config.MaxUploadBytes+1<<20)

	var form addMovieForm
	if err := c.ShouldBind(&form); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var poster *service.UploadedPoster
	if fh, err := c.FormFile("poster"); err == nil && fh != nil && fh.Filename != "" {
		file, err := fh.Open()
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		defer file.Close()
		poster = &service.UploadedPoster{Filename: fh.Filename, Reader: file}
	}

	_, err := h.Catalog.Add(form.Key, service.AddMovieInput{
		Title:       form.Title,
		Year:        form.Year,
		Quality:     form.Quality,
		Languages:   form.Languages,
		Description: form.Description,
		TgURL:       form.TgURL,
	}, poster)
	if err != nil {
		abortWithBusinessError(c, err)
		return
	}

	h.flash(c, "Movie added ✔")
	redirectHome(c, form.Key)
}

// Delete 删除影片，ID 不存在同样跳回列表（幂等）
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	key := c.Query("key")
	if err := h.Catalog.Delete(key, id); err != nil {
		abortWithBusinessError(c, err)
		return
	}

	h.flash(c, "Deleted ✔")
	redirectHome(c, key)
}

// DMCA 静态说明页
func (h *Handler) DMCA(c *gin.Context) {
	c.HTML(http.StatusOK, "dmca.html", h.RenderData(c, gin.H{
		"Title": "DMCA",
	}))
}

// NotFoundPage 404 页面
func (h *Handler) NotFoundPage(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "Not Found",
	}))
}
