package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/moviehub/internal/model"
	"github.com/user/moviehub/internal/utils"
)

// APIMovies 全量影片列表（JSON 数组，最新优先）
func (h *Handler) APIMovies(c *gin.Context) {
	movies, err := h.Catalog.Export()
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}

	// 空目录也返回数组而不是 null
	if movies == nil {
		movies = []model.Movie{}
	}

	c.JSON(http.StatusOK, movies)
}

// PosterFile 输出海报文件
func (h *Handler) PosterFile(c *gin.Context) {
	path, err := h.Posters.Resolve(c.Param("filename"))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	if _, err := os.Stat(path); err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	c.File(path)
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
