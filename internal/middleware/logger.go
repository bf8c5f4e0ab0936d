package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 请求日志中间件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// 处理请求
		c.Next()

		// 静态资源和海报文件不刷日志
		if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/posters/") {
			return
		}

		// 记录日志（带查询串，方便排查搜索和分页问题）
		// key 是管理密码，不能进日志
		if query := c.Request.URL.Query(); len(query) > 0 {
			query.Del("key")
			if encoded := query.Encode(); encoded != "" {
				path = path + "?" + encoded
			}
		}

		log.Printf("[%s] %s %s %d %v",
			c.Request.Method,
			path,
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
