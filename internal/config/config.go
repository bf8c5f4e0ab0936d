package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Env               string
	AppSecret         string
	DatabasePath      string
	UploadDir         string
	AllowedExts       []string
	AdminPassword     string
	AdminPasswordHash string
	PageSize          int
	MaxUploadBytes    int64
	CleanupInterval   time.Duration
	Port              string
	SiteName          string
}

// Load 加载配置
func Load() *Config {
	pageSize, _ := strconv.Atoi(getEnv("ITEMS_PER_PAGE", "24"))
	if pageSize <= 0 {
		pageSize = 24
	}

	maxUploadMB, _ := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "10"))
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}

	cleanupHours, _ := strconv.Atoi(getEnv("CLEANUP_INTERVAL_HOURS", "0"))

	exts := strings.Split(getEnv("ALLOWED_EXTENSIONS", "png,jpg,jpeg,webp"), ",")
	for i, ext := range exts {
		exts[i] = strings.ToLower(strings.TrimSpace(ext))
	}

	adminPassword := getEnv("ADMIN_PASSWORD", "changeme")
	appSecret := getEnv("APP_SECRET", "unsafe-dev-key")

	if getEnv("APP_ENV", "development") == "production" {
		if adminPassword == "changeme" && getEnv("ADMIN_PASSWORD_HASH", "") == "" {
			fmt.Println("【严重警告】生产环境正在使用默认管理密码！请立即设置 ADMIN_PASSWORD 环境变量。")
		}
		if appSecret == "unsafe-dev-key" {
			fmt.Println("【严重警告】生产环境正在使用默认会话密钥！请立即设置 APP_SECRET 环境变量。")
		}
	}

	return &Config{
		Env:               getEnv("APP_ENV", "development"),
		AppSecret:         appSecret,
		DatabasePath:      getEnv("DATABASE_PATH", "movies.db"),
		UploadDir:         getEnv("UPLOAD_FOLDER", "web/static/posters"),
		AllowedExts:       exts,
		AdminPassword:     adminPassword,
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		PageSize:          pageSize,
		MaxUploadBytes:    int64(maxUploadMB) << 20,
		CleanupInterval:   time.Duration(cleanupHours) * time.Hour,
		Port:              getEnv("PORT", "5000"),
		SiteName:          getEnv("SITE_NAME", "MovieHub"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
