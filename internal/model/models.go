package model

import (
	"time"
)

// Movie 影片条目（目录中唯一的持久化实体）
type Movie struct {
	ID          int       `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" db:"title" gorm:"not null"`
	Year        string    `json:"year" db:"year"`
	Quality     string    `json:"quality" db:"quality"`
	Languages   string    `json:"languages" db:"languages"`
	Description string    `json:"description" db:"description"`
	TgURL       string    `json:"tg_url" db:"tg_url" gorm:"column:tg_url;not null"`
	Poster      string    `json:"poster" db:"poster"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"index"`
}

// MovieListing 一页查询结果及分页信息
type MovieListing struct {
	Items     []Movie `json:"items"`
	Total     int64   `json:"total"`
	Page      int     `json:"page"`
	PageCount int     `json:"page_count"`
	Query     string  `json:"query"`
	Sort      string  `json:"sort"`
}
