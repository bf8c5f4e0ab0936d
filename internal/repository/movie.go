package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/moviehub/internal/model"
	"gorm.io/gorm"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Create 插入影片，CreatedAt 由仓库统一打时间戳
func (r *MovieRepository) Create(movie *model.Movie) error {
	if strings.TrimSpace(movie.Title) == "" || strings.TrimSpace(movie.TgURL) == "" {
		return fmt.Errorf("%w: title 与 tg_url 不能为空", model.ErrValidation)
	}

	movie.CreatedAt = time.Now().UTC()
	return r.db.Create(movie).Error
}

// List 分页查询影片，返回当前页和过滤后的总数
// query 为可选的大小写不敏感子串过滤，永远参数绑定、不拼接进 SQL
func (r *MovieRepository) List(query, sort string, limit, offset int) ([]model.Movie, int64, error) {
	tx := r.db.Model(&model.Movie{})

	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		tx = tx.Where("lower(title) LIKE ? OR lower(description) LIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sort {
	case "az":
		tx = tx.Order("lower(title) ASC")
	default:
		// 最新优先，同一时间戳按插入顺序（id）兜底
		tx = tx.Order("created_at DESC").Order("id DESC")
	}

	var movies []model.Movie
	if err := tx.Limit(limit).Offset(offset).Find(&movies).Error; err != nil {
		return nil, 0, err
	}

	return movies, total, nil
}

// FindByID 根据 ID 查找影片，不存在时返回 nil
func (r *MovieRepository) FindByID(id int) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &movie, nil
}

// Delete 删除影片并返回其海报文件名，供调用方清理文件
// 删除不存在的 ID 不算错误，found=false
func (r *MovieRepository) Delete(id int) (poster string, found bool, err error) {
	var movie model.Movie
	err = r.db.First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if err := r.db.Delete(&model.Movie{}, id).Error; err != nil {
		return "", false, err
	}

	return movie.Poster, true, nil
}

// AllNewestFirst 获取全部影片（最新优先），供 JSON 导出
func (r *MovieRepository) AllNewestFirst() ([]model.Movie, error) {
	var movies []model.Movie
	err := r.db.Order("created_at DESC").Order("id DESC").Find(&movies).Error
	return movies, err
}

// Count 获取影片总数
func (r *MovieRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Count(&count).Error
	return count, err
}

// PosterReferenced 判断海报文件名是否仍被某条影片引用
func (r *MovieRepository) PosterReferenced(name string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Where("poster = ?", name).Count(&count).Error
	return count > 0, err
}
