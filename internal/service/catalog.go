package service

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/user/moviehub/internal/model"
	"github.com/user/moviehub/internal/repository"
	"github.com/user/moviehub/internal/storage"
	"github.com/user/moviehub/internal/utils"
	"golang.org/x/sync/singleflight"
)

const exportCacheKey = "api:movies"

var validate = validator.New()

// AddMovieInput 新增影片的表单字段
type AddMovieInput struct {
	Title       string `validate:"required"`
	Year        string
	Quality     string
	Languages   string
	Description string
	TgURL       string `validate:"required"`
}

// UploadedPoster 随表单上传的海报文件
type UploadedPoster struct {
	Filename string
	Reader   io.Reader
}

// CatalogService 目录业务编排：列表、新增、删除、导出
type CatalogService struct {
	repos    *repository.Repositories
	posters  *storage.PosterStore
	gate     *AdminGate
	pageSize int

	// 列表页缓存 + singleflight 防止相同查询并发打到数据库
	listings *utils.ListingCache[*model.MovieListing]
	sf       singleflight.Group
}

// NewCatalogService 创建目录服务
func NewCatalogService(repos *repository.Repositories, posters *storage.PosterStore, gate *AdminGate, pageSize int) *CatalogService {
	return &CatalogService{
		repos:    repos,
		posters:  posters,
		gate:     gate,
		pageSize: pageSize,
		listings: utils.NewListingCache[*model.MovieListing](256, time.Minute),
	}
}

// PageSize 每页条数
func (s *CatalogService) PageSize() int {
	return s.pageSize
}

// List 分页列表，page 取值 ≥1，超出末页返回空列表而非错误
func (s *CatalogService) List(query, sort string, page int) (*model.MovieListing, error) {
	query = strings.TrimSpace(query)
	if sort != "az" {
		sort = "new"
	}
	if page < 1 {
		page = 1
	}

	key := fmt.Sprintf("%s|%s|%d", strings.ToLower(query), sort, page)
	if listing, ok := s.listings.Get(key); ok {
		return listing, nil
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		offset := (page - 1) * s.pageSize
		items, total, err := s.repos.Movie.List(query, sort, s.pageSize, offset)
		if err != nil {
			return nil, err
		}

		pageCount := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
		if pageCount < 1 {
			pageCount = 1
		}

		return &model.MovieListing{
			Items:     items,
			Total:     total,
			Page:      page,
			PageCount: pageCount,
			Query:     query,
			Sort:      sort,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	listing := v.(*model.MovieListing)
	s.listings.Set(key, listing)
	return listing, nil
}

// Add 新增影片：先校验管理密码，再校验必填字段，最后存海报、写库
// 海报落盘后写库失败会留下孤儿文件（不做事务回滚），由清理任务兜底
func (s *CatalogService) Add(key string, in AddMovieInput, poster *UploadedPoster) (*model.Movie, error) {
	if !s.gate.Authorize(key) {
		return nil, model.ErrUnauthorized
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Year = strings.TrimSpace(in.Year)
	in.Quality = strings.TrimSpace(in.Quality)
	in.Languages = strings.TrimSpace(in.Languages)
	in.Description = strings.TrimSpace(in.Description)
	in.TgURL = strings.TrimSpace(in.TgURL)

	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	var storedName string
	if poster != nil && poster.Filename != "" {
		stored, err := s.posters.Save(poster.Filename, poster.Reader)
		if err != nil {
			return nil, err
		}
		storedName = stored
	}

	movie := &model.Movie{
		Title:       in.Title,
		Year:        in.Year,
		Quality:     in.Quality,
		Languages:   in.Languages,
		Description: in.Description,
		TgURL:       in.TgURL,
		Poster:      storedName,
	}
	if err := s.repos.Movie.Create(movie); err != nil {
		return nil, err
	}

	s.invalidate()
	return movie, nil
}

// Delete 删除影片及其海报文件，ID 不存在视为已删除（幂等）
func (s *CatalogService) Delete(key string, id int) error {
	if !s.gate.Authorize(key) {
		return model.ErrUnauthorized
	}

	poster, found, err := s.repos.Movie.Delete(id)
	if err != nil {
		return err
	}

	if found && poster != "" {
		// 文件删除失败只记警告，行已经删掉了
		if err := s.posters.Delete(poster); err != nil {
			log.Printf("[Catalog] 删除海报文件失败 %s: %v", poster, err)
		}
	}

	s.invalidate()
	return nil
}

// Export 全量导出（最新优先，不分页），短暂缓存
func (s *CatalogService) Export() ([]model.Movie, error) {
	if v, ok := utils.CacheGet(exportCacheKey); ok {
		if movies, ok := v.([]model.Movie); ok {
			return movies, nil
		}
	}

	movies, err := s.repos.Movie.AllNewestFirst()
	if err != nil {
		return nil, err
	}

	utils.CacheSet(exportCacheKey, movies, time.Minute)
	return movies, nil
}

// invalidate 任何写操作后清掉两级缓存
func (s *CatalogService) invalidate() {
	s.listings.Clear()
	utils.CacheDelete(exportCacheKey)
}
