package service

import (
	"log"
	"time"

	"github.com/user/moviehub/internal/repository"
	"github.com/user/moviehub/internal/storage"
)

// 新落盘的海报可能还没完成写库，留出安全间隔
const orphanGracePeriod = time.Hour

// CleanupService 定期清理无人引用的海报文件
// 新增流程不做事务，写库失败会留下孤儿文件，由这里兜底回收
type CleanupService struct {
	repos    *repository.Repositories
	posters  *storage.PosterStore
	interval time.Duration
}

// NewCleanupService 创建清理服务，interval <= 0 表示禁用
func NewCleanupService(repos *repository.Repositories, posters *storage.PosterStore, interval time.Duration) *CleanupService {
	return &CleanupService{repos: repos, posters: posters, interval: interval}
}

// Start 启动定时清理任务
func (s *CleanupService) Start() {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)

	// 启动时先跑一次
	go s.RunOnce()

	go func() {
		for range ticker.C {
			s.RunOnce()
		}
	}()
}

// RunOnce 执行一轮孤儿海报清理
func (s *CleanupService) RunOnce() {
	files, err := s.posters.ListFiles(orphanGracePeriod)
	if err != nil {
		log.Printf("[CleanupService] 读取上传目录失败: %v", err)
		return
	}

	removed := 0
	for _, name := range files {
		referenced, err := s.repos.Movie.PosterReferenced(name)
		if err != nil {
			log.Printf("[CleanupService] 查询海报引用失败 %s: %v", name, err)
			continue
		}
		if referenced {
			continue
		}

		if err := s.posters.Delete(name); err != nil {
			log.Printf("[CleanupService] 删除孤儿海报失败 %s: %v", name, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		total, _ := s.repos.Movie.Count()
		log.Printf("[CleanupService] 已清理 %d 个孤儿海报文件，当前影片 %d 条", removed, total)
	}
}
