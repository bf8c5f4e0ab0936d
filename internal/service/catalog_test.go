package service_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/moviehub/internal/model"
	"github.com/user/moviehub/internal/repository"
	"github.com/user/moviehub/internal/service"
	"github.com/user/moviehub/internal/storage"
	"github.com/user/moviehub/internal/utils"
)

const testAdminKey = "s3cret"

type testEnv struct {
	catalog *service.CatalogService
	repos   *repository.Repositories
	posters *storage.PosterStore
	dir     string
}

func newTestEnv(t *testing.T, pageSize int) *testEnv {
	t.Helper()

	utils.InitCache()

	db, err := repository.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	repos := repository.NewRepositories(db)

	dir := t.TempDir()
	posters, err := storage.NewPosterStore(dir, []string{"png", "jpg", "jpeg", "webp"}, 1<<20)
	if err != nil {
		t.Fatalf("NewPosterStore: %v", err)
	}

	gate := service.NewAdminGate(testAdminKey, "")

	return &testEnv{
		catalog: service.NewCatalogService(repos, posters, gate, pageSize),
		repos:   repos,
		posters: posters,
		dir:     dir,
	}
}

func addInput(title string) service.AddMovieInput {
	return service.AddMovieInput{
		Title:       title,
		Year:        "2024",
		Quality:     "1080p",
		Languages:   "EN",
		Description: "desc of " + title,
		TgURL:       "https://t.me/example",
	}
}

func TestCatalogService_AddRequiresAdminKey(t *testing.T) {
	env := newTestEnv(t, 24)

	for _, key := range []string{"", "wrong"} {
		_, err := env.catalog.Add(key, addInput("Nope"), nil)
		if !errors.Is(err, model.ErrUnauthorized) {
			t.Fatalf("Add with key %q: expected ErrUnauthorized, got %v", key, err)
		}
	}
}

func TestCatalogService_AddValidatesRequiredFields(t *testing.T) {
	env := newTestEnv(t, 24)

	in := addInput("   ")
	_, err := env.catalog.Add(testAdminKey, in, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank title, got %v", err)
	}

	in = addInput("Fine")
	in.TgURL = ""
	_, err = env.catalog.Add(testAdminKey, in, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty tg_url, got %v", err)
	}
}

func TestCatalogService_AddWithPoster(t *testing.T) {
	env := newTestEnv(t, 24)

	movie, err := env.catalog.Add(testAdminKey, addInput("Dune Part Two"), &service.UploadedPoster{
		Filename: "dune.PNG",
		Reader:   strings.NewReader("fake image"),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if movie.ID == 0 || movie.Poster == "" {
		t.Fatalf("expected id and poster reference, got %+v", movie)
	}

	if _, err := os.Stat(filepath.Join(env.dir, movie.Poster)); err != nil {
		t.Fatalf("expected poster on disk: %v", err)
	}

	listing, err := env.catalog.List("dune", "new", 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Total != 1 || listing.Items[0].ID != movie.ID {
		t.Fatalf("expected new row in listing, got %+v", listing)
	}
}

func TestCatalogService_AddRejectsBadExtension(t *testing.T) {
	env := newTestEnv(t, 24)

	_, err := env.catalog.Add(testAdminKey, addInput("Trojan"), &service.UploadedPoster{
		Filename: "shell.exe",
		Reader:   strings.NewReader("MZ"),
	})
	if !errors.Is(err, model.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	// 被拒绝的上传不写库
	count, err := env.repos.Movie.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}
}

func TestCatalogService_ListPageCount(t *testing.T) {
	env := newTestEnv(t, 2)

	for i := 1; i <= 5; i++ {
		if _, err := env.catalog.Add(testAdminKey, addInput(fmt.Sprintf("Movie %d", i)), nil); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	listing, err := env.catalog.List("", "new", 1)
	if err != nil {
		t.Fatalf("List page 1: %v", err)
	}
	if listing.PageCount != 3 || listing.Total != 5 || len(listing.Items) != 2 {
		t.Fatalf("page 1: got page_count=%d total=%d len=%d", listing.PageCount, listing.Total, len(listing.Items))
	}

	listing, err = env.catalog.List("", "new", 3)
	if err != nil {
		t.Fatalf("List page 3: %v", err)
	}
	if len(listing.Items) != 1 {
		t.Fatalf("page 3: expected 1 row, got %d", len(listing.Items))
	}

	listing, err = env.catalog.List("", "new", 4)
	if err != nil {
		t.Fatalf("List page 4: %v", err)
	}
	if len(listing.Items) != 0 {
		t.Fatalf("page 4: expected 0 rows, got %d", len(listing.Items))
	}
}

func TestCatalogService_ListEmptyCatalog(t *testing.T) {
	env := newTestEnv(t, 24)

	// page 被钳位到 1，空目录页数下限也是 1
	listing, err := env.catalog.List("", "weird-sort", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Page != 1 || listing.PageCount != 1 || listing.Sort != "new" {
		t.Fatalf("got page=%d page_count=%d sort=%q", listing.Page, listing.PageCount, listing.Sort)
	}
}

func TestCatalogService_DeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 24)

	movie, err := env.catalog.Add(testAdminKey, addInput("Doomed"), &service.UploadedPoster{
		Filename: "doomed.png",
		Reader:   strings.NewReader("img"),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	posterPath := filepath.Join(env.dir, movie.Poster)

	if err := env.catalog.Delete("wrong", movie.ID); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := env.catalog.Delete(testAdminKey, movie.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got, err := env.repos.Movie.FindByID(movie.ID); err != nil || got != nil {
		t.Fatalf("expected row gone, got %+v err=%v", got, err)
	}
	if _, err := os.Stat(posterPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected poster file removed, stat err=%v", err)
	}

	// 第二次删除同一 ID 是无害的 no-op
	if err := env.catalog.Delete(testAdminKey, movie.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestCatalogService_ExportNewestFirst(t *testing.T) {
	env := newTestEnv(t, 24)

	in := addInput("First")
	if _, err := env.catalog.Add(testAdminKey, in, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := env.catalog.Add(testAdminKey, addInput("Second"), nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	movies, err := env.catalog.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(movies) != 2 || movies[0].Title != "Second" || movies[1].Title != "First" {
		t.Fatalf("expected newest-first export, got %v", movies)
	}

	// 新增的每个字段都要原样出现在导出里
	got := movies[1]
	if got.Year != in.Year || got.Quality != in.Quality || got.Languages != in.Languages ||
		got.Description != in.Description || got.TgURL != in.TgURL {
		t.Fatalf("export lost fields: %+v", got)
	}
	if got.ID == 0 || got.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and created_at, got %+v", got)
	}
}

func TestCleanupService_RemovesOnlyOrphans(t *testing.T) {
	env := newTestEnv(t, 24)

	movie, err := env.catalog.Add(testAdminKey, addInput("Keeper"), &service.UploadedPoster{
		Filename: "keeper.png",
		Reader:   strings.NewReader("img"),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	orphan, err := env.posters.Save("orphan.png", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("Save orphan: %v", err)
	}

	// 让两个文件都超过清理的安全间隔
	past := time.Now().Add(-2 * time.Hour)
	for _, name := range []string{movie.Poster, orphan} {
		if err := os.Chtimes(filepath.Join(env.dir, name), past, past); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	service.NewCleanupService(env.repos, env.posters, time.Hour).RunOnce()

	if _, err := os.Stat(filepath.Join(env.dir, orphan)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected orphan removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(env.dir, movie.Poster)); err != nil {
		t.Fatalf("expected referenced poster kept: %v", err)
	}
}
