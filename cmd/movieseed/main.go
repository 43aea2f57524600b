package main

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"moviehub/movie"
	"moviehub/pkg/config"
	"moviehub/pkg/logger"
	"moviehub/storage"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	defaultMovieLensURL = "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip"
	defaultOwner        = "seed@moviehub.local"
	noGenres            = "(no genres listed)"
)

var titleYear = regexp.MustCompile(`^(.*\S)\s*\((\d{4})\)\s*$`)

func main() {
	var (
		csvPath string
		zipURL  string
		owner   string
		limit   int
	)

	flag.StringVar(&csvPath, "csv", "", "Path to movies.csv (skip download)")
	flag.StringVar(&zipURL, "url", defaultMovieLensURL, "MovieLens zip URL")
	flag.StringVar(&owner, "owner", defaultOwner, "Email recorded as addedBy on every imported movie")
	flag.IntVar(&limit, "limit", 0, "Limit number of rows to import (0 = all)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config failed:", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger failed:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("cannot open store", "driver", cfg.DB.Driver, "error", err)
	}
	defer func() { _ = store.Close(ctx) }()

	cleanup := func() {}
	if csvPath == "" {
		path, c, err := downloadAndExtract(zipURL)
		if err != nil {
			log.Fatalw("failed to download dataset", "error", err)
		}
		csvPath = path
		cleanup = c
	}
	defer cleanup()

	file, err := os.Open(csvPath)
	if err != nil {
		log.Fatalw("cannot open csv", "path", csvPath, "error", err)
	}
	defer file.Close()

	count, err := importMovies(ctx, movie.NewUsecase(store.Movies), file, owner, limit)
	if err != nil {
		log.Errorw("import failed", "rows", count, "error", err)
		return
	}

	log.Infow("import completed", zap.Int("rows", count), zap.String("driver", cfg.DB.Driver))
}

func downloadAndExtract(zipURL string) (string, func(), error) {
	if zipURL == "" {
		return "", func() {}, errors.New("dataset url is empty")
	}

	tmpDir, err := os.MkdirTemp("", "movielens-")
	if err != nil {
		return "", func() {}, err
	}

	cleanup := func() {
		_ = os.RemoveAll(tmpDir)
	}

	zipPath := filepath.Join(tmpDir, "dataset.zip")
	if err := downloadFile(zipURL, zipPath); err != nil {
		cleanup()
		return "", func() {}, err
	}

	csvPath, err := extractMoviesCSV(zipPath, tmpDir)
	if err != nil {
		cleanup()
		return "", func() {}, err
	}

	return csvPath, cleanup, nil
}

func downloadFile(url, dest string) error {
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url) // nolint: noctx
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

func extractMoviesCSV(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, file := range r.File {
		if !strings.HasSuffix(file.Name, "movies.csv") {
			continue
		}

		src, err := file.Open()
		if err != nil {
			return "", err
		}
		defer src.Close()

		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		out, err := os.Create(destPath)
		if err != nil {
			return "", err
		}

		if _, err := io.Copy(out, src); err != nil {
			_ = out.Close()
			return "", err
		}
		if err := out.Close(); err != nil {
			return "", err
		}

		return destPath, nil
	}

	return "", errors.New("movies.csv not found in zip")
}

// importMovies creates one record per CSV row through the service, so
// seeded records get the same validation and createdAt as API writes.
func importMovies(ctx context.Context, svc movie.Service, r io.Reader, owner string, limit int) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	idxMovieID, idxTitle, idxGenres, err := parseMovieCSVHeader(reader)
	if err != nil {
		return 0, err
	}

	count := 0
	for limit <= 0 || count < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}
		fields, ok := parseMovieRecord(record, idxMovieID, idxTitle, idxGenres)
		if !ok {
			continue
		}
		fields[movie.FieldAddedBy] = owner

		if _, err := svc.Create(ctx, fields); err != nil {
			return count, fmt.Errorf("row %d: %w", count+1, err)
		}

		count++
	}

	return count, nil
}

func parseMovieCSVHeader(reader *csv.Reader) (int, int, int, error) {
	header, err := reader.Read()
	if err != nil {
		return 0, 0, 0, err
	}

	idxMovieID, idxTitle, idxGenres := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "movieId":
			idxMovieID = i
		case "title":
			idxTitle = i
		case "genres":
			idxGenres = i
		}
	}
	if idxMovieID == -1 || idxTitle == -1 || idxGenres == -1 {
		return 0, 0, 0, errors.New("missing required columns in csv header")
	}

	return idxMovieID, idxTitle, idxGenres, nil
}

// parseMovieRecord maps a MovieLens row to record fields. "Heat (1995)"
// becomes title "Heat" with year 1995; genres are pipe separated.
func parseMovieRecord(record []string, idxMovieID, idxTitle, idxGenres int) (map[string]any, bool) {
	if idxMovieID >= len(record) || idxTitle >= len(record) || idxGenres >= len(record) {
		return nil, false
	}

	movieID, err := strconv.Atoi(strings.TrimSpace(record[idxMovieID]))
	if err != nil {
		return nil, false
	}
	title := strings.TrimSpace(record[idxTitle])
	if title == "" {
		return nil, false
	}

	fields := map[string]any{
		"movieLensId": movieID,
	}
	if m := titleYear.FindStringSubmatch(title); m != nil {
		title = m[1]
		year, _ := strconv.Atoi(m[2])
		fields["year"] = year
	}
	fields[movie.FieldTitle] = title

	genres := []string{}
	if raw := strings.TrimSpace(record[idxGenres]); raw != "" && raw != noGenres {
		for _, g := range strings.Split(raw, "|") {
			if g = strings.TrimSpace(g); g != "" {
				genres = append(genres, g)
			}
		}
	}
	fields[movie.FieldGenre] = genres

	return fields, true
}
