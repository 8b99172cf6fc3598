package std

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

type fileStatsArgs struct {
	Directory string `json:"directory,omitempty" jsonschema:"description=Directory path to analyze,default=."`
	Pattern   string `json:"pattern,omitempty" jsonschema:"description=File pattern to match e.g. *.go; a **/ prefix matches recursively,default=*"`
}

type fileRef struct {
	Path     string `json:"path"`
	Modified string `json:"modified"`
}

// NewFileStats - file_stats: количество, суммарный размер и расширения файлов.
//
// Относительные пути считаются от root.
func NewFileStats(root string) (tools.Tool, error) {
	if root == "" {
		root = "."
	}
	return tools.NewFunc("file_stats",
		"Get statistics about files in a directory: count, total size, extensions, oldest and newest file.",
		func(ctx context.Context, args fileStatsArgs) (any, error) {
			dir := args.Directory
			if dir == "" {
				dir = "."
			}
			pattern := args.Pattern
			if pattern == "" {
				pattern = "*"
			}
			return collectFileStats(ctx, root, dir, pattern)
		})
}

func collectFileStats(ctx context.Context, root, dir, pattern string) (map[string]any, error) {
	path := dir
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, dir)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze files in '%s': %w", dir, err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("directory '%s' does not exist", dir)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", dir)
	}

	// "**/x" - рекурсивный обход, иначе только верхний уровень
	recursive := strings.HasPrefix(pattern, "**/")
	namePattern := strings.TrimPrefix(pattern, "**/")
	if _, err := filepath.Match(namePattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	var (
		count      int
		totalSize  int64
		extensions = map[string]int{}
		oldest     *fileRef
		newest     *fileRef
		oldestTime time.Time
		newestTime time.Time
	)

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Недоступные поддиректории пропускаем
			if d != nil && d.IsDir() && p != path {
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != path && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(namePattern, d.Name()); !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}

		count++
		totalSize += info.Size()
		extensions[strings.ToLower(filepath.Ext(d.Name()))]++

		rel, _ := filepath.Rel(filepath.Dir(path), p)
		mod := info.ModTime()
		if oldest == nil || mod.Before(oldestTime) {
			oldest, oldestTime = &fileRef{Path: rel, Modified: mod.Format(time.RFC3339)}, mod
		}
		if newest == nil || mod.After(newestTime) {
			newest, newestTime = &fileRef{Path: rel, Modified: mod.Format(time.RFC3339)}, mod
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to analyze files in '%s': %w", dir, walkErr)
	}

	return map[string]any{
		"directory":        path,
		"pattern":          pattern,
		"file_count":       count,
		"total_size_bytes": totalSize,
		"total_size_human": humanize.IBytes(uint64(totalSize)),
		"extensions":       extensions,
		"oldest_file":      oldest,
		"newest_file":      newest,
		"analyzed_at":      time.Now().Format(time.RFC3339),
	}, nil
}
