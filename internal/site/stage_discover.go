package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

var markdownExts = map[string]bool{".md": true, ".markdown": true}

// Underscore directories that hold content rather than site machinery.
var contentDirs = map[string]bool{"_posts": true}

func stageDiscover(_ context.Context, bs *BuildState) error {
	b := bs.Config.Build
	info, err := os.Stat(b.ContentDir)
	if err != nil || !info.IsDir() {
		return newFatalStageError(StageDiscover,
			ferrors.WrapError(fmt.Errorf("%w: %s", ErrContentDirMissing, b.ContentDir), ferrors.CategoryNotFound, "discover sources").
				WithContext("path", b.ContentDir).
				Fatal().
				Build())
	}
	sources, err := discoverSources(b.ContentDir, b.LayoutsDir, b.StaticDir, b.OutputDir, b.StateDir)
	if err != nil {
		return newFatalStageError(StageDiscover,
			ferrors.WrapError(err, ferrors.CategoryFileSystem, "discover sources").Fatal().Build())
	}
	bs.Sources = sources
	bs.Report.Discovered = len(sources)
	bs.Logger.Info("Discovered sources", logfields.Count(len(sources)), logfields.Path(b.ContentDir))
	return nil
}

// discoverSources lists markdown files below root in lexicographic order of
// their slash-separated relative path. Hidden entries, underscore
// directories other than _posts and the excluded directories are skipped.
func discoverSources(root string, exclude ...string) ([]SourceFile, error) {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		if e == "" {
			continue
		}
		if abs, err := filepath.Abs(e); err == nil {
			skip[abs] = true
		}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var out []SourceFile
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == absRoot {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") || skip[p] || (strings.HasPrefix(name, "_") && !contentDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() || !markdownExts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		out = append(out, SourceFile{RelPath: filepath.ToSlash(rel), AbsPath: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}
