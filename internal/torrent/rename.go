package torrent

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"torrentcore/internal/domain"
)

// renameGroup tracks one in-flight folder rename: the file indexes whose
// engine renames have not completed yet, and the folder pair to announce
// once they all have.
type renameGroup struct {
	oldFolder string
	newFolder string
	waiting   map[int]struct{}
}

// FileRename pairs a file index with its new path.
type FileRename struct {
	Index   int    `json:"index"`
	NewPath string `json:"path"`
}

// RenameFiles issues engine renames for individual files. Completions arrive
// asynchronously as alerts; failures are reported per file by the engine.
func (t *Torrent) RenameFiles(renames []FileRename) {
	for _, r := range renames {
		path := sanitizeFilepath(r.NewPath, false)
		if err := t.handle.RenameFile(r.Index, path); err != nil {
			t.logger.Warn("unable to rename file",
				slog.String("torrentId", string(t.id)),
				slog.Int("fileIndex", r.Index),
				slog.String("error", err.Error()))
		}
	}
}

// RenameFolder renames every file under folder to live under newFolder. One
// engine rename is issued per matching file; when the last completion alert
// arrives, a single folder-renamed event fires and the emptied source folder
// is cleaned up. With no matching files nothing is issued and no event fires.
func (t *Torrent) RenameFolder(folder, newFolder string) error {
	if strings.TrimSpace(newFolder) == "" {
		return domain.ErrEmptyFolderName
	}
	folder = sanitizeFilepath(folder, true)
	newFolder = sanitizeFilepath(newFolder, true)

	t.mu.Lock()
	defer t.mu.Unlock()

	var matched []domain.FileInfo
	for _, f := range t.info.Files {
		if strings.HasPrefix(f.Path, folder) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		t.logger.Debug("folder rename matched no files",
			slog.String("torrentId", string(t.id)),
			slog.String("folder", folder))
		return nil
	}

	group := &renameGroup{
		oldFolder: folder,
		newFolder: newFolder,
		waiting:   make(map[int]struct{}, len(matched)),
	}
	for _, f := range matched {
		group.waiting[f.Index] = struct{}{}
	}
	t.nextRenameID++
	id := t.nextRenameID
	t.renames[id] = group

	for _, f := range matched {
		newPath := newFolder + strings.TrimPrefix(f.Path, folder)
		if err := t.handle.RenameFile(f.Index, newPath); err != nil {
			t.logger.Warn("unable to rename file",
				slog.String("torrentId", string(t.id)),
				slog.Int("fileIndex", f.Index),
				slog.String("error", err.Error()))
			t.completeRenameLocked(id, group, f.Index)
		}
	}
	return nil
}

// HandleFileRenamed processes one engine rename completion, success or
// failure. It drains any folder wait-group holding the index; the last drain
// finishes the folder rename.
func (t *Torrent) HandleFileRenamed(index int, newName string, renameErr error) {
	if renameErr != nil {
		t.logger.Warn("file rename failed",
			slog.String("torrentId", string(t.id)),
			slog.Int("fileIndex", index),
			slog.String("error", renameErr.Error()))
	} else {
		t.logger.Debug("file renamed",
			slog.String("torrentId", string(t.id)),
			slog.Int("fileIndex", index),
			slog.String("newName", newName))
	}

	t.mu.Lock()
	for id, group := range t.renames {
		if _, ok := group.waiting[index]; ok {
			t.completeRenameLocked(id, group, index)
			break
		}
	}
	// Keep the cached file list in step with the engine.
	if info, ok := t.handle.Info(); ok {
		t.info = info
	}
	t.mu.Unlock()
}

// completeRenameLocked removes index from the group; an emptied group fires
// the folder-renamed event, cleans up the source folder and persists resume
// data. Caller holds t.mu.
func (t *Torrent) completeRenameLocked(id uint64, group *renameGroup, index int) {
	delete(group.waiting, index)
	if len(group.waiting) > 0 {
		return
	}
	delete(t.renames, id)

	if t.events != nil {
		t.events.FolderRenamed(t.id, group.oldFolder, group.newFolder)
	}
	t.removeEmptyFolders(group.oldFolder)
	if err := t.handle.SaveResumeData(); err != nil {
		t.logger.Debug("unable to request resume data",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
	}
}

// PendingRenames reports how many folder rename groups are still in flight.
func (t *Torrent) PendingRenames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.renames)
}

// removeEmptyFolders best-effort removes folder and its now-empty subfolders
// under the download location, deepest first. Non-empty directories are left
// alone silently; other OS errors are logged.
func (t *Torrent) removeEmptyFolders(folder string) {
	root := filepath.Join(t.options.DownloadLocation, filepath.FromSlash(folder))
	if _, err := os.Stat(root); err != nil {
		return
	}

	var dirs []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if walkErr != nil {
		t.logger.Warn("unable to walk folder for cleanup",
			slog.String("torrentId", string(t.id)),
			slog.String("folder", root),
			slog.String("error", walkErr.Error()))
		return
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		err := os.Remove(dir)
		switch {
		case err == nil:
			t.logger.Debug("removed empty folder", slog.String("folder", dir))
		case isNotEmpty(err):
			// Still holds files, leave it.
		default:
			t.logger.Warn("unable to remove folder",
				slog.String("torrentId", string(t.id)),
				slog.String("folder", dir),
				slog.String("error", err.Error()))
		}
	}
}

func isNotEmpty(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		msg := pathErr.Err.Error()
		return strings.Contains(msg, "not empty") || strings.Contains(msg, "file exists")
	}
	return false
}

// sanitizeFilepath normalizes a torrent-internal path: separators collapse
// to a single forward slash, each segment is whitespace-trimmed, empty
// segments drop out, and folder paths keep a trailing slash.
func sanitizeFilepath(path string, folder bool) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
	}
	out := strings.Join(kept, "/")
	if folder && out != "" {
		out += "/"
	}
	return out
}
