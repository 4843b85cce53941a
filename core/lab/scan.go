package lab

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ChapterOf returns the chapter code of a lab folder: the text before the first
// underscore, or the first two characters when there is none.
func ChapterOf(folderName string) string {
	if i := strings.Index(folderName, "_"); i >= 0 {
		return folderName[:i]
	}
	if r := []rune(folderName); len(r) >= 2 {
		return string(r[:2])
	}
	return folderName
}

// ChapterTitle is the display title used for a chapter and as expansion-state key.
func ChapterTitle(chapter string) string {
	return "Kapitel " + chapter
}

// Scan walks the immediate subdirectories of root and classifies each one.
// A missing or unreadable root yields an empty result.
func Scan(root string) []ChapterGroup {
	items, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	// os.ReadDir already sorts by name; keep it explicit for readers of the invariant.
	sort.Slice(items, func(i, j int) bool { return items[i].Name() < items[j].Name() })

	groups := make(map[string][]Entry)
	for _, item := range items {
		name := item.Name()
		if !isDir(root, item) || strings.HasPrefix(name, ".") || name == "__pycache__" {
			continue
		}
		chapter := ChapterOf(name)
		groups[chapter] = append(groups[chapter], classify(root, name, chapter)...)
	}

	chapters := make([]string, 0, len(groups))
	for ch := range groups {
		chapters = append(chapters, ch)
	}
	sort.Strings(chapters)

	result := make([]ChapterGroup, 0, len(chapters))
	for _, ch := range chapters {
		result = append(result, ChapterGroup{
			Chapter: ch,
			Title:   ChapterTitle(ch),
			Entries: groups[ch],
		})
	}
	return result
}

func classify(root, folderName, chapter string) []Entry {
	dir := filepath.Join(root, folderName)
	hasSubmissions := dirExists(filepath.Join(dir, SubmissionsDir))

	if fileExists(filepath.Join(dir, AppMarker)) {
		return []Entry{{
			Kind:                 KindApp,
			Chapter:              chapter,
			FolderName:           folderName,
			Label:                folderName,
			RunTarget:            "labs." + folderName,
			HasSubmissionsFolder: hasSubmissions,
		}}
	}

	scripts := topLevelScripts(dir)
	if len(scripts) == 0 {
		// no programming task: still one card for document submissions
		return []Entry{{
			Kind:                 KindDocument,
			Chapter:              chapter,
			FolderName:           folderName,
			Label:                folderName,
			HasSubmissionsFolder: hasSubmissions,
		}}
	}

	entries := make([]Entry, 0, len(scripts))
	for _, script := range scripts {
		entries = append(entries, Entry{
			Kind:                 KindScript,
			Chapter:              chapter,
			FolderName:           folderName,
			Label:                folderName + " / " + script,
			RunTarget:            "labs/" + folderName + "/" + script,
			HasSubmissionsFolder: hasSubmissions,
		})
	}
	return entries
}

// topLevelScripts lists script files directly inside dir. Helper folders such as
// _core/, assignments/ and templates/ are never descended into.
func topLevelScripts(dir string) []string {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, item := range items {
		name := item.Name()
		if item.IsDir() {
			continue
		}
		if filepath.Ext(name) != ScriptExt || strings.HasPrefix(name, "__") {
			continue
		}
		if !fileExists(filepath.Join(dir, name)) {
			continue
		}
		scripts = append(scripts, name)
	}
	sort.Strings(scripts)
	return scripts
}

// GroupByFolder splits entries into per-folder groups, ordered by first occurrence.
func GroupByFolder(entries []Entry) []FolderGroup {
	var groups []FolderGroup
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.FolderName]
		if !ok {
			i = len(groups)
			index[e.FolderName] = i
			groups = append(groups, FolderGroup{FolderName: e.FolderName})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// Find returns the entry of folderName with the given run target.
// An empty target matches the folder's first entry.
func Find(groups []ChapterGroup, folderName, runTarget string) (Entry, bool) {
	for _, g := range groups {
		for _, e := range g.Entries {
			if e.FolderName != folderName {
				continue
			}
			if runTarget == "" || e.RunTarget == runTarget {
				return e, true
			}
		}
	}
	return Entry{}, false
}

func isDir(root string, item os.DirEntry) bool {
	if item.IsDir() {
		return true
	}
	// follow symlinked lab folders
	if item.Type()&os.ModeSymlink != 0 {
		return dirExists(filepath.Join(root, item.Name()))
	}
	return false
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
