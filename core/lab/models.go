package lab

// Kind classifies what a lab folder offers.
type Kind string

const (
	KindApp      Kind = "app"
	KindScript   Kind = "script"
	KindDocument Kind = "document"
)

// Folder and file names with special meaning inside the labs root.
const (
	AppMarker      = "__main__.py"
	SubmissionsDir = "submissions"
	ScriptExt      = ".py"
)

// Entry is one launchable or viewable unit on the dashboard.
type Entry struct {
	Kind                 Kind   `json:"kind"`
	Chapter              string `json:"chapter"`
	FolderName           string `json:"folder_name"`
	Label                string `json:"label"`
	RunTarget            string `json:"run_target"` // module path for apps, file path for scripts
	HasSubmissionsFolder bool   `json:"has_submissions_folder"`
}

func (e Entry) Launchable() bool {
	return e.Kind != KindDocument && e.RunTarget != ""
}

// ChapterGroup holds the entries sharing a chapter code, in scan order.
type ChapterGroup struct {
	Chapter string  `json:"chapter"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// FolderGroup holds the entries of one lab folder; the dashboard renders one card per group.
type FolderGroup struct {
	FolderName string  `json:"folder_name"`
	Entries    []Entry `json:"entries"`
}

func (g FolderGroup) HasSubmissionsFolder() bool {
	for _, e := range g.Entries {
		if e.HasSubmissionsFolder {
			return true
		}
	}
	return false
}
