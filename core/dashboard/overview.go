// Package dashboard assembles the per-chapter view shown by the launcher:
// scanned lab entries joined with their sidecar state.
package dashboard

import (
	"path/filepath"
	"time"

	"github.com/LeoRoessmann/KT-course/core/lab"
	"github.com/LeoRoessmann/KT-course/core/launcher"
	"github.com/LeoRoessmann/KT-course/core/submission"
)

type (
	// Folder is one lab folder with everything the dashboard shows about it.
	Folder struct {
		FolderName           string                `json:"folder_name"`
		Entries              []lab.Entry           `json:"entries"`
		HasSubmissionsFolder bool                  `json:"has_submissions_folder"`
		DoneDate             string                `json:"done_date,omitempty"`
		Deadline             string                `json:"deadline,omitempty"`
		DeadlineDisplay      string                `json:"deadline_display,omitempty"`
		Reminder             *submission.Reminder  `json:"reminder,omitempty"`
		Questions            string                `json:"questions,omitempty"`
		Answers              string                `json:"answers,omitempty"`
		Progress             *float64              `json:"progress,omitempty"`
		HasConsoleLog        bool                  `json:"has_console_log"`
		HasTask              bool                  `json:"has_task"`
		HasDoc               bool                  `json:"has_doc"`
		HasUserTemplate      bool                  `json:"has_user_template"`
		Files                []submission.FileInfo `json:"files"`
	}

	Chapter struct {
		Chapter string   `json:"chapter"`
		Title   string   `json:"title"`
		Open    bool     `json:"open"`
		Folders []Folder `json:"folders"`
	}

	Overview struct {
		Today          string    `json:"today"`
		InstructorMode bool      `json:"instructor_mode"`
		SubmitEmail    string    `json:"submit_email,omitempty"`
		Chapters       []Chapter `json:"chapters"`
	}
)

// Service builds overviews from the labs folder and the sidecar files.
type Service struct {
	submissions *submission.Service
	expansion   *launcher.ExpansionStore
	key         *launcher.InstructorKey
}

func NewService(submissions *submission.Service, expansion *launcher.ExpansionStore, key *launcher.InstructorKey) *Service {
	return &Service{submissions: submissions, expansion: expansion, key: key}
}

// Scan returns the current chapter groups.
func (s *Service) Scan() []lab.ChapterGroup {
	return lab.Scan(s.submissions.Store().LabsDir())
}

// Overview scans the labs folder and collects the state of every folder.
func (s *Service) Overview(today time.Time) Overview {
	expanded := s.expansion.Load()
	o := Overview{
		Today:          today.Format("02.01.2006"),
		InstructorMode: s.key.Enabled(),
		SubmitEmail:    s.submissions.SubmitEmail(),
		Chapters:       []Chapter{},
	}
	for _, g := range s.Scan() {
		open, ok := expanded[g.Title]
		c := Chapter{Chapter: g.Chapter, Title: g.Title, Open: open || !ok}
		for _, fg := range lab.GroupByFolder(g.Entries) {
			c.Folders = append(c.Folders, s.folder(fg, today))
		}
		o.Chapters = append(o.Chapters, c)
	}
	return o
}

// Folder returns the state of a single lab folder.
func (s *Service) Folder(name string, today time.Time) (Folder, bool) {
	for _, g := range s.Scan() {
		for _, fg := range lab.GroupByFolder(g.Entries) {
			if fg.FolderName == name {
				return s.folder(fg, today), true
			}
		}
	}
	return Folder{}, false
}

func (s *Service) folder(fg lab.FolderGroup, today time.Time) Folder {
	store := s.submissions.Store()
	name := fg.FolderName
	f := Folder{
		FolderName:           name,
		Entries:              fg.Entries,
		HasSubmissionsFolder: fg.HasSubmissionsFolder(),
		HasConsoleLog:        store.HasConsoleLog(name),
		HasTask:              store.TaskMarkdown(name) != "",
		HasDoc:               store.DocMarkdown(name) != "",
		Files:                store.List(name),
	}
	f.DoneDate, _ = store.DoneDate(name)
	f.Deadline, _ = store.ReadDeadline(name)
	f.DeadlineDisplay, _ = store.DeadlineDisplay(name)
	if r, ok := store.Reminder(name, today); ok {
		f.Reminder = &r
	}
	if p, ok := store.QuestionsPath(name); ok {
		f.Questions = filepath.Base(p)
	}
	if p, ok := store.AnswersPath(name); ok {
		f.Answers = filepath.Base(p)
		if ratio, ok := store.AnswersProgress(name); ok {
			f.Progress = &ratio
		}
	}
	_, f.HasUserTemplate = store.UserTemplatePath(name)
	if f.Files == nil {
		f.Files = []submission.FileInfo{}
	}
	return f
}
