package submission

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	questionsBase = "questions"
	answersBase   = "answers"

	consoleHeading = "\n\n---\n\n## Konsolenausgabe\n\n"
)

// questionnaireExts is the search order for questions/answers files.
var questionnaireExts = []string{".md", ".docx", ".txt"}

var (
	ErrNoQuestionnaire    = errors.New("no questionnaire found")
	ErrNoConsoleLog       = errors.New("no console log found")
	ErrNoAnswers          = errors.New("no answers file found, open the questionnaire first")
	ErrUnsupportedAnswers = errors.New("answers file format does not support merging")
)

// QuestionsPath returns the first existing submissions/questions<ext>.
func (s *Store) QuestionsPath(folder string) (string, bool) {
	return s.firstExisting(folder, questionsBase)
}

// AnswersPath returns the first existing submissions/answers<ext>.
func (s *Store) AnswersPath(folder string) (string, bool) {
	return s.firstExisting(folder, answersBase)
}

func (s *Store) firstExisting(folder, base string) (string, bool) {
	dir := s.Dir(folder)
	if dir == "" {
		return "", false
	}
	for _, ext := range questionnaireExts {
		p := filepath.Join(dir, base+ext)
		if isFile(p) {
			return p, true
		}
	}
	return "", false
}

// OpenQuestionnaire returns the answers file for folder, copying it from the
// questions file on first use. created reports whether the copy happened.
func (s *Store) OpenQuestionnaire(folder string) (path string, created bool, err error) {
	questions, ok := s.QuestionsPath(folder)
	if !ok {
		return "", false, ErrNoQuestionnaire
	}

	ext := filepath.Ext(questions)
	answers := filepath.Join(filepath.Dir(questions), answersBase+ext)
	if isFile(answers) {
		return answers, false, nil
	}
	if err := copyFile(questions, answers); err != nil {
		return "", false, errors.Wrap(err, "copying questionnaire")
	}
	return answers, true, nil
}

// MergeConsoleLog appends console_log.txt to the existing answers file under a
// "Konsolenausgabe" heading. Markdown answers get the log as a fenced block.
// The answers file is never created here; docx answers cannot be merged.
func (s *Store) MergeConsoleLog(folder string) error {
	logPath, ok := s.ConsoleLogPath(folder)
	if !ok {
		return ErrNoConsoleLog
	}
	answers, ok := s.AnswersPath(folder)
	if !ok {
		return ErrNoAnswers
	}
	ext := strings.ToLower(filepath.Ext(answers))
	if ext == ".docx" {
		return ErrUnsupportedAnswers
	}

	consoleLog, err := ioutil.ReadFile(logPath)
	if err != nil {
		return errors.Wrap(err, "reading console log")
	}
	existing, err := ioutil.ReadFile(answers)
	if err != nil {
		return errors.Wrap(err, "reading answers file")
	}

	body := strings.TrimSpace(string(consoleLog))
	if ext == ".md" {
		body = "```\n" + body + "\n```"
	}
	merged := strings.TrimRightFunc(string(existing), unicode.IsSpace) + consoleHeading + body + "\n"
	return errors.Wrap(ioutil.WriteFile(answers, []byte(merged), 0o644), "writing answers file")
}

// AnswersProgress returns the line similarity between questions and answers.
// 1.0 means the answers file is still an untouched copy.
func (s *Store) AnswersProgress(folder string) (float64, bool) {
	questions, ok := s.QuestionsPath(folder)
	if !ok || strings.HasSuffix(questions, ".docx") {
		return 0, false
	}
	answers, ok := s.AnswersPath(folder)
	if !ok || filepath.Ext(answers) != filepath.Ext(questions) {
		return 0, false
	}

	a := difflib.SplitLines(readText(questions))
	b := difflib.SplitLines(readText(answers))
	return difflib.NewMatcher(a, b).Ratio(), true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
