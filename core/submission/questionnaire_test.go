package submission

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeoRoessmann/KT-course/tests"
)

func TestStore_OpenQuestionnaire(t *testing.T) {
	store, _ := newStore(t)
	dir := store.Dir(scriptLab)

	_, _, err := store.OpenQuestionnaire(scriptLab)
	assert.Equal(t, ErrNoQuestionnaire, err)

	testutil.WriteFile(t, filepath.Join(dir, "questions.md"), "# Fragen\n1. Warum?\n")
	path, created, err := store.OpenQuestionnaire(scriptLab)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, "answers.md"), path)
	assert.Equal(t, "# Fragen\n1. Warum?\n", testutil.ReadFile(t, path))

	testutil.WriteFile(t, path, "# Fragen\n1. Darum.\n")
	path, created, err = store.OpenQuestionnaire(scriptLab)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "# Fragen\n1. Darum.\n", testutil.ReadFile(t, path), "existing answers are never overwritten")
}

func TestStore_QuestionsPathOrder(t *testing.T) {
	store, _ := newStore(t)
	dir := store.Dir(scriptLab)

	testutil.WriteFile(t, filepath.Join(dir, "questions.txt"), "txt")
	p, ok := store.QuestionsPath(scriptLab)
	require.True(t, ok)
	assert.Equal(t, "questions.txt", filepath.Base(p))

	testutil.WriteFile(t, filepath.Join(dir, "questions.docx"), "docx")
	p, _ = store.QuestionsPath(scriptLab)
	assert.Equal(t, "questions.docx", filepath.Base(p))

	testutil.WriteFile(t, filepath.Join(dir, "questions.md"), "md")
	p, _ = store.QuestionsPath(scriptLab)
	assert.Equal(t, "questions.md", filepath.Base(p))

	_, ok = store.AnswersPath(scriptLab)
	assert.False(t, ok)
}

func TestStore_MergeConsoleLog(t *testing.T) {
	tests := []struct {
		name    string
		answers string
		content string
		want    string
		err     error
	}{
		{
			name:    "markdown is fenced",
			answers: "answers.md",
			content: "A\n\n",
			want:    "A\n\n---\n\n## Konsolenausgabe\n\n```\nline 1\nline 2\n```\n",
		},
		{
			name:    "plain text",
			answers: "answers.txt",
			content: "A  \n",
			want:    "A\n\n---\n\n## Konsolenausgabe\n\nline 1\nline 2\n",
		},
		{
			name:    "docx is rejected",
			answers: "answers.docx",
			content: "PK",
			err:     ErrUnsupportedAnswers,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newStore(t)
			dir := store.Dir(scriptLab)
			testutil.WriteFile(t, filepath.Join(dir, tt.answers), tt.content)
			testutil.WriteFile(t, filepath.Join(dir, ConsoleLogFile), "\n  line 1\nline 2\n\n")

			err := store.MergeConsoleLog(scriptLab)
			if tt.err != nil {
				assert.Equal(t, tt.err, err)
				assert.Equal(t, tt.content, testutil.ReadFile(t, filepath.Join(dir, tt.answers)))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, testutil.ReadFile(t, filepath.Join(dir, tt.answers)))
		})
	}
}

func TestStore_MergeConsoleLogMissingInputs(t *testing.T) {
	store, _ := newStore(t)
	dir := store.Dir(scriptLab)

	assert.Equal(t, ErrNoConsoleLog, store.MergeConsoleLog(scriptLab))

	testutil.WriteFile(t, filepath.Join(dir, ConsoleLogFile), "out")
	assert.Equal(t, ErrNoAnswers, store.MergeConsoleLog(scriptLab))

	// a questionnaire alone is not enough: the answers file is not created
	testutil.WriteFile(t, filepath.Join(dir, "questions.md"), "Q\n")
	assert.Equal(t, ErrNoAnswers, store.MergeConsoleLog(scriptLab))
	_, ok := store.AnswersPath(scriptLab)
	assert.False(t, ok)
}

func TestStore_AnswersProgress(t *testing.T) {
	store, _ := newStore(t)
	dir := store.Dir(scriptLab)

	_, ok := store.AnswersProgress(scriptLab)
	assert.False(t, ok)

	testutil.WriteFile(t, filepath.Join(dir, "questions.md"), "1. a\n2. b\n3. c\n4. d\n")
	_, ok = store.AnswersProgress(scriptLab)
	assert.False(t, ok, "no answers yet")

	_, _, err := store.OpenQuestionnaire(scriptLab)
	require.NoError(t, err)
	ratio, ok := store.AnswersProgress(scriptLab)
	require.True(t, ok)
	assert.Equal(t, 1.0, ratio)

	testutil.WriteFile(t, filepath.Join(dir, "answers.md"), "1. a\n2. answered\n3. c\n4. answered\n")
	ratio, ok = store.AnswersProgress(scriptLab)
	require.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 0.001)
}
