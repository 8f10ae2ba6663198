package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailqa/internal/service"
)

func TestLoadSampleQuestions(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		questions, err := service.LoadSampleQuestions("")
		require.NoError(t, err)
		assert.Equal(t, service.DefaultSampleQuestions(), questions)
		assert.Len(t, questions, 8)
	})

	t.Run("reads json array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "questions.json")
		require.NoError(t, os.WriteFile(path, []byte(`["Any invoices?", "Who wrote first?"]`), 0o600))

		questions, err := service.LoadSampleQuestions(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Any invoices?", "Who wrote first?"}, questions)
	})

	t.Run("rejects malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "questions.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o600))

		_, err := service.LoadSampleQuestions(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := service.LoadSampleQuestions(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestDefaultSampleQuestionsReturnsCopy(t *testing.T) {
	questions := service.DefaultSampleQuestions()
	questions[0] = "changed"
	assert.NotEqual(t, "changed", service.DefaultSampleQuestions()[0])
}
