package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	store, err := NewPromptStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "prompts"), store.Dir())

	// No I/O until first Load.
	_, err = os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	for _, f := range []string{"answer_system.txt", "answer_user.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_Defaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	system, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, system, "certified technician")

	user, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	rendered := fmt.Sprintf(user, "Oil: 5W-30", "Which oil?")
	assert.Contains(t, rendered, "---\nOil: 5W-30\n---")
	assert.Contains(t, rendered, "Question: Which oil?")
}

func TestPromptStore_Load_CustomContentAndTrim(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_system.txt"), []byte("\n  Be terse.  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", prompt)

	// Existing files are not overwritten by initialisation.
	data, err := os.ReadFile(filepath.Join(dir, "answer_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\n  Be terse.  \n", string(data))
}

func TestPromptStore_Load_FallsBackWhenFileDeleted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	store.Reload()
	require.NoError(t, os.Remove(filepath.Join(dir, "answer_user.txt")))

	prompt, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	want, ok := defaultPrompt(driven.PromptAnswerUser)
	require.True(t, ok)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_UnwritableDirUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "owner's manual assistant")

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestDefaultPrompt(t *testing.T) {
	user, ok := defaultPrompt(driven.PromptAnswerUser)
	require.True(t, ok)
	assert.Equal(t, 2, strings.Count(user, "%s"))

	_, ok = defaultPrompt("README")
	assert.False(t, ok, "only .txt files are prompts")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload_PicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	path := filepath.Join(dir, "answer_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0600))

	cached, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.NotEqual(t, "edited", cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "edited", fresh)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptAnswerSystem)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
