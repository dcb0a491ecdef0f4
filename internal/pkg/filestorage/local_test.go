package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)

	url, err := ls.Save(strings.NewReader("jpeg bytes"), "photos", ".jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/photos/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	full := ls.GetFullPath(url)
	assert.Equal(t, filepath.Join(dir, "photos", filepath.Base(url)), full)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	require.NoError(t, ls.DeleteFile(url))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ls.DeleteFile(url), "deleting twice succeeds")
}

func TestLocalStorage_PathsStayInside(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	url, err := ls.Save(strings.NewReader("x"), "../../etc", ".txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ls.GetFullPath(url), dir))

	assert.Empty(t, ls.GetFullPath("/static/default-avatar.png"))
	assert.Empty(t, ls.GetFullPath("/uploads/../secret"))
	assert.Error(t, ls.DeleteFile("/elsewhere/file.jpg"))
}
