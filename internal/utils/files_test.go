package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureDirs(root, "data/raw", "output"))
	require.NoError(t, SafeWriteFile(filepath.Join(root, "project.json"), []byte("{}")))

	got, err := FindUp(filepath.Join(root, "data", "raw"), "project.json")
	require.NoError(t, err)
	require.Equal(t, root, got)

	_, err = os.Stat(filepath.Join(root, "project.json.tmp"))
	require.True(t, os.IsNotExist(err))

	_, err = FindUp(t.TempDir(), "project.json")
	require.ErrorIs(t, err, ErrNoProject)
}

func TestIsEmptyDir(t *testing.T) {
	dir := t.TempDir()
	empty, err := IsEmptyDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.True(t, empty)

	empty, err = IsEmptyDir(dir)
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0o644))
	empty, err = IsEmptyDir(dir)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandHome("~/.epsilon/projects")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".epsilon", "projects"), got)

	got, err = ExpandHome("/srv/models/../data")
	require.NoError(t, err)
	require.Equal(t, "/srv/data", got)
}
