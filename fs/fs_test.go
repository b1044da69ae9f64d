package fs

import (
	"archive/zip"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryFileSystem(t *testing.T) {
	fs := NewMemoryFileSystem("/out")
	assert.NotNil(t, fs)
	assert.IsType(t, &afero.MemMapFs{}, fs.Fs)
	assert.Equal(t, "/out", fs.Root)
}

func TestNewOsFileSystem(t *testing.T) {
	fs := NewOsFileSystem("build")
	assert.NotNil(t, fs)
	assert.IsType(t, &afero.OsFs{}, fs.Fs)
}

func TestPersist_CreatesParentDirectories(t *testing.T) {
	fs := NewMemoryFileSystem("/out")

	full, err := fs.Persist("src/app/main.py", "print('hi')")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "src", "app", "main.py"), full)

	isDir, err := afero.DirExists(fs.Fs, "/out/src/app")
	require.NoError(t, err)
	assert.True(t, isDir)
	content, err := afero.ReadFile(fs.Fs, "/out/src/app/main.py")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(content))
}

func TestPersist_Overwrites(t *testing.T) {
	fs := NewMemoryFileSystem("/out")
	_, err := fs.Persist("README.md", "a much longer first version")
	require.NoError(t, err)
	_, err = fs.Persist("README.md", "second")
	require.NoError(t, err)

	content, err := afero.ReadFile(fs.Fs, "/out/README.md")
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestPersist_RejectsEscapingPaths(t *testing.T) {
	fs := NewMemoryFileSystem("/out")
	for _, name := range []string{"../etc/passwd", "/etc/passwd", "a/../../b", "..", "", "  "} {
		t.Run(name, func(t *testing.T) {
			_, err := fs.Persist(name, "x")
			assert.ErrorIs(t, err, ErrPathEscapesRoot)
		})
	}
	exists, err := afero.Exists(fs.Fs, "/etc/passwd")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"app.py":             "app.py",
		"./src/main.go":      filepath.FromSlash("src/main.go"),
		"src//app/../db.py":  filepath.FromSlash("src/db.py"),
		"static\\css\\a.css": filepath.FromSlash("static/css/a.css"),
	}
	if filepath.Separator == '/' {
		// backslashes are ordinary characters on unix
		tests["static\\css\\a.css"] = "static\\css\\a.css"
	}
	for in, want := range tests {
		got, err := CleanPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCreateFile(t *testing.T) {
	fs := NewMemoryFileSystem("/out")
	err := fs.CreateFile("/out/test/file.txt")
	assert.NoError(t, err)

	exists, err := afero.Exists(fs.Fs, "/out/test/file.txt")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestListFiles(t *testing.T) {
	fs := NewMemoryFileSystem("/out")
	_, err := fs.Persist("test/file.txt", "Hello, World!")
	require.NoError(t, err)
	_, err = fs.Persist("README.md", "# hi")
	require.NoError(t, err)

	structure, err := fs.ListFiles()
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"README.md": nil,
		"test":      map[string]interface{}{"file.txt": nil},
	}, structure)
}

func TestWriteToZip(t *testing.T) {
	fs := NewMemoryFileSystem("/out")
	_, err := fs.Persist("test/file.txt", "Hello, World!")
	require.NoError(t, err)

	zipPath := filepath.Join(t.TempDir(), "build.zip")
	require.NoError(t, fs.WriteToZip(zipPath))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"test/", "test/file.txt"}, names)
}

func TestWriteToZip_Empty(t *testing.T) {
	fs := NewMemoryFileSystem("/out")
	require.NoError(t, fs.Fs.MkdirAll("/out", 0755))
	err := fs.WriteToZip(filepath.Join(t.TempDir(), "empty.zip"))
	assert.Error(t, err)
}

func TestGenerationLog_Append(t *testing.T) {
	mem := afero.NewMemMapFs()
	l := NewGenerationLog(mem, "/logs/gen.log")
	l.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }

	require.NoError(t, l.Append("README.md", "# Hello"))
	require.NoError(t, l.Append("app.py", "print(1)"))

	content, err := afero.ReadFile(mem, "/logs/gen.log")
	require.NoError(t, err)
	assert.Equal(t,
		"=== Generating README.md at 2024-03-04 05:06:07 ===\n# Hello\n\n"+
			"=== Generating app.py at 2024-03-04 05:06:07 ===\nprint(1)\n\n",
		string(content))
}

func TestGenerationLog_Disabled(t *testing.T) {
	l := NewGenerationLog(afero.NewMemMapFs(), "")
	assert.Nil(t, l)
	assert.NoError(t, l.Append("README.md", "x"))
	assert.Equal(t, "", l.Path())
}
