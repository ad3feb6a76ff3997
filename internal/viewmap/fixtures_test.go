package viewmap

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// readGolden reads a reference view map: one scanline per line, decimal
// bytes separated by spaces, '#' starts a comment line.
func readGolden(t *testing.T, name string) []byte {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	var out []byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseUint(field, 10, 8)
			require.NoError(t, err)
			out = append(out, byte(v))
		}
	}
	require.NoError(t, sc.Err())
	return out
}

func TestLegacyFixtures(t *testing.T) {
	tests := []struct {
		golden    string
		angle     int32
		alignment Alignment
	}{
		{"deprecated_positive.golden", 1, AlignCompatibleDeprecated},
		{"deprecated_negative.golden", -1, AlignCompatibleDeprecated},
		{"mpv.golden", 1, AlignCompatibleMPV},
	}
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			m := mustMonitor(t, MonitorParams{
				PixelCountX:      4,
				PixelCountY:      3,
				ViewCount:        4,
				LensWidth:        2,
				LensAngleCounter: tt.angle,
			})
			vm, err := Build(m, BuildOptions{Alignment: tt.alignment, EnlargeX: true, EnlargeY: true})
			require.NoError(t, err)
			require.Equal(t, uint8(4), vm.ViewCount)

			want := readGolden(t, tt.golden)
			if diff := cmp.Diff(want, vm.Data); diff != "" {
				t.Errorf("view map mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
