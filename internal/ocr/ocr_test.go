package ocr

import (
	"context"
	"errors"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

type fakeRunner struct {
	stdout string
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("engine exploded"), f.err
	}
	return []byte(f.stdout), nil, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := imaging.New(64, 32, color.White)
	path := filepath.Join(dir, "receipt.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestExtract_ReturnsNormalizedText(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{stdout: "SHOP X\r\nMilk   2.50\r\n\r\n\r\n\r\nBread\t3.00\r\n"}
	x := NewExtractorWithRunner(Config{ArtifactCacheDir: dir}, runner, quietLogger())

	res, err := x.Extract(context.Background(), writePNG(t, dir))
	require.NoError(t, err)
	t.Cleanup(res.Cleanup)

	require.Equal(t, "SHOP X\nMilk 2.50\n\nBread 3.00", res.Text)
	require.Equal(t, "image-ocr", res.Method)
	require.FileExists(t, res.ProcessedPath)
	require.Len(t, runner.calls, 1)
	require.Equal(t, "tesseract", runner.calls[0][0])
	require.Equal(t, res.ProcessedPath, runner.calls[0][1])
}

func TestExtract_FailuresAreExtractionErrors(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("not an image"), 0o644))

	pdf := filepath.Join(dir, "receipt.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	cases := map[string]struct {
		path   string
		runner *fakeRunner
	}{
		"corrupt image":   {path: corrupt, runner: &fakeRunner{}},
		"unsupported ext": {path: pdf, runner: &fakeRunner{}},
		"missing file":    {path: filepath.Join(dir, "nope.png"), runner: &fakeRunner{}},
		"engine error":    {path: writePNG(t, dir), runner: &fakeRunner{err: errors.New("exit status 1")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			x := NewExtractorWithRunner(Config{}, tc.runner, quietLogger())
			_, err := x.Extract(context.Background(), tc.path)
			require.Error(t, err)
			require.ErrorIs(t, err, common.ErrExtraction)
		})
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "", Normalize(""))
	require.Equal(t, "G OLD\nGOLD BAR", Normalize("G OLD  \r\nG0LD BAR"))
	require.Equal(t, "a\n\nb", Normalize("a\n\n\n\n\nb"))
}

func TestHeuristicConfidence(t *testing.T) {
	low := heuristicConfidence("hello")
	high := heuristicConfidence("2024-01-02\nTOTAL $ 12.50\nMilk 2.50")
	require.Less(t, low, high)
	require.LessOrEqual(t, high, float32(1.0))
}

func TestMeanTSVConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tMilk\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t2.50\n" +
		"4\t1\t1\t1\t1\t0\t0\t0\t10\t10\t-1\t\n"
	require.InDelta(t, 0.8, meanTSVConfidence(tsv), 0.0001)
	require.Zero(t, meanTSVConfidence(""))
}

func TestConverterArgs(t *testing.T) {
	name, args, err := converterArgs("sips", "in.heic", "out.png")
	require.NoError(t, err)
	require.Equal(t, "sips", name)
	require.Equal(t, []string{"-s", "format", "png", "in.heic", "--out", "out.png"}, args)

	_, _, err = converterArgs("gimp", "a", "b")
	require.Error(t, err)
}
