package render

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/transcription-studio/internal/analysis"
	"github.com/dygy/transcription-studio/internal/song"
)

func TestBuildRegionIDs(t *testing.T) {
	set := Build(song.Default(), nil)

	for _, id := range []string{"piano-transcription", "guitar-transcription", "drums-transcription"} {
		r, ok := set.Resolve(id)
		require.True(t, ok, id)
		assert.Equal(t, id, r.ID())
	}

	_, ok := set.Resolve("bass-transcription")
	assert.False(t, ok)
}

func TestParseView(t *testing.T) {
	v, err := ParseView(" Guitar ")
	require.NoError(t, err)
	assert.Equal(t, ViewGuitar, v)

	_, err = ParseView("banjo")
	assert.Error(t, err)
}

func TestDemoContent(t *testing.T) {
	info := song.Default()

	piano := BuildView(ViewPiano, info, nil)
	assert.Contains(t, strings.Join(piano.Lines(), "\n"), "Am - F - C - G")

	guitar := BuildView(ViewGuitar, info, nil)
	body := strings.Join(guitar.Lines(), "\n")
	assert.Contains(t, body, "x32010")
	assert.Contains(t, body, "E|--0--2--3--2--0--2--3--5--|")

	drums := BuildView(ViewDrums, info, nil)
	body = strings.Join(drums.Lines(), "\n")
	assert.Contains(t, body, "SD |----o-------o---|")
	assert.Contains(t, body, "Ride cymbal")
}

func TestAnalysisContent(t *testing.T) {
	a := &analysis.Analysis{
		Notes:            []analysis.Note{{Pitch: 69, Time: 0.25, Duration: 0.5, Velocity: 80}},
		ChordProgression: []string{"Am", "F"},
		Instruments: analysis.Instruments{
			Drums: analysis.Drums{Detected: true, Confidence: 0.4, Pattern: "4/4 Rock Beat"},
		},
	}
	info := song.FromUpload("take.wav", a)

	piano := BuildView(ViewPiano, info, a)
	assert.Equal(t, "take - Piano", piano.Title())
	assert.Contains(t, strings.Join(piano.Lines(), "\n"), "A4")

	guitar := BuildView(ViewGuitar, info, a)
	body := strings.Join(guitar.Lines(), "\n")
	assert.Contains(t, body, "Progression: Am - F")
	assert.NotContains(t, body, "Tablature")

	drums := BuildView(ViewDrums, info, a)
	assert.Contains(t, strings.Join(drums.Lines(), "\n"), "Pattern: 4/4 Rock Beat")
}

func TestRasterizeScalesOntoWhite(t *testing.T) {
	p := NewPanel("test", "Title", []string{"one", "two"})
	b := p.Bounds()

	img, err := p.Rasterize(ExportScale)
	require.NoError(t, err)

	assert.Equal(t, b.Dx()*2, img.Bounds().Dx())
	assert.Equal(t, b.Dy()*2, img.Bounds().Dy())

	// corners are background
	r, g, bl, a := img.At(0, 0).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, bl, a})

	// some text pixels were drawn
	dark := false
	for y := 0; y < img.Bounds().Dy() && !dark; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if c := color.GrayModel.Convert(img.At(x, y)).(color.Gray); c.Y < 0x40 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "expected text pixels")
}

func TestRasterizeRejectsBadScale(t *testing.T) {
	_, err := NewPanel("x", "x", nil).Rasterize(0)
	assert.Error(t, err)
}

func TestEncodePNG(t *testing.T) {
	img, err := NewPanel("x", "Title", []string{"line"}).Rasterize(1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
