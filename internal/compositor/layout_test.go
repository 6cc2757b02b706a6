package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_SymmetricAboutCentre(t *testing.T) {
	for n := 1; n <= 6; n++ {
		text := ""
		for i := range n {
			if i > 0 {
				text += "\n"
			}
			text += "line"
		}

		lines := Layout(text)
		require.Len(t, lines, n)
		for i := range lines {
			mirror := lines[n-1-i]
			assert.Equal(t, Size, lines[i].CenterY+mirror.CenterY, "n=%d i=%d", n, i)
		}
		for i := 1; i < n; i++ {
			assert.Equal(t, LinePitch, lines[i].CenterY-lines[i-1].CenterY)
		}
	}
}

func TestLayout_SingleLineCentred(t *testing.T) {
	lines := Layout("ستاروں سے آگے جہاں اور بھی ہیں")
	require.Len(t, lines, 1)
	assert.Equal(t, Size/2, lines[0].CenterY)
}

func TestLayout_TwoLines(t *testing.T) {
	lines := Layout("first\nsecond")
	require.Len(t, lines, 2)
	assert.Equal(t, Size/2-LinePitch/2, lines[0].CenterY)
	assert.Equal(t, Size/2+LinePitch/2, lines[1].CenterY)
}

func TestLayout_DropsBlankLinesAndTrims(t *testing.T) {
	lines := Layout("  one \n\n   \n two\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "one", lines[0].Text)
	assert.Equal(t, "two", lines[1].Text)
}

func TestLayout_Empty(t *testing.T) {
	assert.Empty(t, Layout(""))
}
