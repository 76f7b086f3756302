package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsScript(t *testing.T) {
	cases := map[string]bool{
		"<script>alert(1)</script>":          true,
		"hello <SCRIPT src=x>":               true,
		"JavaScript:alert(1)":                true,
		"java script:alert(1)":               true,
		"#%3Cscript%3Ealert(1)%3C/script%3E": true,
		"javascript%3Avoid(0)":               true,
		"#about":                             false,
		"just some pasted text":              false,
		"description of scripts":             false,
	}
	for input, want := range cases {
		assert.Equal(t, want, ContainsScript(input), input)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 150)
	assert.Len(t, Truncate(long, ExcerptLimit), ExcerptLimit)
	assert.Equal(t, "short", Truncate("short", ExcerptLimit))

	multi := strings.Repeat("日", 120)
	got := Truncate(multi, ExcerptLimit)
	assert.Equal(t, ExcerptLimit, len([]rune(got)))
}

var (
	pngHead = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}
	exeHead = append([]byte{0x4D, 0x5A}, make([]byte, 64)...)
	zipHead = []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0, 0, 0}
)

func TestInspectHead(t *testing.T) {
	inspector := NewTypeInspector()

	res := inspector.InspectHead("logo.png", pngHead)
	assert.False(t, res.IsMasquerade)
	assert.Equal(t, "png", res.RealExt)

	res = inspector.InspectHead("invoice.pdf", exeHead)
	assert.True(t, res.IsMasquerade)
	assert.Equal(t, "exe", res.RealExt)
	assert.Equal(t, "HIGH", res.RiskLevel)

	res = inspector.InspectHead("report.docx", zipHead)
	assert.False(t, res.IsMasquerade)

	res = inspector.InspectHead("notes.txt", []byte("plain text"))
	assert.Equal(t, "unknown", res.RealExt)
	assert.Equal(t, "SAFE", res.RiskLevel)

	res = inspector.InspectHead("empty.bin", nil)
	assert.Equal(t, "Empty file", res.Message)
}

func TestAddAlias(t *testing.T) {
	inspector := NewTypeInspector()
	assert.True(t, inspector.InspectHead("photo.img", pngHead).IsMasquerade)

	inspector.AddAlias("png", "IMG")
	assert.False(t, inspector.InspectHead("photo.img", pngHead).IsMasquerade)
}
