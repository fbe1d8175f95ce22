package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_PlainWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success("migrated %s", "wallet")
	p.Fail("broken")
	p.Faint("detail")

	assert.Equal(t, "✔ migrated wallet\n✘ broken\n  detail\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.NotContains(t, buf.String(), "\x1b[")
}
