package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })

	var out, errOut bytes.Buffer
	return New(&out, &errOut), &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		p, out, errOut := newTestPrinter(t)

		err := p.Error("Storage unavailable", "could not open shareup.db")
		require.Error(t, err)
		assert.Equal(t, "Storage unavailable", err.Error())
		assert.Empty(t, out.String())
		assert.Equal(t, "Storage unavailable\n\ncould not open shareup.db\n", errOut.String())
	})

	t.Run("numbers multiple suggestions", func(t *testing.T) {
		p, _, errOut := newTestPrinter(t)

		_ = p.Error("Missing secret", "", "set SHAREUP_JWT_SECRET", "add it to .env")
		assert.Contains(t, errOut.String(), "Either:\n  1. set SHAREUP_JWT_SECRET\n  2. add it to .env\n")
	})

	t.Run("prints a single suggestion plainly", func(t *testing.T) {
		p, _, errOut := newTestPrinter(t)

		_ = p.Error("Missing secret", "", "set SHAREUP_JWT_SECRET")
		assert.NotContains(t, errOut.String(), "Either:")
		assert.Contains(t, errOut.String(), "set SHAREUP_JWT_SECRET\n")
	})
}

func TestOutputLines(t *testing.T) {
	p, out, errOut := newTestPrinter(t)

	p.Step("migrating %s", "sqlite")
	p.Success("applied %d migrations", 2)
	p.Warning("retention disabled")
	p.Field("expired", 3)
	p.Raw("token-value")

	assert.Equal(t, "→ migrating sqlite\n✓ applied 2 migrations\n! retention disabled\n  expired:               3\ntoken-value\n", out.String())
	assert.Empty(t, errOut.String())
}
