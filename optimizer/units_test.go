package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitUnits_GoFunctions(t *testing.T) {
	source := `func Add(a, b int) int {
	sum := a + b

	return sum
}

func Sub(a, b int) int {
	return a - b
}`

	units := splitUnits(source)
	require.Len(t, units, 2)

	assert.Equal(t, "func Add(a, b int) int {", units[0].header)
	assert.True(t, units[0].isDecl)
	assert.Contains(t, units[0].body, "return sum")
	assert.Contains(t, units[0].body, "}")

	assert.Equal(t, "func Sub(a, b int) int {", units[1].header)
	assert.Contains(t, units[1].body, "return a - b")
}

func TestSplitUnits_PythonDefs(t *testing.T) {
	source := `def add(a, b):
    return a + b

def sub(a, b):
    return a - b

class Calculator:
    pass`

	units := splitUnits(source)
	require.Len(t, units, 3)
	assert.Equal(t, "def add(a, b):", units[0].header)
	assert.Equal(t, "def sub(a, b):", units[1].header)
	assert.Equal(t, "class Calculator:", units[2].header)
	for _, u := range units {
		assert.True(t, u.isDecl)
	}
}

func TestSplitUnits_ProseParagraphs(t *testing.T) {
	source := `The first paragraph talks about setup.
It has two lines.

The second paragraph covers teardown.`

	units := splitUnits(source)
	require.Len(t, units, 2)
	assert.Equal(t, "The first paragraph talks about setup.", units[0].header)
	assert.False(t, units[0].isDecl)
	assert.Contains(t, units[0].body, "two lines")
	assert.Equal(t, "The second paragraph covers teardown.", units[1].header)
}

func TestSplitUnits_BlankLineInsideDeclBody(t *testing.T) {
	// A blank line followed by indented code must not split the declaration.
	source := `def process(items):
    first = items[0]

    return first

Unrelated trailing prose.`

	units := splitUnits(source)
	require.Len(t, units, 2)
	assert.Contains(t, units[0].body, "return first")
	assert.Equal(t, "Unrelated trailing prose.", units[1].header)
}

func TestSplitUnits_Degenerate(t *testing.T) {
	assert.Empty(t, splitUnits(""))
	assert.Empty(t, splitUnits("   \n\n\t\n"))

	units := splitUnits("single line")
	require.Len(t, units, 1)
	assert.Equal(t, "single line", units[0].header)
	assert.Equal(t, "single line", units[0].body)
}
