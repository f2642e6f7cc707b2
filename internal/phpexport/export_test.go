package phpexport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportNested(t *testing.T) {
	got := Export(Array{
		{Key: "/includes", Value: Array{
			{Key: "a.php", Value: "abc"},
		}},
		{Key: "count", Value: 2},
		{Key: "empty", Value: Array{}},
	})
	want := "array (\n" +
		"  '/includes' => \n" +
		"  array (\n" +
		"    'a.php' => 'abc',\n" +
		"  ),\n" +
		"  'count' => 2,\n" +
		"  'empty' => \n" +
		"  array (\n" +
		"  ),\n" +
		")"
	require.Equal(t, want, got)
}

func TestStringEscapes(t *testing.T) {
	require.Equal(t, `'it\'s a \\ path'`, String(`it's a \ path`))
}
