package xmldoc

import (
	"testing"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

func TestPrologDefaultsEncoding(t *testing.T) {
	require.Equal(t, "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\r\n\r\n", Prolog(""))
	require.Equal(t, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\r\n\r\n", Prolog("UTF-8"))
}

func TestEncodeLatin1(t *testing.T) {
	out, err := Encode([]byte("<t>café ☃</t>\n"), "ISO-8859-1")
	require.NoError(t, err)

	prolog := Prolog("ISO-8859-1")
	require.Equal(t, prolog, string(out[:len(prolog)]))
	body := out[len(prolog):]
	// é is representable; the snowman is not.
	require.Equal(t, []byte("<t>caf\xe9 &#9731;</t>\n"), body)
}

func TestEncodeUTF8Passthrough(t *testing.T) {
	out, err := Encode([]byte("<t>€</t>"), "utf-8")
	require.NoError(t, err)
	require.Equal(t, Prolog("utf-8")+"<t>€</t>", string(out))
}

func TestEncodeUnknownCharset(t *testing.T) {
	_, err := Encode([]byte("<t/>"), "x-klingon")
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestEncodeLatin1IsNotWindows1252(t *testing.T) {
	out, err := Encode([]byte("<a>price €5 ‘q’</a>"), "ISO-8859-1")
	require.NoError(t, err)
	body := string(out[len(Prolog("ISO-8859-1")):])
	require.Equal(t, "<a>price &#8364;5 &#8216;q&#8217;</a>", body)
}

func TestEncodeWindows1252(t *testing.T) {
	out, err := Encode([]byte("<a>€</a>"), "windows-1252")
	require.NoError(t, err)
	require.Equal(t, Prolog("windows-1252")+"<a>\x80</a>", string(out))
}

func TestEncodeCDATAClosesAroundReferences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"representable", "<b><![CDATA[café]]></b>", "<b><![CDATA[caf\xe9]]></b>"},
		{"trailing", "<b><![CDATA[snow ☃]]></b>", "<b><![CDATA[snow ]]>&#9731;</b>"},
		{"leading", "<b><![CDATA[☃ man]]></b>", "<b>&#9731;<![CDATA[ man]]></b>"},
		{"only", "<b><![CDATA[☃]]></b>", "<b>&#9731;</b>"},
		{"middle", "<b><![CDATA[a‘b’c]]></b>", "<b><![CDATA[a]]>&#8216;<![CDATA[b]]>&#8217;<![CDATA[c]]></b>"},
		{"split terminator", "<b><![CDATA[x]]]]><![CDATA[>☃]]></b>", "<b><![CDATA[x]]]]><![CDATA[>]]>&#9731;</b>"},
		{"outside", "<a>☃</a><b><![CDATA[<☃>]]></b>", "<a>&#9731;</a><b><![CDATA[<]]>&#9731;<![CDATA[>]]></b>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode([]byte(tt.in), "ISO-8859-1")
			require.NoError(t, err)
			require.Equal(t, tt.want, string(out[len(Prolog("ISO-8859-1")):]))
		})
	}
}

func TestEncodeDocumentCDATA(t *testing.T) {
	d := New()
	d.OpenGroup("plugin")
	d.AddTag("phpcode", "echo '☃';", true)
	require.NoError(t, d.CloseGroup())
	body, err := d.Bytes()
	require.NoError(t, err)

	out, err := Encode(body, "")
	require.NoError(t, err)
	require.Contains(t, string(out), "<phpcode><![CDATA[echo ']]>&#9731;<![CDATA[';]]></phpcode>")
}
