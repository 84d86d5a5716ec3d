package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, src string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestFlattenText(t *testing.T) {
	doc := mustDoc(t, `<body>
		<p>Name: <b>Jane Doe</b></p>
		<script>var x = 1;</script>
		<p>   </p>
		<p>Age: 17</p>
	</body>`)
	require.Equal(t, "Name:\nJane Doe\nAge: 17", FlattenText(doc.Find("body"), "\n"))
}

func TestFirstText(t *testing.T) {
	doc := mustDoc(t, `<table><tr><td>2.0<br><span>(calc)</span></td><td><span>x</span></td></tr></table>`)

	text, ok := FirstText(doc.Find("td").First())
	require.True(t, ok)
	require.Equal(t, "2.0", text)

	_, ok = FirstText(doc.Find("td").Last())
	require.False(t, ok)

	_, ok = FirstText(doc.Find("th"))
	require.False(t, ok)
}

func TestGetAnchors(t *testing.T) {
	doc := mustDoc(t, `<div>
		<a href="profile.php?number=101">  Jane
			Doe </a>
		<a>no href</a>
		<a href="/x">X</a>
		<a href="profile.php?number=102">John	Roe</a>
	</div>`)
	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "Jane Doe", Href: "profile.php?number=101"},
		{Name: "X", Href: "/x"},
		{Name: "John Roe", Href: "profile.php?number=102"},
	}, anchors)
}

func TestCleanAnchorName(t *testing.T) {
	cases := map[string]string{
		"Jane\n\t\tDoe":       "Jane Doe",
		"  John   Roe ":       "John Roe",
		"Ann\u00a0Lee":        "Ann Lee",
		"Zero\u200bWidth Bob": "ZeroWidth Bob",
		"":                    "",
	}
	for input, expected := range cases {
		require.Equal(t, expected, cleanAnchorName(input), "input %q", input)
	}
}
