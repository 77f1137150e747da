package htmldoc

import (
	"testing"
)

func TestParse(t *testing.T) {
	parser := NewParser()

	doc, err := parser.Parse([]byte(`<html><head><title>Hi</title><meta property="og:title" content="X"></head><body><img src="/a.png"></body></html>`), "text/html")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := doc.Find("title").Text(); got != "Hi" {
		t.Errorf("title = %q, want Hi", got)
	}
	if got := doc.Find("meta").Length(); got != 1 {
		t.Errorf("meta count = %d, want 1", got)
	}
	if src, _ := doc.Find("img").Attr("src"); src != "/a.png" {
		t.Errorf("img src = %q, want /a.png", src)
	}
}

func TestParseMalformed(t *testing.T) {
	doc, err := NewParser().Parse([]byte(`<div><p>unclosed <b>bold</div></span>`), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := doc.Find("b").Text(); got != "bold" {
		t.Errorf("b text = %q, want bold", got)
	}
}

func TestParseCharset(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
		want        string
	}{
		{
			name:        "Charset from the header",
			body:        []byte("<title>Caf\xe9</title>"),
			contentType: "text/html; charset=iso-8859-1",
			want:        "Café",
		},
		{
			name: "Charset from a meta declaration",
			body: []byte(`<meta charset="windows-1252"><title>` + "\x93quoted\x94" + `</title>`),
			want: "\u201cquoted\u201d",
		},
		{
			name:        "UTF-8 passes through",
			body:        []byte("<title>Caf\u00e9 \u2615</title>"),
			contentType: "text/html; charset=utf-8",
			want:        "Caf\u00e9 \u2615",
		},
		{
			name: "UTF-8 without any declaration",
			body: []byte("<title>na\u00efve</title>"),
			want: "na\u00efve",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewParser().Parse(tt.body, tt.contentType)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := doc.Find("title").Text(); got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBodyText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "Concatenates without separators",
			html: `<body><p>one</p><p>two</p></body>`,
			want: "onetwo",
		},
		{
			name: "Skips script, style and comments",
			html: `<body>a<script>var x = 1;</script><style>p{}</style><!-- hidden -->b</body>`,
			want: "ab",
		},
		{
			name: "Only the direct parent matters",
			html: `<body><div>keep<span>this</span></div></body>`,
			want: "keepthis",
		},
		{
			name: "Head text is excluded",
			html: `<html><head><title>Title</title></head><body>body</body></html>`,
			want: "body",
		},
		{
			name: "Noscript content parsed as markup",
			html: `<body><noscript><p>enable js</p></noscript></body>`,
			want: "enable js",
		},
		{
			name: "Entities decoded",
			html: `<body>Tom &amp; Jerry</body>`,
			want: "Tom & Jerry",
		},
		{
			name: "Whitespace preserved",
			html: "<body><p>Line1\n\n  Line2</p></body>",
			want: "Line1\n\n  Line2",
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.Parse([]byte(tt.html), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, ok := BodyText(doc)
			if !ok {
				t.Fatal("BodyText() reported no body")
			}
			if got != tt.want {
				t.Errorf("BodyText() = %q, want %q", got, tt.want)
			}
		})
	}
}
