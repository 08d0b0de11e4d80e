package web

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
)

func TestTemplatesParse(t *testing.T) {
	tpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	for _, name := range []string{"index.html", "info.html", "monitor.html", "vulnerable.html", "error.html"} {
		if tpl.Lookup(name) == nil {
			t.Fatalf("template %s missing", name)
		}
	}
}

func TestGreetingTemplateEscapes(t *testing.T) {
	tpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}

	var buf bytes.Buffer
	data := struct{ Title, Username string }{"Greeting", "<b>{{7*7}}</b>"}
	if err := tpl.ExecuteTemplate(&buf, "vulnerable.html", data); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "Hello, &lt;b&gt;{{7*7}}&lt;/b&gt;!") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestStaticAssets(t *testing.T) {
	static, err := Static()
	if err != nil {
		t.Fatalf("Static: %v", err)
	}
	for _, name := range []string{"style.css", "monitor.js"} {
		if _, err := fs.Stat(static, name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := formatPct(37.25); got != "37.2%" && got != "37.3%" {
		t.Fatalf("formatPct = %q", got)
	}
	if got := formatPct(0); got != "0.0%" {
		t.Fatalf("formatPct(0) = %q", got)
	}
}
