package redirect

import (
	"html/template"
	"io"
)

type pageData struct {
	Title   string
	Message string
	Relay   bool
}

// The relay script merges the fragment into the query and replaces the
// history entry so the token does not stay in the browser's back stack.
var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em">
<h2>{{.Title}}</h2>
<p>{{.Message}}</p>
{{- if .Relay}}
<script>
  var params = new URLSearchParams(window.location.search);
  new URLSearchParams(window.location.hash.slice(1)).forEach(function (v, k) { params.set(k, v); });
  window.location.replace("/complete?" + params.toString());
</script>
{{- end}}
</body>
</html>
`))

func renderPage(w io.Writer, d pageData) error {
	return pageTmpl.Execute(w, d)
}
