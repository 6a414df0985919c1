package mcp

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>OCR Agent Pro</title>
<style>
  body { margin: 0; font-family: system-ui, sans-serif; background: #f7f5ef; color: #1f2933; }
  main { max-width: 640px; margin: 4rem auto; padding: 0 1.25rem; }
  h1 { font-size: 1.6rem; margin: 0 0 0.4rem; }
  p.lead { color: #52606d; margin: 0 0 2rem; }
  h2 { font-size: 0.8rem; text-transform: uppercase; letter-spacing: 0.08em; color: #7b8794; margin: 1.5rem 0 0.5rem; }
  pre { background: #fff; border: 1px solid #e4e7eb; border-radius: 6px; padding: 0.9rem; font-size: 0.85rem; }
  ul { padding-left: 1.1rem; }
  a { color: #0b6e4f; }
</style>
</head>
<body>
<main>
  <h1>OCR Agent Pro</h1>
  <p class="lead">Chunk and retrieve over scanned curriculum documents, textbooks and progressions via the Model Context Protocol.</p>

  <h2>Tools</h2>
  <pre><code>search_chunks  fetch_document  list_documents
ingest_text    get_index_status  get_model_info</code></pre>

  <h2>Endpoints</h2>
  <ul>
    <li><a href="/mcp">/mcp</a> MCP Streamable HTTP</li>
    <li><a href="/health">/health</a> storage and embedding health</li>
  </ul>
</main>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(landingHTML))
	}
}
