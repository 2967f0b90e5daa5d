package cache

// viewCache holds fully rendered pages keyed by request path. A mutation
// invalidates the paths it made stale; the next request re-renders and
// repopulates the entry.
var viewCache = NewCache[string, []byte]()

func GetView(path string) ([]byte, bool) {
	return viewCache.Get(path)
}

func SetView(path string, html []byte) {
	viewCache.Set(path, html)
}

func InvalidateView(path string) {
	viewCache.Delete(path)
}

func ClearViews() {
	viewCache.Clear()
}

// RenderedContent represents cached rendered markdown.
type RenderedContent struct {
	HTML []byte
}

// renderedMarkdownCache is keyed by content hash, so stale entries are never
// served for changed content; they just stop being referenced.
var renderedMarkdownCache = NewCache[string, *RenderedContent]()

func GetRenderedMarkdown(contentHash string) (*RenderedContent, bool) {
	return renderedMarkdownCache.Get(contentHash)
}

func SetRenderedMarkdown(contentHash string, html []byte) {
	renderedMarkdownCache.Set(contentHash, &RenderedContent{HTML: html})
}

func ClearRenderedMarkdownCache() {
	renderedMarkdownCache.Clear()
}
