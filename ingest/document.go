package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lecternproj/lectern/model"
)

// LoadDocument reads every page of a source document into the document
// model and collects its embedded assets. The title falls back to the
// file name when metadata has none.
func LoadDocument(r Reader, id, path string) (*model.Document, []Asset, error) {
	title := strings.TrimSpace(r.Title())
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc := model.NewDocument(id, path, title)

	var assets []Asset
	for i := 0; i < r.PageCount(); i++ {
		content, err := r.Content(i)
		if err != nil {
			return nil, nil, fmt.Errorf("load page %d: %w", i, err)
		}

		page := model.NewPage(content.Width, content.Height)
		page.Lines = content.Lines
		for _, line := range content.Lines {
			page.Words = append(page.Words, SplitWords(line)...)
		}
		doc.AddPage(page)

		for _, a := range content.Assets {
			a.PageIndex = i
			assets = append(assets, a)
		}
	}
	if doc.PageCount == 0 {
		return nil, nil, fmt.Errorf("document %s has no pages", path)
	}
	return doc, assets, nil
}
