// Package ingest opens source documents and loads them into the document
// model.
//
// The backend is the MuPDF binding, wrapped behind the [Reader] interface
// so the pipeline and tests can run against canned content. Positioned
// text lines and embedded images come from MuPDF's structured-text HTML
// layer; page rasters come from the renderer at a caller-chosen DPI.
//
// Use [Open] to open a file, [Fingerprint] for its stable identity, and
// [LoadDocument] to read every page:
//
//	r, err := ingest.Open("paper.pdf")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	id, _ := ingest.Fingerprint("paper.pdf")
//	doc, assets, err := ingest.LoadDocument(r, id, "paper.pdf")
//
// All coordinates are points with the origin at the page's top-left
// corner and y growing downward.
package ingest
