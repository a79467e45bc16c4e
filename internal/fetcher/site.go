package fetcher

import "context"

// Site ties the generic fetcher to one publisher price page and a local
// download directory.
type Site struct {
	Fetcher *Fetcher
	PageURL string
	PDFDir  string
}

// LatestCircularURL fetches the price page and returns the best circular
// link found on it, or "" when the page carries none.
func (s Site) LatestCircularURL(ctx context.Context) (string, error) {
	html, err := s.Fetcher.GetHTML(ctx, s.PageURL)
	if err != nil {
		return "", err
	}
	return FindLatestCircularURL(html, s.PageURL), nil
}

// Download retrieves the circular into the site's PDF directory and returns
// the local path.
func (s Site) Download(ctx context.Context, rawURL string) (string, error) {
	return s.Fetcher.DownloadPDF(ctx, rawURL, s.PDFDir)
}
