package extract

// Word is a single word on a page with its position, in points from the
// page's top-left corner.
type Word struct {
	Text string
	X    float64
	Y    float64
}

// Page is one decoded page: any table-shaped rows recovered from its layout
// plus every word with its position.
type Page struct {
	Tables [][][]string
	Words  []Word
}

// Document is a decoded multi-page PDF.
type Document struct {
	Pages []Page
}
