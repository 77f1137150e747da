package domain

// Default Open Graph type applied to every fetched page
const MetadataTypeWebsite = "website"

// Metadata is the link preview extracted from a web page.
// Zero value is the default record returned when no URL was found.
type Metadata struct {
	URL         string `json:"url"`
	Type        string `json:"type"` // https://ogp.me/#types
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// NewMetadata returns a fresh record for a page about to be extracted
func NewMetadata(url string) Metadata {
	return Metadata{
		URL:  url,
		Type: MetadataTypeWebsite,
	}
}

// IsEmpty reports whether m is the default record
func (m Metadata) IsEmpty() bool {
	return m == Metadata{}
}

func (m Metadata) String() string {
	return "{url: " + m.URL +
		", type: " + m.Type +
		", title: " + m.Title +
		", description: " + m.Description +
		", image: " + m.Image + "}"
}
