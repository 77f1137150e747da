package domain

import "testing"

func TestNewMetadata(t *testing.T) {
	m := NewMetadata("https://example.com")

	if m.URL != "https://example.com" || m.Type != MetadataTypeWebsite {
		t.Errorf("NewMetadata() = %+v", m)
	}
	if m.IsEmpty() {
		t.Error("a fetched record should not be empty")
	}
}

func TestMetadataIsEmpty(t *testing.T) {
	if !(Metadata{}).IsEmpty() {
		t.Error("zero Metadata should be empty")
	}
	if (Metadata{Title: "x"}).IsEmpty() {
		t.Error("Metadata with a title should not be empty")
	}
}

func TestMetadataString(t *testing.T) {
	m := Metadata{
		URL:         "https://example.com",
		Type:        "article",
		Title:       "Recap",
		Description: "Demo day",
		Image:       "https://example.com/a.png",
	}

	want := "{url: https://example.com, type: article, title: Recap, description: Demo day, image: https://example.com/a.png}"
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (Metadata{}).String(); got != "{url: , type: , title: , description: , image: }" {
		t.Errorf("String() of the default record = %q", got)
	}
}

func TestIsValidPreviewStatus(t *testing.T) {
	for _, status := range []string{
		PreviewStatusPending, PreviewStatusProcessing, PreviewStatusComplete,
		PreviewStatusFailed, PreviewStatusSkipped,
	} {
		if !IsValidPreviewStatus(status) {
			t.Errorf("IsValidPreviewStatus(%q) = false", status)
		}
	}
	if IsValidPreviewStatus("done") {
		t.Error("IsValidPreviewStatus(\"done\") = true")
	}
}
