package draft

import (
	"testing"
	"time"
)

func TestNewDraftHasDefaults(t *testing.T) {
	d := New()
	if d.Scheduling.Kind != ScheduleFlexible {
		t.Fatalf("scheduling kind = %v, want %v", d.Scheduling.Kind, ScheduleFlexible)
	}
	if d.Location.Mode != LocationInPerson {
		t.Fatalf("location mode = %v, want %v", d.Location.Mode, LocationInPerson)
	}
	if d.Attachments == nil {
		// nil slice is the defined default; iteration and append both work.
		_ = append(d.Attachments, Attachment{})
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := New()
	d.Title = "Paint the fence"
	d.Location = LocationSpec{
		Mode:        LocationInPerson,
		Address:     "Westlands, Nairobi",
		Coordinates: &Coordinates{Lat: -1.27, Lng: 36.81},
	}
	d.Attachments = []Attachment{{LocalID: "a1", Status: AttachmentUploaded, RemoteURL: "https://cdn.example/img1.jpg"}}

	clone := d.Clone()
	clone.Title = "changed"
	clone.Location.Coordinates.Lat = 0
	clone.Attachments[0].RemoteURL = "changed"

	if d.Title != "Paint the fence" {
		t.Fatal("clone mutation leaked into original title")
	}
	if d.Location.Coordinates.Lat != -1.27 {
		t.Fatal("clone mutation leaked into original coordinates")
	}
	if d.Attachments[0].RemoteURL != "https://cdn.example/img1.jpg" {
		t.Fatal("clone mutation leaked into original attachments")
	}
}

func TestUploadedImageURLsSkipsNonUploaded(t *testing.T) {
	d := New()
	d.Attachments = []Attachment{
		{LocalID: "a1", Status: AttachmentUploaded, RemoteURL: "https://cdn.example/1.jpg"},
		{LocalID: "a2", Status: AttachmentFailed},
		{LocalID: "a3", Status: AttachmentUploading, PreviewRef: "mem://a3"},
		{LocalID: "a4", Status: AttachmentUploaded, RemoteURL: "https://cdn.example/4.jpg"},
	}
	urls := d.UploadedImageURLs()
	if len(urls) != 2 || urls[0] != "https://cdn.example/1.jpg" || urls[1] != "https://cdn.example/4.jpg" {
		t.Fatalf("unexpected urls %v", urls)
	}
}

func TestCalendarDateOrdering(t *testing.T) {
	a := CalendarDate{Year: 2026, Month: time.March, Day: 14}
	b := CalendarDate{Year: 2026, Month: time.March, Day: 15}
	if !a.Before(b) {
		t.Fatal("expected a < b")
	}
	if b.Before(a) {
		t.Fatal("expected b >= a")
	}
	if a.Before(a) {
		t.Fatal("a date is not before itself")
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-03-14")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if d.String() != "2026-03-14" {
		t.Fatalf("round trip = %q, want %q", d.String(), "2026-03-14")
	}
	if _, err := ParseDate("14/03/2026"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestAttachmentStatusTerminal(t *testing.T) {
	if AttachmentPending.Terminal() || AttachmentUploading.Terminal() {
		t.Fatal("pending/uploading are not terminal")
	}
	if !AttachmentUploaded.Terminal() || !AttachmentFailed.Terminal() {
		t.Fatal("uploaded/failed are terminal")
	}
}
