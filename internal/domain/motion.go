package domain

// MotionTemplate is a curated dance motion users can apply to a character
// image. The catalog is static; templates are referenced by ID from jobs.
type MotionTemplate struct {
	ID              string
	Name            string
	Category        string
	ThumbnailURL    string
	DurationSeconds int
}

// MotionCatalog returns the built-in motion templates.
func MotionCatalog() []MotionTemplate {
	return []MotionTemplate{
		{ID: "motion-1", Name: "Afro Vibe 01", Category: "Afrobeats", ThumbnailURL: "https://picsum.photos/300/200?random=1", DurationSeconds: 8},
		{ID: "motion-2", Name: "Amapiano Shuffle", Category: "Amapiano", ThumbnailURL: "https://picsum.photos/300/200?random=2", DurationSeconds: 10},
		{ID: "motion-3", Name: "Urban Glide", Category: "Hip-Hop", ThumbnailURL: "https://picsum.photos/300/200?random=3", DurationSeconds: 7},
		{ID: "motion-4", Name: "Freestyle Flow", Category: "Freestyle", ThumbnailURL: "https://picsum.photos/300/200?random=4", DurationSeconds: 12},
	}
}

// FindMotion looks up a template by ID.
func FindMotion(id string) (MotionTemplate, bool) {
	for _, m := range MotionCatalog() {
		if m.ID == id {
			return m, true
		}
	}
	return MotionTemplate{}, false
}
