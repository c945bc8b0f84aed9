package events

import "github.com/moodatlas/mood-atlas/internal/app/models"

// SampleEvents is the bundled fallback set served when no API key is
// configured or the Discovery API is unreachable.
func SampleEvents() []models.Event {
	return []models.Event{
		{
			ID:         "sample-1",
			Name:       "Summer Music Festival",
			Date:       "2025-11-15",
			Time:       "18:00:00",
			Venue:      "Central Park",
			City:       "New York",
			State:      "NY",
			Image:      "https://images.unsplash.com/photo-1459749411175-04bf5292ceea?w=800",
			Category:   "Music",
			URL:        "#",
			PriceRange: "$50 - $150",
		},
		{
			ID:         "sample-2",
			Name:       "Comedy Night Live",
			Date:       "2025-11-18",
			Time:       "20:00:00",
			Venue:      "Comedy Club Downtown",
			City:       "Los Angeles",
			State:      "CA",
			Image:      "https://images.unsplash.com/photo-1585699324551-f6c309eedeca?w=800",
			Category:   "Comedy",
			URL:        "#",
			PriceRange: "$25 - $40",
		},
		{
			ID:         "sample-3",
			Name:       "Art Gallery Opening",
			Date:       "2025-11-20",
			Time:       "17:00:00",
			Venue:      "Modern Art Museum",
			City:       "Chicago",
			State:      "IL",
			Image:      "https://images.unsplash.com/photo-1578926314433-e2789279f4aa?w=800",
			Category:   "Arts",
			URL:        "#",
			PriceRange: "Free",
		},
	}
}
