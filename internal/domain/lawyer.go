package domain

import (
	"time"
)

type LawyerPricing struct {
	Audio float64 `json:"audio"`
	Video float64 `json:"video"`
	Chat  float64 `json:"chat"`
}

type LawyerProfile struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	Specializations []string      `json:"specializations"`
	ExperienceYears int           `json:"experience_years"`
	Rating          float64       `json:"rating"`
	ReviewsCount    int           `json:"reviews_count"`
	Verified        bool          `json:"verified"`
	ImageURL        string        `json:"image_url"`
	Bio             string        `json:"bio"`
	Pricing         LawyerPricing `json:"pricing"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PriceFor returns the rate snapshotted into a request of the given service type.
func (l *LawyerProfile) PriceFor(t ServiceType) float64 {
	switch t {
	case ServiceTypeAudio:
		return l.Pricing.Audio
	case ServiceTypeVideo:
		return l.Pricing.Video
	case ServiceTypeChat:
		return l.Pricing.Chat
	}
	return 0
}
