package subscription

import (
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/usecase/notify"
	subUC "fintech-news/internal/usecase/subscription"
)

type KeysDTO struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type QuietHoursDTO struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// PreferencesDTO is used for both requests and responses. In requests,
// omitted fields take the registration defaults.
type PreferencesDTO struct {
	Enabled    *bool          `json:"enabled,omitempty"`
	Categories []string       `json:"categories"`
	Frequency  string         `json:"frequency,omitempty"`
	QuietHours *QuietHoursDTO `json:"quietHours,omitempty"`
	Timezone   string         `json:"timezone,omitempty"`
}

// SubscriptionDTO is the public view of a subscription. Push keys are
// write-only and never returned.
type SubscriptionDTO struct {
	UserID       string         `json:"userId"`
	Endpoint     string         `json:"endpoint"`
	Preferences  PreferencesDTO `json:"preferences"`
	IsActive     bool           `json:"isActive"`
	LastNotified *time.Time     `json:"lastNotified,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type registerRequest struct {
	Endpoint    string          `json:"endpoint"`
	Keys        KeysDTO         `json:"keys"`
	Preferences *PreferencesDTO `json:"preferences"`
}

type registerResponse struct {
	UserID  string `json:"userId"`
	Success bool   `json:"success"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type previewRequest struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	Category    string     `json:"category"`
	PublishedAt *time.Time `json:"publishedAt"`
}

type previewResponse struct {
	Decision      notify.Decision `json:"decision"`
	WouldNotify   bool            `json:"wouldNotify"`
	Category      entity.Category `json:"category"`
	Urgency       string          `json:"urgency"`
	NextBatchTime time.Time       `json:"nextBatchTime"`
	Payload       notify.Payload  `json:"payload"`
}

// toPreferences overlays the fields present in d on the defaults.
func (d *PreferencesDTO) toPreferences() entity.Preferences {
	prefs := entity.DefaultPreferences()
	if d == nil {
		return prefs
	}
	if d.Enabled != nil {
		prefs.Enabled = *d.Enabled
	}
	if d.Categories != nil {
		prefs.Categories = make([]entity.Category, 0, len(d.Categories))
		for _, c := range d.Categories {
			prefs.Categories = append(prefs.Categories, entity.Category(c))
		}
	}
	if d.Frequency != "" {
		prefs.Frequency = entity.Frequency(d.Frequency)
	}
	if d.QuietHours != nil {
		prefs.QuietHours = entity.QuietHours{
			Enabled: d.QuietHours.Enabled,
			Start:   d.QuietHours.Start,
			End:     d.QuietHours.End,
		}
	}
	prefs.Timezone = d.Timezone
	return prefs
}

func preferencesDTO(p entity.Preferences) PreferencesDTO {
	enabled := p.Enabled
	cats := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		cats = append(cats, string(c))
	}
	return PreferencesDTO{
		Enabled:    &enabled,
		Categories: cats,
		Frequency:  string(p.Frequency),
		QuietHours: &QuietHoursDTO{
			Enabled: p.QuietHours.Enabled,
			Start:   p.QuietHours.Start,
			End:     p.QuietHours.End,
		},
		Timezone: p.Timezone,
	}
}

func toDTO(s *entity.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		UserID:       s.UserID,
		Endpoint:     s.Endpoint,
		Preferences:  preferencesDTO(s.Preferences),
		IsActive:     s.Active,
		LastNotified: s.LastNotified,
		CreatedAt:    s.CreatedAt,
	}
}

func toPreviewResponse(r *subUC.PreviewResult) previewResponse {
	return previewResponse{
		Decision:      r.Decision,
		WouldNotify:   r.Decision == notify.Allow,
		Category:      r.Category,
		Urgency:       string(r.Urgency),
		NextBatchTime: r.NextBatchTime,
		Payload:       r.Payload,
	}
}
