package contracts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IndicatorSnapshot is the persisted, merged view of one stock
// ⭐ SSOT: 종목 지표 스냅샷 (병합 결과 + 경고 + 알림)
type IndicatorSnapshot struct {
	Ticker    string    `json:"ticker"`
	Metrics   MetricSet `json:"metrics"`
	Warnings  []string  `json:"warnings"`
	AlertText string    `json:"alert_text"`
	RunID     uuid.UUID `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Alerts splits the stored alert text back into lines
func (s IndicatorSnapshot) Alerts() []string {
	if s.AlertText == "" {
		return nil
	}
	return strings.Split(s.AlertText, "\n")
}

// CompanyProfile is descriptive data filled once per stock
type CompanyProfile struct {
	Ticker       string     `json:"ticker"`
	Market       Market     `json:"market"`
	Name         string     `json:"name"`
	ShortName    string     `json:"short_name"`
	Sector       string     `json:"sector"`
	Industry     string     `json:"industry"`
	Description  string     `json:"description"`
	EarningsDate *time.Time `json:"earnings_date,omitempty"`
}

// FillEmpty copies fields from other only where p has none
func (p CompanyProfile) FillEmpty(other CompanyProfile) CompanyProfile {
	if p.Name == "" {
		p.Name = other.Name
	}
	if p.ShortName == "" {
		p.ShortName = other.ShortName
	}
	if p.Sector == "" {
		p.Sector = other.Sector
	}
	if p.Industry == "" {
		p.Industry = other.Industry
	}
	if p.Description == "" {
		p.Description = other.Description
	}
	if p.EarningsDate == nil {
		p.EarningsDate = other.EarningsDate
	}
	return p
}

// Watched is one watchlist row
type Watched struct {
	UserID  int64     `json:"user_id"`
	Ticker  string    `json:"ticker"`
	AddedAt time.Time `json:"added_at"`
}
