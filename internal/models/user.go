package models

import (
	"errors"
	"time"
)

// ErrProfileIncomplete is returned when gender or birth date is missing.
var ErrProfileIncomplete = errors.New("profile is missing gender or birth date")

// UserProfile is the subset of /user/info the client needs.
type UserProfile struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birthDate"`
}

// Birth parses the birth date.
func (p *UserProfile) Birth() (time.Time, error) {
	if p.BirthDate == "" {
		return time.Time{}, ErrProfileIncomplete
	}
	return ParseTimestamp(p.BirthDate)
}

// PeerGroup returns the gender and age bucket used for peer lookups.
func (p *UserProfile) PeerGroup(now time.Time) (gender, ageGroup string, err error) {
	if p == nil || p.Gender == "" || p.BirthDate == "" {
		return "", "", ErrProfileIncomplete
	}
	birth, err := p.Birth()
	if err != nil {
		return "", "", err
	}
	return p.Gender, AgeGroup(birth, now), nil
}

// Age returns the number of completed years between birth and now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// AgeGroup buckets an age into the decade codes used by the peer aggregates.
func AgeGroup(birth, now time.Time) string {
	age := Age(birth, now)
	switch {
	case age < 20:
		return "10s"
	case age < 30:
		return "20s"
	case age < 40:
		return "30s"
	case age < 50:
		return "40s"
	case age < 60:
		return "50s"
	case age < 70:
		return "60s"
	default:
		return "70s_and_up"
	}
}
