package catalog

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/raviprakash-14/scrapify/internal/valuation"
)

const (
	DefaultProfileName   = "User"
	DefaultProfileEmail  = "user@example.com"
	DefaultProfileAvatar = "https://picsum.photos/seed/user-avatar/200/200"

	ProfileUpdatedTitle   = "Profile Updated"
	ProfileUpdatedMessage = "Your profile has been successfully updated."
)

var (
	ErrInvalidName   = errors.New("name is required")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrInvalidAvatar = errors.New("invalid avatar image")
)

type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

// ProfileUpdate is a requested change. An empty AvatarDataURI keeps the
// current avatar.
type ProfileUpdate struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	AvatarDataURI string `json:"avatarDataUri,omitempty"`
}

func DefaultProfile() Profile {
	return Profile{Name: DefaultProfileName, Email: DefaultProfileEmail, AvatarURL: DefaultProfileAvatar}
}

// Validate checks the update and returns the normalized values.
func (u ProfileUpdate) Validate() (ProfileUpdate, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" {
		return u, ErrInvalidName
	}
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return u, fmt.Errorf("%w: %q", ErrInvalidEmail, u.Email)
	}
	if u.AvatarDataURI != "" {
		photo, err := valuation.ParseDataURI(u.AvatarDataURI)
		if err != nil {
			return u, fmt.Errorf("%w: %w", ErrInvalidAvatar, err)
		}
		u.AvatarDataURI = photo.DataURI()
	}
	return u, nil
}

// ProfileSession holds one visitor's profile in memory. It is never
// written to storage.
type ProfileSession struct {
	mu         sync.Mutex
	profile    Profile
	lastActive time.Time
}

func NewProfileSession() *ProfileSession {
	return &ProfileSession{profile: DefaultProfile(), lastActive: time.Now()}
}

func (p *ProfileSession) Get() Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastActive = time.Now()
	return p.profile
}

// Update applies a validated change. On error the profile is unchanged.
func (p *ProfileSession) Update(u ProfileUpdate) (Profile, error) {
	u, err := u.Validate()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastActive = time.Now()
	if err != nil {
		return p.profile, err
	}
	p.profile.Name = u.Name
	p.profile.Email = u.Email
	if u.AvatarDataURI != "" {
		p.profile.AvatarURL = u.AvatarDataURI
	}
	return p.profile, nil
}

func (p *ProfileSession) LastActive() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActive
}

func (p *ProfileSession) Busy() bool { return false }
