package repo

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/store"
)

// MaxLogoSize is the largest accepted decoded logo image, in bytes.
const MaxLogoSize = 500 * 1024

// Settings owns the process-wide header settings.
type Settings struct {
	collection
	opts     Options
	settings model.HeaderSettings
}

// NewSettings loads stored settings or falls back to the defaults.
func NewSettings(kv KV, opts Options) *Settings {
	s := &Settings{
		collection: collection{kv: kv, key: store.KeySettings},
		opts:       opts.withDefaults(),
	}
	s.settings = migrate.Settings(s.load())
	return s
}

// Get returns a snapshot of the current settings.
func (s *Settings) Get() model.HeaderSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Update replaces the settings.
func (s *Settings) Update(hs model.HeaderSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs.HeaderLines = append([]model.HeaderLine{}, hs.HeaderLines...)
	s.settings = hs
	s.save(s.settings)
}

// Reset restores the defaults once the confirmer agrees.
func (s *Settings) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opts.Confirmer.Confirm(ctx, confirm.ResetSettings) {
		return ErrDeclined
	}
	s.settings = model.DefaultHeaderSettings()
	s.save(s.settings)
	return nil
}

// SetLogo stores a data URI as the logo. An empty string removes the logo.
func (s *Settings) SetLogo(dataURI string) error {
	if dataURI != "" {
		_, payload, ok := strings.Cut(dataURI, ",")
		if !ok || !strings.HasPrefix(dataURI, "data:") {
			return fmt.Errorf("logo is not a data URI")
		}
		if base64.StdEncoding.DecodedLen(len(payload)) > MaxLogoSize+2 {
			return ErrLogoTooLarge
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("decode logo: %w", err)
		}
		if len(raw) > MaxLogoSize {
			return ErrLogoTooLarge
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Logo = dataURI
	s.save(s.settings)
	return nil
}

// LogoDataURI encodes an image as a data URI accepted by SetLogo.
func LogoDataURI(mimeType string, image []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// AddHeaderLine appends a letterhead line and returns it.
func (s *Settings) AddHeaderLine(text string) model.HeaderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := model.HeaderLine{ID: s.opts.NewID(), Text: text}
	s.settings.HeaderLines = append(s.settings.HeaderLines, line)
	s.save(s.settings)
	return line
}

// RemoveHeaderLine deletes a letterhead line. The last line cannot be removed.
func (s *Settings) RemoveHeaderLine(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.settings.HeaderLines
	for i, l := range lines {
		if l.ID != id {
			continue
		}
		if len(lines) <= 1 {
			return ErrLastHeaderLine
		}
		s.settings.HeaderLines = append(lines[:i:i], lines[i+1:]...)
		s.save(s.settings)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrHeaderLineNotFound, id)
}

func (s *Settings) snapshot() model.HeaderSettings {
	hs := s.settings
	hs.HeaderLines = append([]model.HeaderLine{}, s.settings.HeaderLines...)
	return hs
}
