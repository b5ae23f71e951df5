package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"wellness-bot/internal/models"
	"wellness-bot/internal/utils"
)

// GifAction interaction command with a GIF folder
type GifAction struct {
	Command string
	Plural  string // counter prefix in gifStats, e.g. "hugs"
	Emoji   string
	Verb    string // past tense used in the caption
	Label   string
}

// GifActions supported interaction commands
var GifActions = []GifAction{
	{Command: "hug", Plural: "hugs", Emoji: "🤗", Verb: "hugged", Label: "Hugs"},
	{Command: "uppies", Plural: "uppies", Emoji: "⬆️", Verb: "gave uppies to", Label: "Uppies"},
	{Command: "bonk", Plural: "bonks", Emoji: "💥", Verb: "bonked", Label: "Bonks"},
	{Command: "bite", Plural: "bites", Emoji: "🐱", Verb: "bit", Label: "Bites"},
	{Command: "pet", Plural: "pets", Emoji: "🐾", Verb: "pet", Label: "Pets"},
}

// GifActionFor looks an action up by command name
func GifActionFor(command string) (GifAction, bool) {
	for _, a := range GifActions {
		if a.Command == command {
			return a, true
		}
	}
	return GifAction{}, false
}

// GifStats given and received counters keyed like "hugsGiven"
type GifStats map[string]int

// Given counter of an action
func (g GifStats) Given(a GifAction) int { return g[a.Plural+"Given"] }

// Received counter of an action
func (g GifStats) Received(a GifAction) int { return g[a.Plural+"Received"] }

// Totals sums over every action
func (g GifStats) Totals() (given, received int) {
	for _, a := range GifActions {
		given += g.Given(a)
		received += g.Received(a)
	}
	return given, received
}

// CommunityService uwu lock and GIF interactions, stored in the user blob
type CommunityService struct {
	userData *UserDataService
	gifDir   string

	mu  sync.Mutex
	rnd *rand.Rand
	uwu *utils.Uwuifier
}

// NewCommunityService creates the community service; gifDir holds one folder per action
func NewCommunityService(userData *UserDataService, gifDir string) *CommunityService {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &CommunityService{
		userData: userData,
		gifDir:   gifDir,
		rnd:      rnd,
		uwu:      utils.NewUwuifier(rnd),
	}
}

// WithRand replaces the random source, used by tests
func (s *CommunityService) WithRand(rnd *rand.Rand) *CommunityService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd = rnd
	s.uwu = utils.NewUwuifier(rnd)
	return s
}

// IsUwuLocked whether the user's messages are being uwuified
func (s *CommunityService) IsUwuLocked(ctx context.Context, userID int64) (bool, error) {
	var locked bool
	if _, err := s.userData.GetProperty(ctx, userID, models.KeyUwuLocked, &locked); err != nil {
		return false, err
	}
	return locked, nil
}

// SetUwuLocked changes the lock; returns false when the state already matched
func (s *CommunityService) SetUwuLocked(ctx context.Context, userID int64, locked bool) (bool, error) {
	changed := false
	err := s.userData.Update(ctx, userID, func(doc Document) (bool, error) {
		var current bool
		if _, err := doc.Get(models.KeyUwuLocked, &current); err != nil {
			return false, err
		}
		if current == locked {
			return false, nil
		}
		changed = true
		if !locked {
			delete(doc, models.KeyUwuLocked)
			return true, nil
		}
		doc[models.KeyUwuLocked] = json.RawMessage("true")
		return true, nil
	})
	return changed, err
}

// Uwuify converts a message
func (s *CommunityService) Uwuify(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uwu.Convert(text)
}

// RandomGif picks a file for the action; "" when none are available
func (s *CommunityService) RandomGif(action GifAction) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return utils.RandomGif(filepath.Join(s.gifDir, action.Command), s.rnd)
}

// RecordInteraction bumps the giver's given counter and the receiver's received counter
func (s *CommunityService) RecordInteraction(ctx context.Context, giverID, receiverID int64, action GifAction) error {
	if err := s.bump(ctx, giverID, action.Plural+"Given"); err != nil {
		return err
	}
	return s.bump(ctx, receiverID, action.Plural+"Received")
}

// GetGifStats counters of one user
func (s *CommunityService) GetGifStats(ctx context.Context, userID int64) (GifStats, error) {
	stats := GifStats{}
	if _, err := s.userData.GetProperty(ctx, userID, models.KeyGifStats, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *CommunityService) bump(ctx context.Context, userID int64, key string) error {
	return s.userData.Update(ctx, userID, func(doc Document) (bool, error) {
		stats := GifStats{}
		if _, err := doc.Get(models.KeyGifStats, &stats); err != nil {
			return false, err
		}
		stats[key]++
		raw, err := json.Marshal(stats)
		if err != nil {
			return false, err
		}
		doc[models.KeyGifStats] = raw
		return true, nil
	})
}
