package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type sentNotice struct {
	ChatID int64
	Notice Notice
}

// recordingNotifier captures notices; user DMs fail for ids in failUsers
type recordingNotifier struct {
	mu        sync.Mutex
	mods      []Notice
	users     []sentNotice
	posts     []sentNotice
	failUsers map[int64]bool
	failMods  bool
	failPosts bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failUsers: map[int64]bool{}}
}

func (r *recordingNotifier) NotifyModerators(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMods {
		return &DeliveryError{Err: errors.New("mod chat down")}
	}
	r.mods = append(r.mods, n)
	return nil
}

func (r *recordingNotifier) NotifyUser(_ context.Context, userID int64, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUsers[userID] {
		return &DeliveryError{ChatID: userID, Err: errors.New("Forbidden: bot can't initiate conversation with a user")}
	}
	r.users = append(r.users, sentNotice{ChatID: userID, Notice: n})
	return nil
}

func (r *recordingNotifier) Post(_ context.Context, chatID int64, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPosts {
		return &DeliveryError{ChatID: chatID, Err: errors.New("chat unavailable")}
	}
	r.posts = append(r.posts, sentNotice{ChatID: chatID, Notice: n})
	return nil
}

func (r *recordingNotifier) modCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mods)
}

func (r *recordingNotifier) postCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts)
}

type staticNames struct{}

func (staticNames) DisplayName(_ context.Context, userID int64) string {
	return fmt.Sprintf("user%d", userID)
}

// fakeClock manual clock shared by services under test
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t.UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
