package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wellness-bot/internal/cache"
	"wellness-bot/internal/config"
	"wellness-bot/internal/database/dbtest"
	"wellness-bot/internal/models"
	"wellness-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authorID  int64 = 1
	modID     int64 = 2
	memberID  int64 = 3
	modChatID int64 = -200
)

type sent struct {
	ChatID int64
	Text   string
}

// fakeAPI records outgoing messages; DMs to blockedUsers fail
type fakeAPI struct {
	mu           sync.Mutex
	sent         []sent
	requests     []tgbotapi.Chattable
	chatStatus   map[int64]string
	blockedUsers map[int64]bool
	memberCalls  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{chatStatus: map[int64]string{}, blockedUsers: map[int64]bool{}}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		if f.blockedUsers[m.ChatID] {
			return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
		}
		f.sent = append(f.sent, sent{ChatID: m.ChatID, Text: m.Text})
	case tgbotapi.EditMessageTextConfig:
		f.sent = append(f.sent, sent{ChatID: m.ChatID, Text: m.Text})
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	status, ok := f.chatStatus[cfg.UserID]
	if !ok {
		status = "member"
	}
	return tgbotapi.ChatMember{Status: status}, nil
}

func (f *fakeAPI) textsTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.ChatID == chatID {
			out = append(out, s.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText(chatID int64) string {
	texts := f.textsTo(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeAPI) callbackAnswers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		if cb, ok := r.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

type harness struct {
	api     *fakeAPI
	handler *Handler
	svc     Services
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := dbtest.Open(t)
	api := newFakeAPI()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cfg := &config.Config{
		Telegram: config.TelegramConfig{
			AuthorIDs:         []int64{authorID},
			CommunityChatID:   -100,
			ModChatID:         modChatID,
			MoodChatID:        -300,
			AffirmationChatID: -400,
		},
		System: config.SystemConfig{Timezone: "America/New_York"},
	}
	loc := cfg.System.Location()

	notifier := service.NewTelegramNotifier(api, modChatID, cfg.Telegram.AuthorIDs, nil)
	directory := service.NewDirectoryService(db)
	userData := service.NewUserDataService(db).WithClock(clock)
	staff := service.NewStaffService(db)

	svc := Services{
		Moderation: service.NewModerationService(db).WithClock(clock),
		Wellness:   service.NewWellnessService(db, notifier, directory).WithClock(clock),
		Milestones: service.NewMilestoneService(userData, notifier, directory, -100, loc).WithClock(clock),
		Journal:    service.NewJournalService(db, loc).WithClock(clock),
		Community:  service.NewCommunityService(userData, t.TempDir()),
		UserData:   userData,
		Staff:      staff,
		Directory:  directory,
		Audit:      service.NewAuditService(db),
	}
	require.NoError(t, staff.SetMember(context.Background(), modID, models.RoleMod, "mod", "Mod", authorID))

	auth := cache.NewAuthCache(staff, 64, time.Minute)
	h := NewHandler(api, cfg, auth, notifier, svc)
	h.clock = clock
	return &harness{api: api, handler: h, svc: svc, now: now}
}

func (hs *harness) command(text string, from int64) *tgbotapi.Message {
	msg := commandMessage(text, from)
	hs.handler.RememberUser(context.Background(), msg.From)
	hs.handler.HandleMessage(context.Background(), msg)
	return msg
}

func TestAddRuleRequiresAdmin(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	hs.command("/addrule spam red No spamming", memberID)
	assert.Contains(t, hs.api.lastText(-100), "permission")
	rule, err := hs.svc.Moderation.GetRule(ctx, "spam")
	require.NoError(t, err)
	assert.Nil(t, rule)

	hs.command("/addrule spam red No spamming", authorID)
	assert.Contains(t, hs.api.lastText(-100), "Rule *spam* added")
	rule, err = hs.svc.Moderation.GetRule(ctx, "spam")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, models.SeverityRed, rule.Severity)

	hs.command("/addrule spam green", authorID)
	assert.Contains(t, hs.api.lastText(-100), "already exists")

	hs.command("/addrule other purple", authorID)
	assert.Contains(t, hs.api.lastText(-100), "❌")
}

func TestWarnNotifiesModeratorsAndUser(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	hs.command("/addrule spam yellow", authorID)

	msg := commandMessage("/warn spam", modID)
	msg.ReplyToMessage = &tgbotapi.Message{From: &tgbotapi.User{ID: memberID, FirstName: "Sam"}}
	hs.handler.HandleMessage(ctx, msg)

	warnings, err := hs.svc.Moderation.GetUserWarnings(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].WarningCount)

	assert.NotEmpty(t, hs.api.textsTo(modChatID), "moderator notice")
	assert.NotEmpty(t, hs.api.textsTo(memberID), "warning DM")

	hs.command("/warn 3 nosuchrule", modID)
	assert.Contains(t, hs.api.lastText(-100), "nosuchrule")
}

func TestWarnSurvivesBlockedDM(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	hs.api.blockedUsers[memberID] = true

	hs.command("/addrule spam green", authorID)
	hs.command("/warn 3 spam", modID)

	warnings, err := hs.svc.Moderation.GetUserWarnings(ctx, memberID)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Empty(t, hs.api.textsTo(memberID))
}

func TestCheckAndResolveByButton(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	hs.command("/check 3 3h seemed down", modID)
	checks, err := hs.svc.Wellness.GetOpenChecks(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, hs.now.Add(3*time.Hour), checks[0].ReminderTime.UTC())

	callback := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: memberID},
		Data:    service.ResolveButtonPrefix + checks[0].CheckID,
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: modChatID, Type: "supergroup"}},
	}
	hs.handler.HandleCallback(ctx, callback)
	check, err := hs.svc.Wellness.GetCheck(ctx, checks[0].CheckID)
	require.NoError(t, err)
	assert.NotEqual(t, models.CheckDone, check.Status, "members cannot resolve")

	callback.From = &tgbotapi.User{ID: modID}
	hs.handler.HandleCallback(ctx, callback)
	check, err = hs.svc.Wellness.GetCheck(ctx, checks[0].CheckID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckDone, check.Status)

	hs.handler.HandleCallback(ctx, callback)
	answers := hs.api.callbackAnswers()
	require.Len(t, answers, 3)
	assert.Contains(t, answers[1], "Resolved")
	assert.Contains(t, answers[2], "Already resolved")
}

func TestPrivateReplyResolvesCheck(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	hs.command("/check 3 1h", modID)
	hs.handler.HandleText(ctx, &tgbotapi.Message{
		MessageID: 11,
		Text:      "I'm okay, thanks",
		From:      &tgbotapi.User{ID: memberID, FirstName: "Sam"},
		Chat:      &tgbotapi.Chat{ID: memberID, Type: "private"},
	})

	open, err := hs.svc.Wellness.HasOpenCheck(ctx, memberID)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestResolveCommandUnknownCheck(t *testing.T) {
	hs := newHarness(t)
	hs.command("/resolve nope", modID)
	assert.Contains(t, hs.api.lastText(-100), "not found")
}

func TestUwuUnlockButton(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	hs.command("/uwulock 3", modID)
	locked, err := hs.svc.Community.IsUwuLocked(ctx, memberID)
	require.NoError(t, err)
	require.True(t, locked)

	callback := &tgbotapi.CallbackQuery{
		ID:      "cb2",
		From:    &tgbotapi.User{ID: 99},
		Data:    uwuUnlockPrefix + "3",
		Message: &tgbotapi.Message{MessageID: 6, Chat: &tgbotapi.Chat{ID: -100, Type: "supergroup"}},
	}
	hs.handler.HandleCallback(ctx, callback)
	locked, err = hs.svc.Community.IsUwuLocked(ctx, memberID)
	require.NoError(t, err)
	assert.True(t, locked, "bystanders cannot unlock")

	callback.From = &tgbotapi.User{ID: memberID}
	hs.handler.HandleCallback(ctx, callback)
	locked, err = hs.svc.Community.IsUwuLocked(ctx, memberID)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestStaffCommandInvalidatesRoleCache(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	chat := &tgbotapi.Chat{ID: -100, Type: "supergroup"}

	assert.Equal(t, LevelMember, hs.handler.perms.Level(ctx, chat, memberID))

	hs.command("/staff add 3 admin", authorID)
	assert.Equal(t, LevelAdmin, hs.handler.perms.Level(ctx, chat, memberID))

	hs.command("/staff remove 3", authorID)
	assert.Equal(t, LevelMember, hs.handler.perms.Level(ctx, chat, memberID))

	hs.command("/staff add 4 mod", modID)
	role, err := hs.svc.Staff.GetRole(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestPermissionLevels(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	group := &tgbotapi.Chat{ID: -100, Type: "supergroup"}
	private := &tgbotapi.Chat{ID: 50, Type: "private"}
	hs.api.chatStatus[50] = "administrator"

	assert.Equal(t, LevelAuthor, hs.handler.perms.Level(ctx, group, authorID))
	assert.Equal(t, LevelMod, hs.handler.perms.Level(ctx, group, modID))
	assert.Equal(t, LevelAdmin, hs.handler.perms.Level(ctx, group, 50))
	assert.Equal(t, LevelMember, hs.handler.perms.Level(ctx, private, 50), "chat admin only counts in groups")

	calls := hs.api.memberCalls
	hs.handler.perms.Level(ctx, group, 50)
	assert.Equal(t, calls, hs.api.memberCalls, "chat admin status is cached")

	_, ok := hs.handler.perms.Require(ctx, group, modID, LevelAdmin)
	assert.False(t, ok)
	_, ok = hs.handler.perms.Require(ctx, group, modID, LevelMod)
	assert.True(t, ok)
}

func TestMoodPostsToMoodChat(t *testing.T) {
	hs := newHarness(t)
	hs.command("/mood good", memberID)
	assert.NotEmpty(t, hs.api.textsTo(-300))
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	hs := newHarness(t)
	hs.command("/doesnotexist", memberID)
	assert.Empty(t, hs.api.textsTo(-100))
}
