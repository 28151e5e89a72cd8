package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/storage"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// failingRepo settings repository whose every call fails
type failingRepo struct {
	repository.SettingsRepository
}

var errDiskGone = errors.New("disk gone")

func (failingRepo) GetChat(context.Context, int64) (entity.ChatSetting, bool, error) {
	return entity.ChatSetting{}, false, errDiskGone
}
func (failingRepo) GetUser(context.Context, int64) (entity.UserSetting, bool, error) {
	return entity.UserSetting{}, false, errDiskGone
}
func (failingRepo) SetChatEnabled(context.Context, int64, bool, string) error { return errDiskGone }
func (failingRepo) SetChatLanguage(context.Context, int64, string) error { return errDiskGone }

func newSettings(t *testing.T) (SettingsUseCase, repository.SettingsRepository) {
	t.Helper()
	repo := storage.NewMemorySettingsRepository()
	uc, err := NewSettingsUseCase(repo, "en", quietLogger())
	if err != nil {
		t.Fatalf("NewSettingsUseCase failed: %v", err)
	}
	return uc, repo
}

func TestSettingsUseCase_DefaultIsPersistedOnFirstLookup(t *testing.T) {
	t.Parallel()
	uc, repo := newSettings(t)
	ctx := context.Background()

	got, err := uc.GetChatSetting(ctx, 42)
	if err != nil {
		t.Fatalf("GetChatSetting failed: %v", err)
	}
	if !got.Enabled || got.TargetLanguage != "en" {
		t.Errorf("unexpected default: %+v", got)
	}

	if _, found, _ := repo.GetChat(ctx, 42); !found {
		t.Error("default chat setting was not persisted")
	}

	user, err := uc.GetUserSetting(ctx, 7)
	if err != nil || !user.Enabled {
		t.Fatalf("unexpected user default %+v err=%v", user, err)
	}
	if _, found, _ := repo.GetUser(ctx, 7); !found {
		t.Error("default user setting was not persisted")
	}
}

func TestSettingsUseCase_SetChatLanguageValidates(t *testing.T) {
	t.Parallel()
	uc, _ := newSettings(t)
	ctx := context.Background()

	if _, err := uc.SetChatLanguage(ctx, 1, "xx"); !errors.Is(err, entity.ErrInvalidLanguageCode) {
		t.Errorf("expected ErrInvalidLanguageCode, got %v", err)
	}

	lang, err := uc.SetChatLanguage(ctx, 1, " ES ")
	if err != nil {
		t.Fatalf("SetChatLanguage failed: %v", err)
	}
	if lang != "es" {
		t.Errorf("expected normalized es, got %q", lang)
	}

	got, _ := uc.GetChatSetting(ctx, 1)
	if got.TargetLanguage != "es" {
		t.Errorf("expected es, got %q", got.TargetLanguage)
	}
}

func TestSettingsUseCase_TogglesAreIndependent(t *testing.T) {
	t.Parallel()
	uc, _ := newSettings(t)
	ctx := context.Background()

	uc.SetChatLanguage(ctx, 3, "de")
	if err := uc.SetChatTranslation(ctx, 3, false); err != nil {
		t.Fatalf("SetChatTranslation failed: %v", err)
	}
	if err := uc.SetUserTranslation(ctx, 3, false); err != nil {
		t.Fatalf("SetUserTranslation failed: %v", err)
	}

	chat, _ := uc.GetChatSetting(ctx, 3)
	if chat.Enabled || chat.TargetLanguage != "de" {
		t.Errorf("unexpected chat: %+v", chat)
	}

	// same numeric id, different table
	if err := uc.SetChatTranslation(ctx, 3, true); err != nil {
		t.Fatalf("SetChatTranslation failed: %v", err)
	}
	user, _ := uc.GetUserSetting(ctx, 3)
	if user.Enabled {
		t.Error("chat toggle must not touch the user setting")
	}
}

func TestSettingsUseCase_StorageFailureIsWrapped(t *testing.T) {
	t.Parallel()
	uc, err := NewSettingsUseCase(failingRepo{}, "en", quietLogger())
	if err != nil {
		t.Fatalf("NewSettingsUseCase failed: %v", err)
	}
	ctx := context.Background()

	if _, err := uc.GetChatSetting(ctx, 1); !errors.Is(err, entity.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := uc.GetUserSetting(ctx, 1); !errors.Is(err, entity.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
	if err := uc.SetChatTranslation(ctx, 1, false); !errors.Is(err, entity.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestSettingsUseCase_RejectsUnsupportedDefault(t *testing.T) {
	t.Parallel()
	if _, err := NewSettingsUseCase(storage.NewMemorySettingsRepository(), "klingon", quietLogger()); !errors.Is(err, entity.ErrInvalidLanguageCode) {
		t.Errorf("expected ErrInvalidLanguageCode, got %v", err)
	}
}

func TestSettingsUseCase_ConcurrentTogglesSettle(t *testing.T) {
	t.Parallel()
	uc, _ := newSettings(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			uc.SetChatTranslation(ctx, 9, false)
		}()
		go func() {
			defer wg.Done()
			uc.SetChatLanguage(ctx, 9, "fr")
		}()
	}
	wg.Wait()

	chat, err := uc.GetChatSetting(ctx, 9)
	if err != nil {
		t.Fatalf("GetChatSetting failed: %v", err)
	}
	if chat.Enabled || chat.TargetLanguage != "fr" {
		t.Errorf("expected disabled fr chat, got %+v", chat)
	}
}

func TestSettingsUseCase_ImportValidatesBeforeWriting(t *testing.T) {
	t.Parallel()
	uc, repo := newSettings(t)
	ctx := context.Background()

	_, err := uc.ImportChatSettings(ctx, []entity.ChatSetting{
		{ChatID: 1, Enabled: true, TargetLanguage: "es"},
		{ChatID: 2, Enabled: true, TargetLanguage: "nope"},
	})
	if !errors.Is(err, entity.ErrInvalidLanguageCode) {
		t.Fatalf("expected ErrInvalidLanguageCode, got %v", err)
	}
	if chats, _ := repo.ListChats(ctx); len(chats) != 0 {
		t.Errorf("expected nothing written, got %d chats", len(chats))
	}

	n, err := uc.ImportChatSettings(ctx, []entity.ChatSetting{
		{ChatID: 1, Enabled: false, TargetLanguage: "ES"},
		{ChatID: 2, Enabled: true, TargetLanguage: "ru"},
	})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 imported, got %d err=%v", n, err)
	}
	chat, _ := uc.GetChatSetting(ctx, 1)
	if chat.Enabled || chat.TargetLanguage != "es" {
		t.Errorf("unexpected imported chat: %+v", chat)
	}
}
