package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zenbotlabs/zenbot-backend/internal/auth"
	"github.com/zenbotlabs/zenbot-backend/internal/domain"
	"github.com/zenbotlabs/zenbot-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// gormUserRepo adapts the repo free functions to UserRepo.
type gormUserRepo struct{}

func (gormUserRepo) CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, name, email, passwordHash)
}

func (gormUserRepo) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

// gormConvRepo adapts the repo free functions to ConversationRepo.
type gormConvRepo struct{}

func (gormConvRepo) CreateConversation(ctx context.Context, db *gorm.DB, userID, userMessage, botReply string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, userMessage, botReply)
}

func (gormConvRepo) CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

func (gormConvRepo) ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	return repo.ListConversationsPage(ctx, db, userID, offset, limit)
}

func (gormConvRepo) DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteConversation(ctx, db, id, userID)
}

type fakeResolver struct {
	reply string
	ok    bool
}

func (f fakeResolver) Resolve(string) (string, bool) { return f.reply, f.ok }

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewAuthService(db, gormUserRepo{}, auth.NewIssuer("test-secret-test-secret", 0)), db
}

func TestRegister_IssuesSession(t *testing.T) {
	svc, _ := newAuthService(t)

	sess, err := svc.Register(context.Background(), "Ada", "Ada@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a session token")
	}
	if sess.User.Email != "Ada@Example.com" {
		t.Fatalf("expected email stored as given, got %q", sess.User.Email)
	}
	if sess.User.PasswordHash == "hunter22" {
		t.Fatal("password stored in the clear")
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "pw1"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(ctx, "Eve", "ada@example.com", "pw2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	// Duplicate detection is an exact match; a different casing is a new account.
	if _, err := svc.Register(ctx, "Eve", "ADA@example.com", "pw2"); err != nil {
		t.Fatalf("case-variant register: %v", err)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	cases := [][3]string{
		{"", "a@b.c", "pw"},
		{"Ada", "", "pw"},
		{"Ada", "a@b.c", ""},
		{"   ", "a@b.c", "pw"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc[0], tc[1], tc[2]); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("register(%q,%q,%q): expected ErrMissingFields, got %v", tc[0], tc[1], tc[2], err)
		}
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "correct-pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sess, err := svc.Login(ctx, "ada@example.com", "correct-pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" || sess.User.Name != "Ada" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ADA@example.com", "correct-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("case-variant email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("blank login: expected ErrMissingFields, got %v", err)
	}
}

func TestRespond_CannedMatchPersists(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{reply: "never used"}
	svc := NewChatService(db, gormConvRepo{}, fakeResolver{reply: "Hey! How can I help?", ok: true}, gen)

	reply, conv, err := svc.Respond(context.Background(), "u1", "  hi  ")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "Hey! How can I help?" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if conv == nil {
		t.Fatal("expected persisted turn")
	}
	if conv.UserMessage != "hi" {
		t.Fatalf("expected trimmed message stored, got %q", conv.UserMessage)
	}
	if gen.calls != 0 {
		t.Fatal("inference must not run on a canned match")
	}
}

func TestRespond_CannedMatchNotPersisted(t *testing.T) {
	db := newTestDB(t)
	svc := NewChatService(db, gormConvRepo{}, fakeResolver{reply: "Bye!", ok: true}, &fakeGenerator{})
	svc.PersistCanned = false

	reply, conv, err := svc.Respond(context.Background(), "u1", "bye")
	if err != nil || reply != "Bye!" {
		t.Fatalf("Respond = %q, %v", reply, err)
	}
	if conv != nil {
		t.Fatal("expected no persisted turn when PersistCanned is off")
	}

	total, err := repo.CountConversations(context.Background(), db, "u1")
	if err != nil || total != 0 {
		t.Fatalf("expected empty log, got %d (%v)", total, err)
	}
}

func TestRespond_FallsBackToInference(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{reply: "Generated answer."}
	svc := NewChatService(db, gormConvRepo{}, fakeResolver{}, gen)

	reply, conv, err := svc.Respond(context.Background(), "u1", "tell me about black holes")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "Generated answer." || gen.calls != 1 {
		t.Fatalf("reply=%q calls=%d", reply, gen.calls)
	}
	if conv == nil || conv.BotReply != "Generated answer." {
		t.Fatalf("expected persisted inference turn, got %+v", conv)
	}
}

func TestRespond_InferenceFailureNotPersisted(t *testing.T) {
	db := newTestDB(t)
	upstream := errors.New("backend down")
	svc := NewChatService(db, gormConvRepo{}, fakeResolver{}, &fakeGenerator{err: upstream})

	_, conv, err := svc.Respond(context.Background(), "u1", "anything")
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error passthrough, got %v", err)
	}
	if conv != nil {
		t.Fatal("failed turns must not be persisted")
	}
	total, _ := repo.CountConversations(context.Background(), db, "u1")
	if total != 0 {
		t.Fatalf("expected empty log after failure, got %d", total)
	}
}

func TestRespond_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewChatService(db, gormConvRepo{}, fakeResolver{}, &fakeGenerator{})

	if _, _, err := svc.Respond(context.Background(), "u1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, _, err := svc.Respond(context.Background(), "u1", strings.Repeat("x", 2001)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestHistory_ListPageAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	hist := NewHistoryService(db, gormConvRepo{})

	for i := 0; i < 3; i++ {
		if _, err := repo.CreateConversation(ctx, db, "owner", fmt.Sprintf("q%d", i), "a"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, total, err := hist.ListPage(ctx, "owner", 0, -5)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3/3, got total=%d len=%d", total, len(items))
	}

	empty, total, err := hist.ListPage(ctx, "stranger", 1, 20)
	if err != nil || total != 0 || len(empty) != 0 {
		t.Fatalf("stranger page: total=%d len=%d err=%v", total, len(empty), err)
	}

	if err := hist.Delete(ctx, "stranger", items[0].ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("foreign delete: expected ErrEntryNotFound, got %v", err)
	}
	if err := hist.Delete(ctx, "owner", items[0].ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := hist.Delete(ctx, "owner", items[0].ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("second delete: expected ErrEntryNotFound, got %v", err)
	}
}
