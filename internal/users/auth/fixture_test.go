// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// # Account Store Fake

type memoryAccountStore struct {
	mu       sync.Mutex
	byID     map[string]*auth.Account
	activity map[string]time.Time

	// existsLies makes ExistsByEmail report false, simulating a lost race.
	existsLies bool
	// hiddenFinds makes that many FindByEmail calls miss before the row shows.
	hiddenFinds int
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{
		byID:     make(map[string]*auth.Account),
		activity: make(map[string]time.Time),
	}
}

func clone(account *auth.Account) *auth.Account {
	copied := *account
	if account.Credential != nil {
		credential := *account.Credential
		copied.Credential = &credential
	}
	return &copied
}

func (store *memoryAccountStore) put(account *auth.Account) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.byID[account.ID] = clone(account)
}

func (store *memoryAccountStore) get(id string) *auth.Account {
	store.mu.Lock()
	defer store.mu.Unlock()
	account, ok := store.byID[id]
	if !ok {
		return nil
	}
	return clone(account)
}

func (store *memoryAccountStore) findEmail(email string) *auth.Account {
	for _, account := range store.byID {
		if account.Email == email {
			return account
		}
	}
	return nil
}

func (store *memoryAccountStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.hiddenFinds > 0 {
		store.hiddenFinds--
		return nil, auth.ErrAccountNotFound
	}
	account := store.findEmail(email)
	if account == nil {
		return nil, auth.ErrAccountNotFound
	}
	return clone(account), nil
}

func (store *memoryAccountStore) FindByID(_ context.Context, id string) (*auth.Account, error) {
	if account := store.get(id); account != nil {
		return account, nil
	}
	return nil, auth.ErrAccountNotFound
}

func (store *memoryAccountStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.existsLies {
		return false, nil
	}
	return store.findEmail(email) != nil, nil
}

func (store *memoryAccountStore) Create(_ context.Context, account *auth.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.findEmail(account.Email) != nil {
		return auth.ErrEmailTaken
	}
	if account.Credential != nil {
		account.Credential.AccountID = account.ID
	}
	store.byID[account.ID] = clone(account)
	return nil
}

func (store *memoryAccountStore) SaveCredential(_ context.Context, credential *auth.Credential) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	account, ok := store.byID[credential.AccountID]
	if !ok {
		return auth.ErrAccountNotFound
	}
	if account.Credential != nil {
		return auth.ErrUserAlreadyHasPassword
	}
	copied := *credential
	account.Credential = &copied
	return nil
}

func (store *memoryAccountStore) UpdatePassword(_ context.Context, passwordHash, accountID string) error {
	return store.mutate(accountID, func(account *auth.Account) {
		account.Credential = &auth.Credential{AccountID: accountID, PasswordHash: passwordHash}
	})
}

func (store *memoryAccountStore) UpdateStatus(_ context.Context, accountID string, status auth.Status) error {
	return store.mutate(accountID, func(account *auth.Account) { account.Status = status })
}

func (store *memoryAccountStore) UpdateRefreshTokenKey(_ context.Context, accountID, key string) error {
	return store.mutate(accountID, func(account *auth.Account) { account.RefreshTokenKey = key })
}

func (store *memoryAccountStore) TouchLastActivity(_ context.Context, accountID string, at time.Time) error {
	return store.mutate(accountID, func(account *auth.Account) {
		account.LastActivityAt = at
		store.activity[accountID] = at
	})
}

func (store *memoryAccountStore) mutate(accountID string, apply func(*auth.Account)) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	account, ok := store.byID[accountID]
	if !ok {
		return auth.ErrAccountNotFound
	}
	apply(account)
	return nil
}

// # Hasher Fake

// plainHasher keeps tests fast; bcrypt itself is covered in the sec package.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) {
	if len(plain) > sec.MaxPasswordBytes {
		return "", sec.ErrPasswordTooLong
	}
	return "hashed:" + plain, nil
}

func (plainHasher) Matches(plain, hash string) bool { return hash == "hashed:"+plain }

// # Mailer Fake

type recordingMailer struct {
	mu           sync.Mutex
	verification []auth.VerificationEmail
	approval     []auth.ApprovalEmail
	recovery     []auth.RecoveryEmail
	err          error
}

func (mailer *recordingMailer) SendVerificationEmail(_ context.Context, message auth.VerificationEmail) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.verification = append(mailer.verification, message)
	return mailer.err
}

func (mailer *recordingMailer) SendApprovalEmail(_ context.Context, message auth.ApprovalEmail) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.approval = append(mailer.approval, message)
	return mailer.err
}

func (mailer *recordingMailer) SendRecoveryEmail(_ context.Context, message auth.RecoveryEmail) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.recovery = append(mailer.recovery, message)
	return mailer.err
}

func (mailer *recordingMailer) lastVerification(t *testing.T) auth.VerificationEmail {
	t.Helper()
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.NotEmpty(t, mailer.verification)
	return mailer.verification[len(mailer.verification)-1]
}

func (mailer *recordingMailer) lastRecovery(t *testing.T) auth.RecoveryEmail {
	t.Helper()
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.NotEmpty(t, mailer.recovery)
	return mailer.recovery[len(mailer.recovery)-1]
}

func (mailer *recordingMailer) lastApproval(t *testing.T) auth.ApprovalEmail {
	t.Helper()
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.NotEmpty(t, mailer.approval)
	return mailer.approval[len(mailer.approval)-1]
}

// # Clock

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *testClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

// # Fixture

type fixture struct {
	service *auth.Service
	store   *memoryAccountStore
	mailer  *recordingMailer
	tokens  *sec.TokenService
	clock   *testClock
	redis   *redis.Client
	logs    *bytes.Buffer
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	_, client := newRedis(t)
	clock := &testClock{now: time.Now()}

	tokens, err := sec.NewTokenService(testSecret, "yomira-test", time.Minute, time.Hour)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	store := newMemoryAccountStore()
	mailer := &recordingMailer{}

	service := auth.NewService(
		store,
		plainHasher{},
		tokens,
		auth.NewVerificationWorkflow(auth.NewVerificationTokenStore(client), 0),
		auth.NewRecoveryWorkflow(auth.NewRecoveryTokenStore(client), time.Hour, auth.WithRecoveryClock(clock.Now)),
		mailer,
		logger,
	)

	return &fixture{
		service: service,
		store:   store,
		mailer:  mailer,
		tokens:  tokens,
		clock:   clock,
		redis:   client,
		logs:    logs,
	}
}

// seed stores an account directly, bypassing sign-up.
func (f *fixture) seed(email string, status auth.Status, password string) *auth.Account {
	account := &auth.Account{
		ID:              uuid.NewString(),
		Email:           email,
		Name:            "Seeded",
		Status:          status,
		Role:            sec.RoleUser,
		RefreshTokenKey: f.tokens.GenerateKey(),
	}
	if password != "" {
		account.Credential = &auth.Credential{AccountID: account.ID, PasswordHash: "hashed:" + password}
	}
	f.store.put(account)
	return account
}

// signUpAndVerify registers an account and activates it via its email token.
func (f *fixture) signUpAndVerify(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()

	result, err := f.service.SignUp(ctx, auth.SignUpInput{Name: "Reader", Email: email, Password: password}, "en")
	require.NoError(t, err)

	ok, err := f.service.VerifyEmail(ctx, f.mailer.lastVerification(t).Token, result.AccountID)
	require.NoError(t, err)
	require.True(t, ok)

	return result.AccountID
}

var errBroker = errors.New("broker unavailable")
