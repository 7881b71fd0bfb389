package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vitae/internal/common"
	"github.com/dmitrijs2005/vitae/internal/dbx"
	"github.com/dmitrijs2005/vitae/internal/server/auth"
	"github.com/dmitrijs2005/vitae/internal/server/locks"
	"github.com/dmitrijs2005/vitae/internal/server/models"
	"github.com/dmitrijs2005/vitae/internal/server/password"
	"github.com/dmitrijs2005/vitae/internal/server/repositories/activationtokens"
	"github.com/dmitrijs2005/vitae/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

// memStore is an in-memory stand-in for the PostgreSQL store. It keeps the
// same uniqueness rules as the schema. Set fail[op] to make op return an error.
type memStore struct {
	mu     sync.Mutex
	seq    int
	users  map[string]models.User
	tokens map[string]models.ActivationToken
	fail   map[string]error

	createUserCalls int
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]models.User{},
		tokens: map[string]models.ActivationToken{},
		fail:   map[string]error{},
	}
}

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", s.seq)
}

func (s *memStore) setFail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *memStore) user(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *memStore) deleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *memStore) tokenCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

func (s *memStore) putToken(t models.ActivationToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = s.nextID()
	}
	s.tokens[t.ID] = t
}

type memUsers struct{ s *memStore }

func (r memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["ExistsByEmail"]; err != nil {
		return false, err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.createUserCalls++
	if err := r.s.fail["CreateUser"]; err != nil {
		return nil, err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	out := *u
	out.ID = r.s.nextID()
	r.s.users[out.ID] = out
	return &out, nil
}

func (r memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["FindUserByID"]; err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r memUsers) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["FindActiveByEmail"]; err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Email == email && u.IsActive {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) Activate(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["Activate"]; err != nil {
		return err
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = true
	r.s.users[id] = u
	return nil
}

type memTokens struct{ s *memStore }

func (r memTokens) FindByValue(ctx context.Context, value string) (*models.ActivationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["FindByValue"]; err != nil {
		return nil, err
	}
	for _, t := range r.s.tokens {
		if t.Value == value {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) FindByUserID(ctx context.Context, userID string) (*models.ActivationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["FindByUserID"]; err != nil {
		return nil, err
	}
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) Create(ctx context.Context, t *models.ActivationToken) (*models.ActivationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["CreateToken"]; err != nil {
		return nil, err
	}
	for _, existing := range r.s.tokens {
		if existing.UserID == t.UserID || existing.Value == t.Value {
			return nil, errors.New("duplicate key value violates unique constraint")
		}
	}
	out := *t
	out.ID = r.s.nextID()
	r.s.tokens[out.ID] = out
	return &out, nil
}

func (r memTokens) MarkUsed(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["MarkUsed"]; err != nil {
		return err
	}
	t, ok := r.s.tokens[id]
	if !ok {
		return common.ErrorNotFound
	}
	if t.HasBeenUsed {
		return common.ErrTokenAlreadyUsed
	}
	t.HasBeenUsed = true
	r.s.tokens[id] = t
	return nil
}

func (r memTokens) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail["DeleteToken"]; err != nil {
		return err
	}
	delete(r.s.tokens, id)
	return nil
}

type fakeRepoManager struct{ store *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository        { return memUsers{m.store} }
func (m *fakeRepoManager) ActivationTokens(db dbx.DBTX) activationtokens.Repository {
	return memTokens{m.store}
}

type sentMail struct {
	to       string
	template string
	data     ActivationEmail
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(ctx context.Context, to, templateName string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, template: templateName, data: data.(ActivationEmail)})
	return nil
}

func (f *fakeSender) mails() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}

// testEnv bundles an AccountService with its fakes.
type testEnv struct {
	svc    *AccountService
	store  *memStore
	sender *fakeSender
	signer auth.Signer
	mock   sqlmock.Sqlmock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := newMemStore()
	sender := &fakeSender{}
	signer := auth.NewJWTSigner([]byte("test-secret"), 0)

	svc := NewAccountService(db, &fakeRepoManager{store: store}, Collaborators{
		Hasher: &password.BcryptHasher{Cost: bcrypt.MinCost},
		Signer: signer,
		Sender: sender,
		Locker: locks.NewLocalLocker(),
	}, "http://localhost:3000/")

	return &testEnv{svc: svc, store: store, sender: sender, signer: signer, mock: mock}
}

// expectTx registers n committed transactions.
func (e *testEnv) expectTx(n int) {
	for i := 0; i < n; i++ {
		e.mock.ExpectBegin()
		e.mock.ExpectCommit()
	}
}

func (e *testEnv) register(t *testing.T, name, email, pass string) *models.User {
	t.Helper()
	u, err := e.svc.RegisterUser(context.Background(), RegisterInput{
		Name: name, Email: email, Password: pass, PasswordConfirmation: pass,
	})
	if err != nil {
		t.Fatalf("RegisterUser error: %v", err)
	}
	return u
}

func (e *testEnv) registerActive(t *testing.T, name, email, pass string) *models.User {
	t.Helper()
	u := e.register(t, name, email, pass)
	e.store.mu.Lock()
	stored := e.store.users[u.ID]
	stored.IsActive = true
	e.store.users[u.ID] = stored
	e.store.mu.Unlock()
	return u
}
