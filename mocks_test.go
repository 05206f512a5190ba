package auth_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	auth "github.com/pavlion/go-directory-auth"
	"github.com/uptrace/bun"
)

// fakeUsers is an in-memory UserStore. The embedded interface covers the
// generic repository surface; only the capability methods are implemented,
// which is all the handlers under test touch.
type fakeUsers struct {
	auth.Users
	mu      sync.Mutex
	records map[uuid.UUID]*auth.User
}

func newFakeUsers(users ...*auth.User) *fakeUsers {
	f := &fakeUsers{records: map[uuid.UUID]*auth.User{}}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		f.records[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.records {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.records {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeUsers) GetByID(_ context.Context, id string, _ ...repository.SelectCriteria) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound()
	}
	if u, ok := f.records[uid]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.GetByUsername(ctx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *fakeUsers) Create(_ context.Context, user *auth.User, _ ...repository.InsertCriteria) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.records[user.ID] = user
	return user, nil
}

func (f *fakeUsers) Update(_ context.Context, user *auth.User, _ ...repository.UpdateCriteria) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[user.ID]; !ok {
		return nil, repository.NewRecordNotFound()
	}
	f.records[user.ID] = user
	return user, nil
}

func (f *fakeUsers) DeleteByUsername(ctx context.Context, username string) error {
	user, err := f.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, user.ID)
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.records[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUsers) SetEnabled(_ context.Context, id uuid.UUID, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.records[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	u.Enabled = enabled
	return nil
}

// fakeRoles serves a fixed role set.
type fakeRoles struct {
	roles map[string]*auth.Role
}

func newFakeRoles(names ...string) *fakeRoles {
	f := &fakeRoles{roles: map[string]*auth.Role{}}
	for _, name := range names {
		f.roles[name] = &auth.Role{ID: uuid.New(), Name: name}
	}
	return f
}

func (f *fakeRoles) GetByName(_ context.Context, name string) (*auth.Role, error) {
	if role, ok := f.roles[name]; ok {
		return role, nil
	}
	return nil, auth.ErrRoleNotFound
}

// memEphemeralStore is an in-memory EphemeralTokenStore with the same
// at-most-one-per-(user,purpose) semantics as the Bun implementation.
type memEphemeralStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*auth.EphemeralToken
}

func newMemEphemeralStore() *memEphemeralStore {
	return &memEphemeralStore{tokens: map[uuid.UUID]*auth.EphemeralToken{}}
}

func (s *memEphemeralStore) Replace(_ context.Context, token *auth.EphemeralToken) (*auth.EphemeralToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.tokens {
		if existing.UserID == token.UserID && existing.Purpose == token.Purpose {
			delete(s.tokens, id)
		}
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	s.tokens[token.ID] = token
	return token, nil
}

func (s *memEphemeralStore) FindByToken(_ context.Context, token string) (*auth.EphemeralToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.tokens {
		if record.Token == token {
			return record, nil
		}
	}
	return nil, auth.ErrEphemeralNotFound
}

func (s *memEphemeralStore) FindByUser(_ context.Context, userID uuid.UUID, purpose auth.TokenPurpose) (*auth.EphemeralToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.tokens {
		if record.UserID == userID && record.Purpose == purpose {
			return record, nil
		}
	}
	return nil, auth.ErrEphemeralNotFound
}

func (s *memEphemeralStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}

func (s *memEphemeralStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// recordMailer captures outbound mail for assertions.
type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// fakeRepo wires the fakes behind the RepositoryManager interface.
// RunInTx executes the callback directly; transactional semantics are the
// Bun implementation's concern, not the handlers'.
type fakeRepo struct {
	users *fakeUsers
	roles *fakeRoles
	eph   *memEphemeralStore
}

func newFakeRepo(users ...*auth.User) *fakeRepo {
	return &fakeRepo{
		users: newFakeUsers(users...),
		roles: newFakeRoles(auth.RoleUser, auth.RoleAdmin),
		eph:   newMemEphemeralStore(),
	}
}

func (f *fakeRepo) Validate() error { return nil }
func (f *fakeRepo) MustValidate()   {}

func (f *fakeRepo) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepo) Users() auth.Users { return f.users }

func (f *fakeRepo) Roles() auth.RoleStore { return f.roles }

func (f *fakeRepo) EphemeralTokens() auth.EphemeralTokenStore { return f.eph }
