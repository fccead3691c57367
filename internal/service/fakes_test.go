package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"academy/internal/entity"
	"academy/internal/repository"
	"academy/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// codeUsable matches the repositories' "used = false AND expires_at > now"
// predicate.
func codeUsable(used bool, expiresAt time.Time, now time.Time) bool {
	return !used && !utils.CodeExpired(expiresAt, now)
}

// memoryStore backs the repository fakes with plain maps. Records are
// copied on the way in and out so the service never aliases stored state.
type memoryStore struct {
	mu            sync.Mutex
	seq           int
	users         map[uuid.UUID]*entity.User
	verifications []*entity.VerificationCode
	resets        []*entity.PasswordResetCode
	logs          []*entity.SecurityLog
	failFind      error
	writes        int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[uuid.UUID]*entity.User)}
}

func (m *memoryStore) nextCreatedAt() time.Time {
	m.seq++
	return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Millisecond)
}

func (m *memoryStore) userByEmail(email string) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied
		}
	}
	return nil
}

func (m *memoryStore) verificationCodes(userID uuid.UUID) []entity.VerificationCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.VerificationCode
	for _, code := range m.verifications {
		if code.UserID == userID {
			out = append(out, *code)
		}
	}
	return out
}

func (m *memoryStore) resetCodes(userID uuid.UUID) []entity.PasswordResetCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.PasswordResetCode
	for _, code := range m.resets {
		if code.UserID == userID {
			out = append(out, *code)
		}
	}
	return out
}

func (m *memoryStore) securityActions() []entity.SecurityAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.SecurityAction, 0, len(m.logs))
	for _, log := range m.logs {
		out = append(out, log.Action)
	}
	return out
}

func (m *memoryStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type fakeUserRepo struct{ store *memoryStore }

func (r fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.writes++
	user.ID = uuid.New()
	user.CreatedAt = m.nextCreatedAt()
	for i := range user.VerificationCodes {
		code := &user.VerificationCodes[i]
		code.ID = uuid.New()
		code.UserID = user.ID
		code.CreatedAt = m.nextCreatedAt()
		copied := *code
		m.verifications = append(m.verifications, &copied)
	}
	stored := *user
	stored.VerificationCodes = nil
	m.users[user.ID] = &stored
	return nil
}

func (r fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if r.store.failFind != nil {
		return nil, r.store.failFind
	}
	return r.store.userByEmail(email), nil
}

func (r fakeUserRepo) FirstOrCreateByEmail(ctx context.Context, user *entity.User) (*entity.User, bool, error) {
	if existing := r.store.userByEmail(user.Email); existing != nil {
		return existing, false, nil
	}
	if err := r.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

type fakeVerificationRepo struct{ store *memoryStore }

func (r fakeVerificationRepo) Create(_ context.Context, code *entity.VerificationCode) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	code.ID = uuid.New()
	code.CreatedAt = m.nextCreatedAt()
	copied := *code
	m.verifications = append(m.verifications, &copied)
	return nil
}

func (r fakeVerificationRepo) FindLatestValid(_ context.Context, userID uuid.UUID, value string, now time.Time) (*entity.VerificationCode, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []*entity.VerificationCode
	for _, code := range m.verifications {
		if code.UserID == userID && code.Code == value && codeUsable(code.Used, code.ExpiresAt, now) {
			matches = append(matches, code)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	copied := *matches[0]
	return &copied, nil
}

func (r fakeVerificationRepo) Consume(_ context.Context, codeID uuid.UUID, userID uuid.UUID, now time.Time) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var target *entity.VerificationCode
	for _, code := range m.verifications {
		if code.ID == codeID && codeUsable(code.Used, code.ExpiresAt, now) {
			target = code
		}
	}
	if target == nil {
		return repository.ErrCodeUnavailable
	}
	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if user.EmailVerified {
		return repository.ErrAlreadyVerified
	}
	m.writes++
	target.Used = true
	user.EmailVerified = true
	user.EmailVerifiedAt = &now
	return nil
}

type fakeResetRepo struct{ store *memoryStore }

func (r fakeResetRepo) Issue(_ context.Context, code *entity.PasswordResetCode) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	for _, existing := range m.resets {
		if existing.UserID == code.UserID && !existing.Used {
			existing.Used = true
		}
	}
	code.ID = uuid.New()
	code.CreatedAt = m.nextCreatedAt()
	copied := *code
	m.resets = append(m.resets, &copied)
	return nil
}

func (r fakeResetRepo) FindLatestValid(_ context.Context, userID uuid.UUID, value string, now time.Time) (*entity.PasswordResetCode, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *entity.PasswordResetCode
	for _, code := range m.resets {
		if code.UserID != userID || code.Code != value || !codeUsable(code.Used, code.ExpiresAt, now) {
			continue
		}
		if latest == nil || code.CreatedAt.After(latest.CreatedAt) {
			latest = code
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r fakeResetRepo) Consume(_ context.Context, codeID uuid.UUID, userID uuid.UUID, passwordHash string, now time.Time) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var target *entity.PasswordResetCode
	for _, code := range m.resets {
		if code.ID == codeID && codeUsable(code.Used, code.ExpiresAt, now) {
			target = code
		}
	}
	if target == nil {
		return repository.ErrCodeUnavailable
	}
	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.writes++
	target.Used = true
	user.PasswordHash = &passwordHash
	return nil
}

type fakeSecurityLogRepo struct{ store *memoryStore }

func (r fakeSecurityLogRepo) Log(_ context.Context, log *entity.SecurityLog) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *log
	m.logs = append(m.logs, &copied)
	return nil
}

type sentCode struct {
	Purpose  codePurpose
	Email    string
	Code     string
	ValidFor time.Duration
}

type fakeMailer struct {
	mu   sync.Mutex
	fail error
	sent []sentCode
}

func (f *fakeMailer) SendVerificationCode(_ context.Context, user *entity.User, code string, validFor time.Duration) error {
	return f.record(purposeVerification, user, code, validFor)
}

func (f *fakeMailer) SendPasswordResetCode(_ context.Context, user *entity.User, code string, validFor time.Duration) error {
	return f.record(purposePasswordReset, user, code, validFor)
}

func (f *fakeMailer) record(purpose codePurpose, user *entity.User, code string, validFor time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentCode{Purpose: purpose, Email: user.Email, Code: code, ValidFor: validFor})
	return nil
}

func (f *fakeMailer) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentCode{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)}
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

// plainHasher keeps tests fast; bcrypt is covered separately.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Verify(hash string, password string) bool {
	return hash == "hashed:"+password
}

type stubLimiter struct {
	allowed bool
	err     error
	calls   []string
}

func (s *stubLimiter) Allow(_ context.Context, clientID string) (bool, error) {
	s.calls = append(s.calls, clientID)
	return s.allowed, s.err
}

var errMailDown = errors.New("smtp unavailable")
