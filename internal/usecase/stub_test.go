package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

type moveCall struct {
	userID string
	roomID string
	finish *domain.GameFinish
}

type recordSolvedCall struct {
	userID   string
	riddleID string
	solved   []domain.RiddleAttempt
	level    int
	score    int
}

// stubUserRepo keeps users keyed by username and records mutations
// instead of applying most of them, so tests can assert on the exact
// calls the services make.
type stubUserRepo struct {
	users map[string]*domain.User

	failWith       error
	solvedConflict bool

	created        []domain.User
	activated      []domain.User
	attempts       map[string]domain.RiddleAttempt
	scoreUpdates   []int
	solvedCalls    []recordSolvedCall
	moves          []moveCall
	awaiting       map[string]bool
	logins         []string
	passwords      map[string]string
	totpKeys       map[string][]byte
	roles          map[string]domain.Role
	savedCredCalls int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{
		users:     make(map[string]*domain.User),
		attempts:  make(map[string]domain.RiddleAttempt),
		awaiting:  make(map[string]bool),
		passwords: make(map[string]string),
		totpKeys:  make(map[string][]byte),
		roles:     make(map[string]domain.Role),
	}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	return repo
}

func (r *stubUserRepo) byID(id string) *domain.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[user.Username]; ok {
		return repository.ErrDuplicate
	}
	r.created = append(r.created, user)
	r.users[user.Username] = &user
	return nil
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	user, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetByUsernameAndPin(_ context.Context, username string, pin int) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	user, ok := r.users[username]
	if !ok || user.Activated || user.PIN != pin {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetRole(_ context.Context, username string) (domain.Role, error) {
	if r.failWith != nil {
		return "", r.failWith
	}
	user, ok := r.users[username]
	if !ok {
		return "", repository.ErrNotFound
	}
	return user.Role, nil
}

func (r *stubUserRepo) UsernameOrEmailTaken(_ context.Context, username, email string) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) HasSolved(_ context.Context, username, riddleID string) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	user, ok := r.users[username]
	if !ok {
		return false, nil
	}
	return user.SolvedRiddle(riddleID), nil
}

func (r *stubUserRepo) Activate(_ context.Context, user domain.User) error {
	if r.failWith != nil {
		return r.failWith
	}
	stored, ok := r.users[user.Username]
	if !ok || stored.Activated {
		return repository.ErrNotFound
	}
	r.activated = append(r.activated, user)
	user.Activated = true
	r.users[user.Username] = &user
	return nil
}

func (r *stubUserRepo) SetCurrentAttempt(_ context.Context, username string, attempt domain.RiddleAttempt) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[username]; !ok {
		return repository.ErrNotFound
	}
	r.attempts[username] = attempt
	return nil
}

func (r *stubUserRepo) RecordSolved(_ context.Context, userID, riddleID string, solved []domain.RiddleAttempt, level, score int) error {
	if r.failWith != nil {
		return r.failWith
	}
	if r.solvedConflict {
		return repository.ErrNotFound
	}
	if r.byID(userID) == nil {
		return repository.ErrNotFound
	}
	r.solvedCalls = append(r.solvedCalls, recordSolvedCall{
		userID:   userID,
		riddleID: riddleID,
		solved:   solved,
		level:    level,
		score:    score,
	})
	return nil
}

func (r *stubUserRepo) UpdateScore(_ context.Context, userID string, score int) error {
	if r.failWith != nil {
		return r.failWith
	}
	user := r.byID(userID)
	if user == nil {
		return repository.ErrNotFound
	}
	r.scoreUpdates = append(r.scoreUpdates, score)
	user.Score = score
	return nil
}

func (r *stubUserRepo) MoveToRoom(_ context.Context, userID, roomID string, finish *domain.GameFinish) error {
	if r.failWith != nil {
		return r.failWith
	}
	user := r.byID(userID)
	if user == nil {
		return repository.ErrNotFound
	}
	r.moves = append(r.moves, moveCall{userID: userID, roomID: roomID, finish: finish})
	user.InRoom = &roomID
	return nil
}

func (r *stubUserRepo) SetAwaitingSecondFactor(_ context.Context, userID string, awaiting bool) error {
	if r.failWith != nil {
		return r.failWith
	}
	if r.byID(userID) == nil {
		return repository.ErrNotFound
	}
	r.awaiting[userID] = awaiting
	return nil
}

func (r *stubUserRepo) RecordLogin(_ context.Context, username string) error {
	if r.failWith != nil {
		return r.failWith
	}
	user, ok := r.users[username]
	if !ok || !user.Activated {
		return repository.ErrNotFound
	}
	r.logins = append(r.logins, username)
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, username, passwordHash string) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[username]; !ok {
		return repository.ErrNotFound
	}
	r.passwords[username] = passwordHash
	return nil
}

func (r *stubUserRepo) SetTOTPKey(_ context.Context, username string, key []byte) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[username]; !ok {
		return repository.ErrNotFound
	}
	r.totpKeys[username] = key
	return nil
}

func (r *stubUserRepo) SetRole(_ context.Context, username string, role domain.Role) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[username]; !ok {
		return repository.ErrNotFound
	}
	r.roles[username] = role
	return nil
}

func (r *stubUserRepo) SaveWebauthnCredentials(_ context.Context, username string, credentials []webauthn.Credential) error {
	if r.failWith != nil {
		return r.failWith
	}
	user, ok := r.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	user.WebauthnCredentials = credentials
	r.savedCredCalls++
	return nil
}

type stubRoomRepo struct {
	rooms  map[string]*domain.Room
	behind map[string]*domain.Room
	entry  *domain.Room

	numRooms   int
	numRiddles int
	maxScore   int

	failWith error
}

func newStubRoomRepo(rooms ...*domain.Room) *stubRoomRepo {
	repo := &stubRoomRepo{
		rooms:  make(map[string]*domain.Room),
		behind: make(map[string]*domain.Room),
	}
	for _, room := range rooms {
		repo.rooms[room.ID] = room
		if room.Entry {
			repo.entry = room
		}
		for _, doorway := range room.Neighbors {
			repo.behind[doorway.Direction+"|"+doorway.RiddleID] = room
		}
	}
	return repo
}

func (r *stubRoomRepo) GetByID(_ context.Context, id string) (*domain.Room, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return room, nil
}

func (r *stubRoomRepo) FindBehind(_ context.Context, direction, riddleID string) (*domain.Room, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	room, ok := r.behind[direction+"|"+riddleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return room, nil
}

func (r *stubRoomRepo) FindEntry(_ context.Context, gameID string) (*domain.Room, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	if r.entry == nil {
		return nil, repository.ErrNotFound
	}
	if gameID != "" && r.entry.GameID != gameID {
		return nil, repository.ErrNotFound
	}
	return r.entry, nil
}

func (r *stubRoomRepo) CountByGame(_ context.Context, _ string) (int, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	return r.numRooms, nil
}

func (r *stubRoomRepo) CountDistinctRiddles(_ context.Context, _ string) (int, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	return r.numRiddles, nil
}

func (r *stubRoomRepo) MaxScore(_ context.Context, _ string) (int, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	return r.maxScore, nil
}

type stubRiddleRepo struct {
	riddles  map[string]*domain.Riddle
	failWith error
}

func newStubRiddleRepo(riddles ...*domain.Riddle) *stubRiddleRepo {
	repo := &stubRiddleRepo{riddles: make(map[string]*domain.Riddle)}
	for _, riddle := range riddles {
		repo.riddles[riddle.ID] = riddle
	}
	return repo
}

func (r *stubRiddleRepo) GetByID(_ context.Context, id string) (*domain.Riddle, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	riddle, ok := r.riddles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return riddle, nil
}

func (r *stubRiddleRepo) GetByLevel(_ context.Context, level int) (*domain.Riddle, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, riddle := range r.riddles {
		if riddle.Level == level {
			return riddle, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubBlobStore struct {
	blobs    map[string][]byte
	failWith error
}

func (s *stubBlobStore) Fetch(_ context.Context, objectName string) ([]byte, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	data, ok := s.blobs[objectName]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return data, nil
}

type stubEventPublisher struct {
	registered []domain.UserRegisteredEvent
	activated  []domain.UserActivatedEvent
	solved     []domain.RiddleSolvedEvent
	finished   []domain.GameFinishedEvent
	failWith   error
}

func (p *stubEventPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.registered = append(p.registered, event)
	return nil
}

func (p *stubEventPublisher) PublishUserActivated(_ context.Context, event domain.UserActivatedEvent) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.activated = append(p.activated, event)
	return nil
}

func (p *stubEventPublisher) PublishRiddleSolved(_ context.Context, event domain.RiddleSolvedEvent) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.solved = append(p.solved, event)
	return nil
}

func (p *stubEventPublisher) PublishGameFinished(_ context.Context, event domain.GameFinishedEvent) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.finished = append(p.finished, event)
	return nil
}

type sentMail struct {
	username string
	email    string
	pin      int
}

type stubMailer struct {
	sent     []sentMail
	failWith error
}

func (m *stubMailer) SendActivationPin(_ context.Context, username, email string, pin int) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentMail{username: username, email: email, pin: pin})
	return nil
}

type stubTokenIssuer struct {
	failWith error
}

func (s *stubTokenIssuer) Issue(username string, role domain.Role) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	return "token-" + username + "-" + string(role), nil
}

func (s *stubTokenIssuer) Parse(token string) (*port.AuthClaims, error) {
	username, rest, ok := strings.Cut(strings.TrimPrefix(token, "token-"), "-")
	if !ok {
		return nil, errors.New("malformed stub token")
	}
	return &port.AuthClaims{Username: username, Role: domain.ParseRole(rest)}, nil
}

type stubHasher struct {
	failWith error
}

func (h *stubHasher) Hash(password string) (string, error) {
	if h.failWith != nil {
		return "", h.failWith
	}
	return "hashed:" + password, nil
}

func (h *stubHasher) Verify(password, encoded string) (bool, error) {
	if h.failWith != nil {
		return false, h.failWith
	}
	return encoded == "hashed:"+password, nil
}

type stubPolicy struct {
	failWith error
}

func (p *stubPolicy) Validate(_ string) error {
	return p.failWith
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
