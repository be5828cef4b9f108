package authentication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	authcontext "github.com/nasermirzaei89/agora/authentication/context"
	"github.com/nasermirzaei89/agora/authorization"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	userRepo       UserRepository
	sessionRepo    SessionRepository
	authzClient    *authorization.Client
	bloomFilter    *BloomFilter
	adminUsernames []string
	validate       *validator.Validate
}

func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	authzClient *authorization.Client,
	adminUsernames ...string,
) *Service {
	return &Service{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		authzClient:    authzClient,
		bloomFilter:    nil,
		adminUsernames: adminUsernames,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (svc *Service) LoadBloomFilter(ctx context.Context, minCapacity uint, falsePositiveRate float64) error {
	usernames, err := svc.userRepo.ListUsernames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list usernames for bloom filter: %w", err)
	}

	capacity := max(uint(len(usernames)), minCapacity)

	bf := NewBloomFilter(capacity, falsePositiveRate)
	for _, u := range usernames {
		bf.Add(u)
	}

	svc.bloomFilter = bf

	return nil
}

func HashPassword(password string) (string, error) {
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(bcryptHash), nil
}

type credentials struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=8,max=72"`
}

type InvalidCredentialsError struct {
	Err error
}

func (err InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials: %s", err.Err)
}

func (err InvalidCredentialsError) Unwrap() error {
	return err.Err
}

func (svc *Service) usernameTaken(ctx context.Context, username string) (bool, error) {
	if svc.bloomFilter != nil && !svc.bloomFilter.Test(username) {
		return false, nil
	}

	_, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		var notFoundErr *UserByUsernameNotFoundError
		if errors.As(err, &notFoundErr) {
			return false, nil
		}

		return false, fmt.Errorf("failed to find user by username: %w", err)
	}

	return true, nil
}

func (svc *Service) Register(ctx context.Context, username, password string) error {
	err := svc.validate.Struct(credentials{Username: username, Password: password})
	if err != nil {
		return &InvalidCredentialsError{Err: err}
	}

	taken, err := svc.usernameTaken(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check if username already exists: %w", err)
	}

	if taken {
		return &UserAlreadyExistsError{Username: username}
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		RegisteredAt: time.Now(),
	}

	err = svc.userRepo.Insert(ctx, user)
	if err != nil {
		var alreadyExistsErr *UserAlreadyExistsError
		if errors.As(err, &alreadyExistsErr) {
			if svc.bloomFilter != nil {
				svc.bloomFilter.Add(username)
			}

			return alreadyExistsErr
		}

		return fmt.Errorf("failed to register user: %w", err)
	}

	if svc.bloomFilter != nil {
		svc.bloomFilter.Add(username)
	}

	groups := []string{authcontext.Authenticated}
	if slices.Contains(svc.adminUsernames, username) {
		groups = append(groups, authcontext.Admin)
	}

	err = svc.authzClient.AddToGroup(ctx, user.ID, groups...)
	if err != nil {
		return fmt.Errorf("failed to add user to groups: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "userId", user.ID, "username", username)

	return nil
}

var ErrInvalidCredentials = errors.New("invalid credentials")

const defaultSessionDuration = 30 * 24 * time.Hour

func (svc *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		var notFoundErr *UserByUsernameNotFoundError
		if errors.As(err, &notFoundErr) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	timeNow := time.Now()

	session := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: timeNow,
		ExpiresAt: timeNow.Add(defaultSessionDuration),
	}

	err = svc.sessionRepo.Insert(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (svc *Service) Logout(ctx context.Context, sessionID string) error {
	err := svc.sessionRepo.Delete(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (svc *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := svc.sessionRepo.Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if session.ExpiresAt.Before(time.Now()) {
		err = svc.sessionRepo.Delete(ctx, sessionID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to delete expired session", "sessionId", sessionID, "error", err)
		}

		return nil, &SessionExpiredError{ID: sessionID}
	}

	return session, nil
}

// PruneSessions drops every session that has already expired.
func (svc *Service) PruneSessions(ctx context.Context) error {
	count, err := svc.sessionRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	if count > 0 {
		slog.InfoContext(ctx, "expired sessions pruned", "count", count)
	}

	return nil
}

func (svc *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := svc.userRepo.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	user.PasswordHash = "" // clear password hash before returning user

	return user, nil
}

func (svc *Service) GetCurrentUser(ctx context.Context) (*User, error) {
	sub := authcontext.GetSubject(ctx)
	if sub == authcontext.Anonymous {
		return nil, ErrCurrentUserNotFound
	}

	user, err := svc.GetUser(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return user, nil
}
