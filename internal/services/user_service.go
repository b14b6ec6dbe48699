package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"depo-backend/internal/activity"
	"depo-backend/internal/auth"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/internal/store"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("account is disabled")
)

// ClientInfo is what the audit log records about the caller's connection.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type UserService struct {
	Repo       *repositories.UserRepository
	JWTManager *auth.JWTManager
	Tracker    *activity.Tracker
	log        *logrus.Entry
}

func NewUserService(repo *repositories.UserRepository, jwtManager *auth.JWTManager, tracker *activity.Tracker, log *logrus.Entry) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
		Tracker:    tracker,
		log:        log,
	}
}

// Login authenticates a user, writes the audit row and opens the presence
// session. Failed attempts are audited under the attempted username.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest, client ClientInfo) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", store.ErrInvalid)
	}

	user, err := s.Repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.audit(ctx, activity.Event{Action: models.ActionFailedLogin, Username: username}, client)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.audit(ctx, activity.Event{Action: models.ActionFailedLogin, Username: username}, client)
		return nil, ErrUserInactive
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, activity.Event{Action: models.ActionLogin, User: user}, client)
	if err := s.Tracker.StartSession(ctx, user, client.IPAddress, client.UserAgent); err != nil {
		s.log.WithError(err).WithField("user", user.Username).Warn("could not start session")
	}

	return &models.AuthResponse{Token: token, User: user}, nil
}

// Resume records an auto_login for a client that came back with a still
// valid token and refreshes the presence session.
func (s *UserService) Resume(ctx context.Context, actor models.Actor, client ClientInfo) (*models.User, error) {
	user, err := s.activeUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, activity.Event{Action: models.ActionAutoLogin, User: user}, client)
	if err := s.Tracker.StartSession(ctx, user, client.IPAddress, client.UserAgent); err != nil {
		s.log.WithError(err).WithField("user", user.Username).Warn("could not start session")
	}
	return user, nil
}

func (s *UserService) Logout(ctx context.Context, actor models.Actor, client ClientInfo) error {
	user, err := s.Repo.Get(ctx, actor.UserID)
	if err != nil {
		user = &models.User{ID: actor.UserID, Username: actor.Username}
	}
	s.audit(ctx, activity.Event{Action: models.ActionLogout, User: user}, client)
	return s.Tracker.EndSession(ctx, actor.UserID)
}

// Heartbeat refreshes the caller's presence row.
func (s *UserService) Heartbeat(ctx context.Context, actor models.Actor, req models.HeartbeatRequest, client ClientInfo) error {
	user, err := s.activeUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	return s.Tracker.UpdateActivity(ctx, user, client.IPAddress, client.UserAgent, req.CurrentPage, req.CurrentAction)
}

func (s *UserService) activeUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// audit never fails the request; a lost audit row is logged instead.
func (s *UserService) audit(ctx context.Context, ev activity.Event, client ClientInfo) {
	ev.IPAddress, ev.UserAgent = client.IPAddress, client.UserAgent
	if _, err := s.Tracker.LogAction(ctx, ev); err != nil {
		s.log.WithError(err).WithField("action", ev.Action).Error("could not write login log")
	}
}

func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func hashPassword(pw string) (string, error) {
	hash, err := auth.HashPassword(pw)
	if errors.Is(err, auth.ErrWeakPassword) {
		return "", fmt.Errorf("%v: %w", err, store.ErrInvalid)
	}
	return hash, err
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// UpdateUser updates an existing user; a non-empty password is re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req *models.UpdateUserRequest, isActive *bool) (*models.User, error) {
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = req.Name
	user.Role = req.Role
	user.DepartmentID = req.DepartmentID
	if isActive != nil {
		user.IsActive = *isActive
	}
	user.PasswordHash = ""
	if req.Password != "" {
		if user.PasswordHash, err = hashPassword(req.Password); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	if !user.IsActive {
		_ = s.Tracker.EndSession(ctx, user.ID)
	}
	return user, nil
}

// DeleteUser removes the account and its presence row. Audit rows stay.
func (s *UserService) DeleteUser(ctx context.Context, actor models.Actor, id int64) error {
	if actor.UserID == id {
		return fmt.Errorf("cannot delete your own account: %w", store.ErrInvalid)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.Tracker.EndSession(ctx, id)
	return nil
}
