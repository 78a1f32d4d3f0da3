package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/store"
	"github.com/AnshRaj112/patience-portal/pkg/utils"
)

// MsgPINInvalid is returned by login for a malformed PIN.
const MsgPINInvalid = "Code PIN invalide"

// SubscriberRepository is the subscriber side of the relational store.
type SubscriberRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Subscriber, error)
	FindByID(ctx context.Context, id string) (*models.Subscriber, error)
	// SetPINIfUnset returns store.ErrConflict when a PIN is already stored.
	SetPINIfUnset(ctx context.Context, id, pinHash string, at time.Time) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Profile(ctx context.Context, id string) (*models.Profile, error)
	BillingInfo(ctx context.Context, id string) (*models.BillingInfo, error)
}

// CheckResult tells the client which screen to show next.
type CheckResult struct {
	SubscriberID   string
	SubscriberName string
	HasPIN         bool
}

// AuthResult is returned by enroll and login.
type AuthResult struct {
	Token        string
	SubscriberID string
	ExpiresAt    time.Time
}

// AuthService implements the check / enroll / login / logout flow.
// Every action re-resolves the subscriber from the phone it is given.
type AuthService struct {
	subs     SubscriberRepository
	sessions *SessionService
	secret   string
	now      func() time.Time
}

func NewAuthService(subs SubscriberRepository, sessions *SessionService, pinSecret string) *AuthService {
	return &AuthService{subs: subs, sessions: sessions, secret: pinSecret, now: time.Now}
}

func (s *AuthService) findByPhone(ctx context.Context, rawPhone string) (*models.Subscriber, error) {
	phone := utils.NormalizePhone(rawPhone)
	if phone == "" || phone == "+" {
		return nil, newError(KindValidation, MsgPhoneRequired)
	}
	sub, err := s.subs.FindByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, MsgPhoneNotFound)
	}
	if err != nil {
		return nil, internalError(err)
	}
	return sub, nil
}

// Check reports whether the subscriber exists and has a PIN.
func (s *AuthService) Check(ctx context.Context, phone string) (*CheckResult, error) {
	sub, err := s.findByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return &CheckResult{SubscriberID: sub.ID, SubscriberName: sub.Name, HasPIN: sub.HasPIN()}, nil
}

// Enroll sets the first PIN and opens a session. An existing PIN is never
// overwritten: the write is conditional on pin_hash being null, so of two
// racing enrollments only one succeeds.
func (s *AuthService) Enroll(ctx context.Context, phone, pin string) (*AuthResult, error) {
	if err := utils.ValidatePIN(pin); err != nil {
		return nil, newError(KindValidation, err.Error())
	}
	sub, err := s.findByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if sub.HasPIN() {
		return nil, newError(KindAlreadyEnrolled, MsgPINAlreadySet)
	}

	hash := utils.HashPIN(pin, s.secret)
	err = s.subs.SetPINIfUnset(ctx, sub.ID, hash, s.now().UTC())
	if errors.Is(err, store.ErrConflict) {
		return nil, newError(KindAlreadyEnrolled, MsgPINAlreadySet)
	}
	if err != nil {
		return nil, internalError(err)
	}

	return s.issue(ctx, sub.ID)
}

// Login verifies the PIN and opens a session.
func (s *AuthService) Login(ctx context.Context, phone, pin string) (*AuthResult, error) {
	if err := utils.ValidatePIN(pin); err != nil {
		return nil, newError(KindValidation, MsgPINInvalid)
	}
	sub, err := s.findByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !sub.HasPIN() {
		return nil, newError(KindInvalidCredential, MsgPINNotSet)
	}
	if !utils.VerifyPIN(pin, s.secret, *sub.PINHash) {
		return nil, newError(KindInvalidCredential, MsgPINIncorrect)
	}

	if err := s.subs.TouchLastLogin(ctx, sub.ID, s.now().UTC()); err != nil {
		return nil, internalError(err)
	}
	return s.issue(ctx, sub.ID)
}

// issue is the last step of enroll and login.
func (s *AuthService) issue(ctx context.Context, subscriberID string) (*AuthResult, error) {
	sess, err := s.sessions.Issue(ctx, subscriberID)
	if err != nil {
		return nil, internalError(err)
	}
	return &AuthResult{Token: sess.Token, SubscriberID: subscriberID, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout deletes the session. It always succeeds from the caller's view;
// storage failures are only logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		logger.From(ctx).Warn("session revoke failed", logger.Token(token), zap.Error(err))
	}
}

// Validate resolves a token to a subscriber id.
func (s *AuthService) Validate(ctx context.Context, token string) (string, error) {
	return s.sessions.Validate(ctx, token)
}
