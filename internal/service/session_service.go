package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// StateRepository abstracts persistence for console session state.
type StateRepository interface {
	Get(ctx context.Context, id string, dest interface{}) error
	Set(ctx context.Context, id string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// SessionService loads and saves console state per browser session.
type SessionService struct {
	repo    StateRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewSessionService constructs a session service.
func NewSessionService(repo StateRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *SessionService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

// Load returns the console stored for id. found is false when the session is
// new or its state could not be read; a fresh console is returned either way.
// State that no longer decodes into a Console is removed from the store.
func (s *SessionService) Load(ctx context.Context, id string) (console *Console, found bool, err error) {
	console = NewConsole()
	start := time.Now()
	err = s.repo.Get(ctx, id, console)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordSessionLookup(false, duration)
		if errors.Is(err, appErrors.ErrSessionMiss) {
			return NewConsole(), false, nil
		}
		if undecodable(err) {
			s.logger.Warn("discarding unreadable session state", zap.String("session_id", id), zap.Error(err))
			return NewConsole(), false, s.Drop(ctx, id)
		}
		s.logger.Warn("session load failed", zap.String("session_id", id), zap.Error(err))
		return NewConsole(), false, err
	}
	s.metrics.RecordSessionLookup(true, duration)
	console.normalize()
	return console, true, nil
}

// Save stores console for id and refreshes its TTL.
func (s *SessionService) Save(ctx context.Context, id string, console *Console) error {
	start := time.Now()
	err := s.repo.Set(ctx, id, console, s.ttl)
	s.metrics.ObserveSessionWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("session save failed", zap.String("session_id", id), zap.Error(err))
	}
	return err
}

// Drop forgets the state stored for id.
func (s *SessionService) Drop(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("session drop failed", zap.String("session_id", id), zap.Error(err))
		return err
	}
	return nil
}

func undecodable(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
