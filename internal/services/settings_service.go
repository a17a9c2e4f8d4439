package services

import (
	"context"
	"errors"
	"fmt"

	"paycycle/internal/amqp"
	"paycycle/internal/core"
	applog "paycycle/internal/log"
	"paycycle/internal/store"
)

// EventPublisher publishes settings-changed events. The AMQP client
// satisfies it; a nil publisher disables eventing.
type EventPublisher interface {
	PublishSettingsChanged(ctx context.Context, userID int64, change string) error
	Close() error
}

// SettingsService orchestrates pay-cycle configuration writes across
// storage and AMQP.
type SettingsService struct {
	repo      store.SettingsRepository
	publisher EventPublisher
	log       *applog.Logger
}

func NewSettingsService(repo store.SettingsRepository, publisher EventPublisher) *SettingsService {
	return &SettingsService{
		repo:      repo,
		publisher: publisher,
		log:       applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentSettings),
	}
}

// Get returns the stored configuration. store.ErrNotFound is a normal
// outcome for users still on implicit calendar defaults.
func (s *SettingsService) Get(ctx context.Context, userID int64) (store.UserSettings, error) {
	return s.repo.GetSettings(ctx, userID)
}

// Create validates and stores a first configuration for the user.
func (s *SettingsService) Create(ctx context.Context, userID int64, in core.Settings) (store.UserSettings, error) {
	valid, err := in.Validate()
	if err != nil {
		return store.UserSettings{}, err
	}

	saved, err := s.repo.CreateSettings(ctx, userID, valid)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return store.UserSettings{}, err
		}
		return store.UserSettings{}, fmt.Errorf("create settings: %w", err)
	}

	s.publishChange(ctx, userID, amqp.ChangeCreated)
	return saved, nil
}

// Update validates and replaces the user's configuration.
func (s *SettingsService) Update(ctx context.Context, userID int64, in core.Settings) (store.UserSettings, error) {
	valid, err := in.Validate()
	if err != nil {
		return store.UserSettings{}, err
	}

	saved, err := s.repo.UpdateSettings(ctx, userID, valid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.UserSettings{}, err
		}
		return store.UserSettings{}, fmt.Errorf("update settings: %w", err)
	}

	s.publishChange(ctx, userID, amqp.ChangeUpdated)
	return saved, nil
}

// Delete removes the user's configuration, reverting them to calendar
// defaults. Deleting an absent configuration succeeds.
func (s *SettingsService) Delete(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteSettings(ctx, userID); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}

	s.publishChange(ctx, userID, amqp.ChangeDeleted)
	return nil
}

// publishChange is best effort. The write already succeeded, a lost
// event only delays the worker until its next sweep.
func (s *SettingsService) publishChange(ctx context.Context, userID int64, change string) {
	if s.publisher == nil {
		s.log.DebugContext(ctx, "Event publisher not available, skipping settings changed message",
			applog.FieldUserID, userID,
			"change", change)
		return
	}

	if err := s.publisher.PublishSettingsChanged(ctx, userID, change); err != nil {
		s.log.ErrorContext(ctx, "Failed to publish settings changed message",
			applog.FieldUserID, userID,
			"change", change,
			applog.FieldError, err)
	}
}

// Close closes the event publisher connection.
func (s *SettingsService) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			return fmt.Errorf("close settings service: %w", err)
		}
	}
	return nil
}
