package status

import (
	"context"
	"fmt"
	"time"

	"github.com/wingmanlabs/wingman/internal/pubsub"
)

// Level represents the severity level of a status message.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelDebug Level = "debug"
)

// Message is a one-line, non-blocking status update for the editor's
// status bar. It is never an error dialog.
type Message struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Service publishes status messages to subscribers.
type Service interface {
	pubsub.Subscriber[Message]

	Info(message string)
	Warn(message string)
	Error(message string)
	Debug(message string)
}

type service struct {
	broker *pubsub.Broker[Message]
}

var globalStatusService *service

func InitService() error {
	if globalStatusService != nil {
		return fmt.Errorf("status service already initialized")
	}
	globalStatusService = &service{
		broker: pubsub.NewBroker[Message](),
	}
	return nil
}

func GetService() Service {
	if globalStatusService == nil {
		panic("status service not initialized. Call status.InitService() first.")
	}
	return globalStatusService
}

func (s *service) Info(message string)  { s.publish(LevelInfo, message) }
func (s *service) Warn(message string)  { s.publish(LevelWarn, message) }
func (s *service) Error(message string) { s.publish(LevelError, message) }
func (s *service) Debug(message string) { s.publish(LevelDebug, message) }

func (s *service) publish(level Level, message string) {
	s.broker.Publish(pubsub.EventTypeCreated, Message{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Message] {
	return s.broker.Subscribe(ctx)
}

func (s *service) Shutdown() {
	s.broker.Shutdown()
}

// The package-level helpers are no-ops before InitService so early
// failure paths can report without caring about startup order.
func Info(message string)  { publishGlobal(LevelInfo, message) }
func Warn(message string)  { publishGlobal(LevelWarn, message) }
func Error(message string) { publishGlobal(LevelError, message) }
func Debug(message string) { publishGlobal(LevelDebug, message) }

func publishGlobal(level Level, message string) {
	if globalStatusService != nil {
		globalStatusService.publish(level, message)
	}
}

func Subscribe(ctx context.Context) <-chan pubsub.Event[Message] {
	return GetService().Subscribe(ctx)
}

// Shutdown closes the underlying broker. Safe to call when the service
// was never initialized.
func Shutdown() {
	if globalStatusService != nil {
		globalStatusService.Shutdown()
	}
}
