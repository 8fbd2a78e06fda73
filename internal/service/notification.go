package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metro/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTicketPurchased NotificationType = "TICKET_PURCHASED"
	NotificationTicketScanned   NotificationType = "TICKET_SCANNED"
	NotificationWalletToppedUp  NotificationType = "WALLET_TOPPED_UP"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // passenger ID
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// NotificationService handles notification delivery. Delivery is a
// structured log line; push and email channels are out of scope.
type NotificationService struct {
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{logger: logger}
}

// NotifyTicketPurchased tells the passenger their ticket is ready.
func (s *NotificationService) NotifyTicketPurchased(ctx context.Context, ticket *domain.Ticket, receipt *domain.Receipt) error {
	return s.send(ctx, Notification{
		Type:        NotificationTicketPurchased,
		RecipientID: ticket.PassengerID,
		Title:       "Ticket Purchased",
		Message:     fmt.Sprintf("Ticket purchased successfully. Route: %s", ticket.PathRepr()),
		Data: map[string]any{
			"ticket_id":     ticket.ID,
			"price":         ticket.Price.StringFixed(2),
			"lines":         ticket.LinesUsedRepr(),
			"receipt_id":    receipt.ID,
			"balance_after": receipt.BalanceAfter.StringFixed(2),
		},
		CreatedAt: now(),
	})
}

// NotifyTicketScanned tells the passenger about a gate scan.
func (s *NotificationService) NotifyTicketScanned(ctx context.Context, ticket *domain.Ticket, scan *domain.TicketScan) error {
	return s.send(ctx, Notification{
		Type:        NotificationTicketScanned,
		RecipientID: ticket.PassengerID,
		Title:       "Ticket Scanned",
		Message:     fmt.Sprintf("%s scan recorded. Ticket is now %s.", scan.Direction, ticket.Status),
		Data: map[string]any{
			"ticket_id":  ticket.ID,
			"station_id": scan.StationID,
			"direction":  string(scan.Direction),
		},
		CreatedAt: now(),
	})
}

// NotifyWalletToppedUp tells the passenger their wallet was credited.
func (s *NotificationService) NotifyWalletToppedUp(ctx context.Context, receipt *domain.Receipt) error {
	return s.send(ctx, Notification{
		Type:        NotificationWalletToppedUp,
		RecipientID: receipt.PassengerID,
		Title:       "Wallet Topped Up",
		Message:     fmt.Sprintf("Wallet topped up by %s", formatMoney(receipt.Amount)),
		Data: map[string]any{
			"receipt_id":    receipt.ID,
			"balance_after": receipt.BalanceAfter.StringFixed(2),
		},
		CreatedAt: now(),
	})
}

// send delivers a notification.
func (s *NotificationService) send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification",
		"type", n.Type,
		"recipient", n.RecipientID,
		"title", n.Title,
		"message", n.Message,
		"data", n.Data)
	return nil
}
