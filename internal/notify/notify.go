package notify

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	run     func(name string, args ...string) error
}

// NewNotifier creates a new notifier
func NewNotifier() *Notifier {
	return &Notifier{
		enabled: true,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// Args builds the notify-send argument list for a notification
func Args(notification Notification) []string {
	args := []string{}

	// Add urgency
	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// Add timeout (in milliseconds)
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "tabshelf")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}
	return n.run("notify-send", Args(notification)...)
}

// SendSimple sends a simple notification with title and body
func (n *Notifier) SendSimple(title, body string) error {
	return n.Send(Notification{
		Title:   title,
		Body:    body,
		Urgency: UrgencyNormal,
		Timeout: 5 * time.Second,
	})
}

// SendImportComplete reports a finished import and where the safety export went
func (n *Notifier) SendImportComplete(items int, backupPath string) error {
	body := fmt.Sprintf("%d items merged", items)
	if backupPath != "" {
		body += "\nBackup: " + filepath.Base(backupPath)
	}
	return n.Send(Notification{
		Title:   "Import complete",
		Body:    body,
		Urgency: UrgencyNormal,
		Timeout: 10 * time.Second,
		Icon:    "document-open-symbolic",
	})
}

// SendBackupWritten reports a manual backup
func (n *Notifier) SendBackupWritten(path string) error {
	return n.Send(Notification{
		Title:   "Backup written",
		Body:    filepath.Base(path),
		Urgency: UrgencyLow,
		Timeout: 5 * time.Second,
		Icon:    "document-save-symbolic",
	})
}

// SendWorkspaceRestored reports how many windows a restore opened
func (n *Notifier) SendWorkspaceRestored(name string, windows int) error {
	return n.Send(Notification{
		Title:   name,
		Body:    fmt.Sprintf("Restored %d windows", windows),
		Urgency: UrgencyNormal,
		Timeout: 5 * time.Second,
		Icon:    "window-new-symbolic",
	})
}

// SendFailure reports a store or browser error the user should see
func (n *Notifier) SendFailure(what string, err error) error {
	return n.Send(Notification{
		Title:   what + " failed",
		Body:    err.Error(),
		Urgency: UrgencyCritical,
		Timeout: 15 * time.Second,
		Icon:    "dialog-error-symbolic",
	})
}
