package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/render"
)

// DoInbox lists threads with activity the signed-in user has not seen.
func DoInbox(cfg *config.Config, limit int) {
	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	entries, err := client.Inbox(context.Background(), limit)
	if err != nil {
		reportAPIError("Inbox listing", err)
		return
	}

	render.NewRenderer(cfg).InboxTable(os.Stdout, entries)
}

// DoNotifications lists mentions and other notifications.
func DoNotifications(cfg *config.Config) {
	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	notifications, err := client.Notifications(context.Background())
	if err != nil {
		reportAPIError("Notification listing", err)
		return
	}

	render.NewRenderer(cfg).NotificationTable(os.Stdout, notifications)
}
