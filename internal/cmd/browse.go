package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/render"
)

// DoWhoami prints the profile of the signed-in user.
func DoWhoami(cfg *config.Config) {
	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	user, err := client.Me(context.Background())
	if err != nil {
		reportAPIError("Profile lookup", err)
		return
	}

	render.NewRenderer(cfg).UserCard(os.Stdout, user)
}

// DoWorkspaces lists the workspaces the signed-in user belongs to.
func DoWorkspaces(cfg *config.Config) {
	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	workspaces, err := client.Workspaces(context.Background())
	if err != nil {
		reportAPIError("Workspace listing", err)
		return
	}

	render.NewRenderer(cfg).WorkspaceTable(os.Stdout, workspaces)
}

// DoChannels lists the channels of one workspace. Without an explicit
// workspace the configured default applies.
func DoChannels(cfg *config.Config, workspaceID string) {
	if workspaceID == "" {
		workspaceID = cfg.Workspace
	}
	if workspaceID == "" {
		fmt.Println("Specify a workspace with -workspace.")
		return
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	channels, err := client.Channels(context.Background(), workspaceID)
	if err != nil {
		reportAPIError("Channel listing", err)
		return
	}

	render.NewRenderer(cfg).ChannelTable(os.Stdout, channels)
}

// DoThreads lists threads. With a channel it lists that channel's threads,
// otherwise it gathers the most recently active threads across the whole
// workspace.
func DoThreads(cfg *config.Config, workspaceID, channelID string, limit int) {
	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx := context.Background()
	if channelID != "" {
		threads, errList := client.Threads(ctx, channelID, limit)
		if errList != nil {
			reportAPIError("Thread listing", errList)
			return
		}
		render.NewRenderer(cfg).ThreadTable(os.Stdout, threads)
		return
	}

	if workspaceID == "" {
		workspaceID = cfg.Workspace
	}
	if workspaceID == "" {
		fmt.Println("Specify a channel with -channel or a workspace with -workspace.")
		return
	}
	threads, err := client.RecentThreads(ctx, workspaceID, limit)
	if err != nil {
		reportAPIError("Thread listing", err)
		return
	}
	render.NewRenderer(cfg).ThreadTable(os.Stdout, threads)
}

// DoThread shows one thread with its comments.
func DoThread(cfg *config.Config, threadID string) {
	if threadID == "" {
		fmt.Println("Specify a thread, for example: skein -thread th-123")
		return
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx := context.Background()
	thread, err := client.Thread(ctx, threadID)
	if err != nil {
		reportAPIError("Thread lookup", err)
		return
	}
	comments, err := client.Comments(ctx, threadID)
	if err != nil {
		reportAPIError("Comment listing", err)
		return
	}

	render.NewRenderer(cfg).ThreadView(os.Stdout, thread, comments)
}
