package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/render"
)

// DoSearch runs a full-text search across the threads the user can see.
func DoSearch(cfg *config.Config, query string, limit int) {
	if query == "" {
		fmt.Println("Specify a search query, for example: skein -search \"deploy window\"")
		return
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	hits, err := client.Search(context.Background(), query, limit)
	if err != nil {
		reportAPIError("Search", err)
		return
	}

	render.NewRenderer(cfg).SearchTable(os.Stdout, hits)
}

// DoSend posts a comment to a thread.
func DoSend(cfg *config.Config, threadID, message string) {
	if threadID == "" {
		fmt.Println("Specify a thread with -thread.")
		return
	}
	if message == "" {
		fmt.Println("Specify a message with -m.")
		return
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	comment, err := client.AddComment(context.Background(), threadID, message)
	if err != nil {
		reportAPIError("Sending", err)
		return
	}

	fmt.Printf("Posted to %s as comment %s\n", threadID, comment.ID)
}
