package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tasknotes/internal/media"
	"github.com/sandeepkv93/tasknotes/internal/model"
	"github.com/sandeepkv93/tasknotes/internal/views"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "Print the notes of a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient(runtimeCfg)
		if err != nil {
			fatal("Failed to create API client", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notes, err := client.ListNotes(ctx, args[0])
		if err != nil {
			fatal("Failed to load notes", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(notes); err != nil {
				fatal("Failed to encode notes", err)
			}
			return
		}

		if task, err := client.GetTask(ctx, args[0]); err == nil {
			color.New(color.Bold).Printf("%s", task.Title)
			fmt.Printf(" (%s, %s)\n", task.Status, task.Priority)
		}
		printNotes(os.Stdout, notes, currentUserID(runtimeCfg.AuthToken), time.Now())
	},
}

func printNotes(w io.Writer, notes []model.Note, userID string, now time.Time) {
	if len(notes) == 0 {
		fmt.Fprintln(w, views.EmptyNotesText)
		return
	}
	other := color.New(color.FgCyan, color.Bold)
	own := color.New(color.FgGreen, color.Bold)
	faint := color.New(color.Faint)

	for _, g := range views.GroupNotes(notes, userID, views.GroupWindow) {
		author := other
		name := g.Author.DisplayName()
		if g.Own {
			author = own
			name += " (you)"
		}
		fmt.Fprintf(w, "%s %s\n", author.Sprint(name), faint.Sprint(media.FormatRelative(g.Start(), now)))
		for _, n := range g.Notes {
			if text := strings.TrimSpace(n.Text); text != "" {
				for _, line := range strings.Split(text, "\n") {
					fmt.Fprintf(w, "  %s\n", line)
				}
			}
			for _, a := range n.Attachments {
				fmt.Fprintf(w, "  %s %s %s\n", media.Classify(a.FileType).Icon(), a.Name(), faint.Sprintf("(%s)", media.FormatSize(a.Size)))
			}
			if n.Location != nil {
				label := fmt.Sprintf("%.5f, %.5f", n.Location.Lat, n.Location.Lng)
				if n.Location.Address != "" {
					label = n.Location.Address + " " + faint.Sprintf("(%s)", label)
				}
				fmt.Fprintf(w, "  📍 %s\n", label)
			}
		}
		fmt.Fprintln(w)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
