package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tasknotes/internal/composer"
)

var (
	sendText     string
	sendFiles    []string
	sendLocation bool
)

var sendCmd = &cobra.Command{
	Use:   "send <task-id>",
	Short: "Post a note without opening the panel",
	Long: `Post a note built from --text, any number of --file paths or glob patterns
and, with --share-location, the current location.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := runtimeCfg
		client, err := newClient(cfg)
		if err != nil {
			fatal("Failed to create API client", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		var c composer.Composer
		c.SetText(sendText)

		if len(sendFiles) > 0 {
			paths, err := composer.ExpandPatterns(sendFiles)
			if err != nil {
				fatal("Invalid --file pattern", err)
			}
			files := make([]composer.File, 0, len(paths))
			for _, p := range paths {
				f, err := composer.FileFromPath(p)
				if err != nil {
					fatal("Failed to read attachment", err)
				}
				files = append(files, f)
			}
			attachFiles(os.Stderr, &c, files)
		}

		if sendLocation {
			locator, err := newLocator(cfg)
			if err != nil {
				fatal("Failed to configure location", err)
			}
			loc, err := locator.Acquire(ctx)
			if err != nil {
				fatal("Could not get your location", err)
			}
			if err := c.SetLocation(loc); err != nil {
				fatal("Could not get your location", err)
			}
		}

		note, err := c.Submit(ctx, client, args[0])
		if errors.Is(err, composer.ErrEmptyDraft) {
			fmt.Fprintln(os.Stderr, "Error: nothing to send; pass --text, --file or --share-location")
			_ = cmd.Usage()
			os.Exit(1)
		}
		if err != nil {
			fatal("Failed to send note", err)
		}

		ok := color.New(color.FgGreen)
		if note != nil && note.ID != "" {
			ok.Printf("Note %s posted to task %s.\n", note.ID, args[0])
			return
		}
		ok.Printf("Note posted to task %s.\n", args[0])
	},
}

// attachFiles adds files to c and warns on w about oversized files and
// files beyond the count cap.
func attachFiles(w io.Writer, c *composer.Composer, files []composer.File) {
	warn := color.New(color.FgYellow)
	rejected := c.AddFiles(files...)
	if len(rejected) > 0 {
		warn.Fprintln(w, composer.RejectionMessage(rejected))
	}
	if accepted := len(files) - len(rejected); accepted > composer.MaxFiles {
		warn.Fprintf(w, "Only the first %d of %d files are attached.\n", composer.MaxFiles, accepted)
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendText, "text", "m", "", "Note text")
	sendCmd.Flags().StringArrayVarP(&sendFiles, "file", "f", nil, "File path or glob to attach (repeatable)")
	sendCmd.Flags().BoolVar(&sendLocation, "share-location", false, "Attach the current location")
}
