package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/config"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import image files on behalf of a user",
	Long: `Import files from local paths into siack storage.

Each file goes through the same path as an HTTP upload: it is written to
the configured storage backend and a metadata record owned by --user is
created.

Examples:
  # Add a single file
  siack add --user alice /path/to/photo.jpg

  # Add a directory recursively, skipping unsupported files
  siack add --user alice -r --skip-unsupported /path/to/album`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addUser            string
	addRecursive       bool
	addSkipUnsupported bool
	addQuiet           bool
)

func init() {
	addCmd.Flags().StringVarP(&addUser, "user", "u", "", "owning username (required)")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVar(&addSkipUnsupported, "skip-unsupported", false, "skip files whose extension is not accepted")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	_ = addCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var files []string
	for _, arg := range args {
		paths, collectErr := collectFiles(arg, addRecursive)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, paths...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	a, cleanup, err := openApp(ctx, cfg, nil, true)
	if err != nil {
		return err
	}
	defer cleanup()

	principal := &siack.Principal{Subject: addUser, Authorities: []string{siack.DefaultAuthority}}

	added := 0
	skipped := 0

	for _, path := range files {
		content, readErr := os.ReadFile(path) //nolint:gosec // Paths come from the operator
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		rec, uploadErr := a.files.Upload(ctx, principal, siack.UploadRequest{
			OriginalName: filepath.Base(path),
			ContentType:  detectContentType(path),
			Content:      content,
		})
		if uploadErr != nil {
			if addSkipUnsupported && errors.Is(uploadErr, siack.ErrUnsupportedType) {
				skipped++
				if !addQuiet {
					slog.Info("skipped (unsupported)", "path", path)
				}
				continue
			}
			return fmt.Errorf("add %s: %w", path, uploadErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "source", path, "id", rec.ID, "path", rec.Path)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

// collectFiles gathers regular files from path, descending into directories
// only when recursive is set.
func collectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", path)
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			files = append(files, walkPath)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}

// detectContentType determines the MIME type from a file's extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
