package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatRead(w io.Writer, result *ReadResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatFile(w io.Writer, info *FileInfo) error
	FormatLogin(w io.Writer, result *LoginResult) error
	FormatRegister(w io.Writer, account *Account) error
	FormatAccount(w io.Writer, account *Account) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s)\n", r.LocalPath, r.Path, formatSize(r.Size))
			_, _ = fmt.Fprintf(w, "  ID: %s\n", r.ID)
		}
	}
	return nil
}

// FormatRead formats a read result as human-readable text.
func (f *HumanFormatter) FormatRead(w io.Writer, result *ReadResult) error {
	if !f.Quiet && result.LocalPath != "-" {
		_, _ = fmt.Fprintf(w, "Read: %s -> %s (%s)\n", result.Path, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	maxNameLen := 4 // "NAME"
	for i := range result.Items {
		if len(result.Items[i].OriginalName) > maxNameLen {
			maxNameLen = len(result.Items[i].OriginalName)
		}
	}
	if maxNameLen > 40 {
		maxNameLen = 40
	}

	_, _ = fmt.Fprintf(w, "%-36s  %-*s  %-8s  %10s  %s\n", "ID", maxNameLen, "NAME", "CATEGORY", "SIZE", "CREATED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s\n", strings.Repeat("-", 36), strings.Repeat("-", maxNameLen),
		strings.Repeat("-", 8), strings.Repeat("-", 10), strings.Repeat("-", 19))

	for i := range result.Items {
		item := &result.Items[i]
		name := item.OriginalName
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-36s  %-*s  %-8s  %10s  %s\n",
			item.ID,
			maxNameLen,
			name,
			item.Category,
			formatSize(item.Size),
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s) (%s total)\n", len(result.Items), formatSize(result.TotalSize()))

	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}

	return nil
}

// FormatFile formats one file's metadata as human-readable text.
func (f *HumanFormatter) FormatFile(w io.Writer, info *FileInfo) error {
	_, _ = fmt.Fprintf(w, "ID:           %s\n", info.ID)
	_, _ = fmt.Fprintf(w, "Name:         %s\n", info.OriginalName)
	_, _ = fmt.Fprintf(w, "Path:         %s\n", info.Path)
	_, _ = fmt.Fprintf(w, "Category:     %s\n", info.Category)
	_, _ = fmt.Fprintf(w, "Content-Type: %s\n", info.ContentType)
	_, _ = fmt.Fprintf(w, "Size:         %s\n", formatSize(info.Size))
	_, _ = fmt.Fprintf(w, "Created:      %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// FormatLogin formats a login result as human-readable text. The token
// itself is not printed.
func (f *HumanFormatter) FormatLogin(w io.Writer, result *LoginResult) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Logged in as %s (%s), token valid for %ds\n", result.Username, result.Nickname, result.ExpiresIn)
	}
	return nil
}

// FormatRegister formats a new account as human-readable text.
func (f *HumanFormatter) FormatRegister(w io.Writer, account *Account) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Registered: %s <%s>\n", account.Username, account.Email)
	}
	return nil
}

// FormatAccount formats a user's profile as human-readable text.
func (f *HumanFormatter) FormatAccount(w io.Writer, account *Account) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, account.Username)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Username:    %s\n", account.Username)
	_, _ = fmt.Fprintf(w, "Nickname:    %s\n", account.Nickname)
	_, _ = fmt.Fprintf(w, "Email:       %s\n", account.Email)
	_, _ = fmt.Fprintf(w, "Authorities: %s\n", strings.Join(account.Authorities, ", "))
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	type jsonResult struct {
		LocalPath   string `json:"local_path"`
		ID          string `json:"id,omitempty"`
		Path        string `json:"path,omitempty"`
		Category    string `json:"category,omitempty"`
		ContentType string `json:"content_type,omitempty"`
		Size        int64  `json:"size,omitempty"`
		CreatedAt   string `json:"created_at,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{LocalPath: r.LocalPath}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.ID = r.ID.String()
			jr.Path = r.Path
			jr.Category = r.Category
			jr.ContentType = r.ContentType
			jr.Size = r.Size
			jr.CreatedAt = r.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatRead formats a read result as JSON. Nothing is written when the
// content went to stdout.
func (f *JSONFormatter) FormatRead(w io.Writer, result *ReadResult) error {
	if result.LocalPath == "-" {
		return nil
	}
	return writeJSON(w, result)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatFile formats one file's metadata as JSON.
func (f *JSONFormatter) FormatFile(w io.Writer, info *FileInfo) error {
	return writeJSON(w, info)
}

// FormatLogin formats a login result as JSON, omitting the token.
func (f *JSONFormatter) FormatLogin(w io.Writer, result *LoginResult) error {
	output := struct {
		Username  string `json:"username"`
		Nickname  string `json:"nickname"`
		ExpiresIn int64  `json:"expires_in"`
	}{
		Username:  result.Username,
		Nickname:  result.Nickname,
		ExpiresIn: result.ExpiresIn,
	}
	return writeJSON(w, output)
}

// FormatRegister formats a new account as JSON.
func (f *JSONFormatter) FormatRegister(w io.Writer, account *Account) error {
	return writeJSON(w, account)
}

// FormatAccount formats a user's profile as JSON.
func (f *JSONFormatter) FormatAccount(w io.Writer, account *Account) error {
	return writeJSON(w, account)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %-16s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "USERNAME", "TOKEN")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen),
		strings.Repeat("-", 16), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		username := p.Username
		if username == "" {
			username = "-"
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %-16s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint,
			username, maskSecret(p.Token, showSecrets))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Username: %s\n", profile.Username)
	_, _ = fmt.Fprintf(w, "Token:    %s\n", maskSecret(profile.Token, showSecrets))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username,omitempty"`
		Token    string `json:"token,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Username: p.Username,
			Token:    maskSecret(p.Token, showSecrets),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username"`
		Token    string `json:"token"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Username: profile.Username,
		Token:    maskSecret(profile.Token, showSecrets),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
