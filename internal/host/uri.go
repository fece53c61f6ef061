package host

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// PathToURI converts a file system path to a file URI.
func PathToURI(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String()
}

// URIToPath converts a file URI to a file system path.
func URIToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("uri %q: unsupported scheme %q", uri, u.Scheme)
	}
	if u.Scheme == "" {
		return filepath.FromSlash(uri), nil
	}
	return filepath.FromSlash(u.Path), nil
}

// FSPath is URIToPath for display purposes: it never fails and falls back to
// the raw URI.
func FSPath(uri string) string {
	p, err := URIToPath(uri)
	if err != nil {
		return uri
	}
	return p
}

// ParseURI normalizes a caller-supplied URI. Bare paths become file URIs.
func ParseURI(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty uri")
	}
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "file:") {
		return PathToURI(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", raw, err)
	}
	return u.String(), nil
}

// JoinURI resolves the slash-separated rel against a base URI.
func JoinURI(base, rel string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, filepath.ToSlash(rel))
	return u.String()
}

// Basename returns the last path element of uri.
func Basename(uri string) string {
	return path.Base(filepath.ToSlash(FSPath(uri)))
}

// ContainingFolder returns the workspace folder that contains uri.
func ContainingFolder(folders []string, uri string) (string, bool) {
	target := FSPath(uri)
	for _, f := range folders {
		root := FSPath(f)
		if target == root || strings.HasPrefix(target, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator)) {
			return f, true
		}
	}
	return "", false
}

// RelativePath renders uri relative to its workspace folder, or as an
// absolute path when it lies outside every folder.
func RelativePath(folders []string, uri string) string {
	folder, ok := ContainingFolder(folders, uri)
	if !ok {
		return FSPath(uri)
	}
	rel, err := filepath.Rel(FSPath(folder), FSPath(uri))
	if err != nil {
		return FSPath(uri)
	}
	return filepath.ToSlash(rel)
}

// languageIDs maps file extensions to editor language identifiers.
var languageIDs = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".js":   "javascript",
	".jsx":  "javascriptreact",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".py":   "python",
	".rs":   "rust",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".rb":   "ruby",
	".php":  "php",
	".kt":   "kotlin",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
	".sh":   "shellscript",
	".toml": "toml",
	".html": "html",
	".css":  "css",
}

// LanguageID guesses the language identifier for a path or URI.
func LanguageID(p string) string {
	if id, ok := languageIDs[strings.ToLower(filepath.Ext(p))]; ok {
		return id
	}
	return "plaintext"
}
