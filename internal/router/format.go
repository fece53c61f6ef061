package router

import (
	"context"
	"slices"
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/normalize"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

const (
	editorSection       = "editor"
	defaultFormatterKey = "defaultFormatter"
)

// Formatter is one extension able to format a language.
type Formatter struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}

func (r *Router) stringSetting(section, key, scope string) string {
	v, ok := r.host.Settings.Get(section, key, scope)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (r *Router) listFormatters(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	lang := doc.LanguageID
	def := r.stringSetting(editorSection, defaultFormatterKey, c.uri)

	seen := map[string]bool{}
	formatters := []Formatter{}
	for _, ext := range r.host.Extensions.All() {
		if seen[ext.ID] {
			continue
		}
		if !slices.Contains(ext.Languages, lang) && !slices.Contains(ext.ActivationEvents, "onLanguage:"+lang) {
			continue
		}
		seen[ext.ID] = true
		name := ext.DisplayName
		if name == "" {
			name = ext.Name
		}
		if name == "" {
			name = ext.ID
		}
		formatters = append(formatters, Formatter{
			ID:          ext.ID,
			DisplayName: name,
			Description: ext.Description,
			IsDefault:   ext.ID == def,
		})
	}
	sort.SliceStable(formatters, func(i, j int) bool {
		if formatters[i].IsDefault != formatters[j].IsDefault {
			return formatters[i].IsDefault
		}
		return strings.ToLower(formatters[i].DisplayName) < strings.ToLower(formatters[j].DisplayName)
	})

	var defaultFormatter any
	if def != "" {
		defaultFormatter = def
	}
	return Data(obj{"languageId": lang, "defaultFormatter": defaultFormatter, "formatters": formatters}), nil
}

// formattingOptions merges the call options over editor settings over the
// configured defaults.
func (r *Router) formattingOptions(uri string, opts *tools.FormatOptions) host.FormattingOptions {
	out := host.FormattingOptions{TabSize: r.cfg.Editor.TabSize, InsertSpaces: true}
	if r.cfg.Editor.InsertSpaces != nil {
		out.InsertSpaces = *r.cfg.Editor.InsertSpaces
	}
	if v, ok := r.host.Settings.Get(editorSection, "tabSize", uri); ok {
		if n, ok := normalize.PositiveInt(v); ok {
			out.TabSize = n
		}
	}
	if v, ok := r.host.Settings.Get(editorSection, "insertSpaces", uri); ok {
		if b, ok := v.(bool); ok {
			out.InsertSpaces = b
		}
	}
	if opts != nil {
		if opts.TabSize != nil && *opts.TabSize > 0 {
			out.TabSize = *opts.TabSize
		}
		if opts.InsertSpaces != nil {
			out.InsertSpaces = *opts.InsertSpaces
		}
	}
	return out
}

// formatDocument switches the default formatter for the duration of the call
// and always switches it back.
func (r *Router) formatDocument(ctx context.Context, c *call, args *tools.FormatArgs) (*Result, error) {
	previous := r.stringSetting(editorSection, defaultFormatterKey, c.uri)
	desired := args.FormatterID
	if desired == "" {
		desired = r.cfg.Editor.DefaultFormatter
	}
	used := firstNonEmpty(desired, previous, "default")

	if desired != "" && desired != previous {
		if err := r.host.Settings.Update(ctx, editorSection, defaultFormatterKey, desired, c.uri); err != nil {
			log.Warningf("%s: switch formatter to %s: %s", c.name, desired, err)
			used = firstNonEmpty(previous, "default")
		} else {
			defer r.restoreFormatter(c.uri, previous)
		}
	}

	opts := r.formattingOptions(c.uri, args.Options)
	var edits []protocol.TextEdit
	var err error
	ranged := args.Range.Valid()
	if ranged {
		edits, err = r.host.Language.FormatRange(ctx, c.uri, args.Range.Protocol(), opts)
	} else {
		edits, err = r.host.Language.FormatDocument(ctx, c.uri, opts)
	}
	if err != nil {
		log.Warningf("%s: provider failed: %s", c.name, err)
		return Data(obj{"formatted": false, "formatterUsed": used, "error": err.Error()}), nil
	}
	if len(edits) == 0 {
		return Data(obj{"formatted": false, "formatterUsed": used, "message": "No formatting edits were produced"}), nil
	}

	ok, err := r.host.Workspace.ApplyEdit(ctx, protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{protocol.DocumentUri(c.uri): edits},
	})
	if err != nil {
		log.Warningf("%s: apply edits: %s", c.name, err)
		ok = false
	}
	return Data(obj{
		"formatted":      ok,
		"formatterUsed":  used,
		"editsApplied":   len(edits),
		"rangeFormatted": ranged,
	}), nil
}

// restoreFormatter puts the previous default formatter back. It runs with
// its own context so a cancelled call still restores the setting.
func (r *Router) restoreFormatter(scope, previous string) {
	var value any
	if previous != "" {
		value = previous
	}
	if err := r.host.Settings.Update(context.Background(), editorSection, defaultFormatterKey, value, scope); err != nil {
		log.Errorf("restore default formatter %q: %s", previous, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
