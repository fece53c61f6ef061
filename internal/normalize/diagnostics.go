package normalize

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// SeverityName maps a diagnostic severity to its name. A missing severity is
// reported as Error, the LSP default.
func SeverityName(s *protocol.DiagnosticSeverity) string {
	if s == nil {
		return "Error"
	}
	switch *s {
	case protocol.DiagnosticSeverityError:
		return "Error"
	case protocol.DiagnosticSeverityWarning:
		return "Warning"
	case protocol.DiagnosticSeverityInformation:
		return "Information"
	case protocol.DiagnosticSeverityHint:
		return "Hint"
	}
	return "Unknown"
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	URI      string `json:"uri,omitempty"`
	Range    Range  `json:"range"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
	Code     any    `json:"code,omitempty"`
}

// FromDiagnostic converts a diagnostic reported for uri.
func FromDiagnostic(uri string, d protocol.Diagnostic) Diagnostic {
	out := Diagnostic{
		URI:      uri,
		Range:    FromRange(d.Range),
		Severity: SeverityName(d.Severity),
		Message:  d.Message,
		Source:   deref(d.Source),
	}
	if d.Code != nil {
		out.Code = d.Code.Value
	}
	return out
}

// FileDiagnostics groups diagnostics for one file.
type FileDiagnostics struct {
	URI         string       `json:"uri"`
	HasIssues   bool         `json:"hasIssues"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// WorkspaceDiagnostics is the paginated workspace report.
type WorkspaceDiagnostics struct {
	Files            []FileDiagnostics `json:"files"`
	TotalDiagnostics int               `json:"totalDiagnostics"`
	Page             int               `json:"page"`
	TotalPages       int               `json:"totalPages"`
	Limit            *int              `json:"limit"`
}

// WorkspaceReport builds the workspace report. Without a limit every file is
// listed, including clean ones. With a limit the diagnostics are flattened,
// sliced and regrouped by file so only files with issues appear.
func WorkspaceReport(files []host.FileDiagnostics, limitArg, pageArg any) WorkspaceDiagnostics {
	var flat []Diagnostic
	grouped := make([]FileDiagnostics, 0, len(files))
	for _, f := range files {
		entry := FileDiagnostics{URI: f.URI, HasIssues: len(f.Diagnostics) > 0, Diagnostics: make([]Diagnostic, 0, len(f.Diagnostics))}
		for _, d := range f.Diagnostics {
			nd := FromDiagnostic(f.URI, d)
			entry.Diagnostics = append(entry.Diagnostics, nd)
			flat = append(flat, nd)
		}
		grouped = append(grouped, entry)
	}

	page := Paginate(flat, limitArg, pageArg)
	report := WorkspaceDiagnostics{
		TotalDiagnostics: page.Total,
		Page:             page.Page,
		TotalPages:       page.TotalPages,
		Limit:            page.Limit,
	}
	if page.Limit == nil {
		report.Files = grouped
		return report
	}

	report.Files = []FileDiagnostics{}
	index := map[string]int{}
	for _, d := range page.Items {
		i, ok := index[d.URI]
		if !ok {
			i = len(report.Files)
			index[d.URI] = i
			report.Files = append(report.Files, FileDiagnostics{URI: d.URI, HasIssues: true})
		}
		report.Files[i].Diagnostics = append(report.Files[i].Diagnostics, d)
	}
	return report
}

// FileReport is the paginated per-file report.
type FileReport struct {
	URI              string       `json:"uri"`
	HasIssues        bool         `json:"hasIssues"`
	Diagnostics      []Diagnostic `json:"diagnostics"`
	TotalDiagnostics int          `json:"totalDiagnostics"`
	Page             int          `json:"page"`
	TotalPages       int          `json:"totalPages"`
	Limit            *int         `json:"limit"`
}

// FileReportOf builds the per-file report.
func FileReportOf(uri string, diags []protocol.Diagnostic, limitArg, pageArg any) FileReport {
	all := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		all = append(all, FromDiagnostic(uri, d))
	}
	page := Paginate(all, limitArg, pageArg)
	return FileReport{
		URI:              uri,
		HasIssues:        len(all) > 0,
		Diagnostics:      page.Items,
		TotalDiagnostics: page.Total,
		Page:             page.Page,
		TotalPages:       page.TotalPages,
		Limit:            page.Limit,
	}
}

// ActionDiagnostic is the diagnostic shape attached to a code action.
type ActionDiagnostic struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Range    Range  `json:"range"`
}

func actionDiagnostics(in []protocol.Diagnostic) []ActionDiagnostic {
	out := make([]ActionDiagnostic, 0, len(in))
	for _, d := range in {
		out = append(out, ActionDiagnostic{Message: d.Message, Severity: SeverityName(d.Severity), Range: FromRange(d.Range)})
	}
	return out
}

// Summary renders a diagnostic as one line, used in logs and CLI output.
func (d Diagnostic) Summary() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.URI, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Severity, d.Message)
}
