package router

import (
	"github.com/bifrost-mcp/bifrost/internal/tools"
	"github.com/bifrost-mcp/bifrost/internal/workspacecfg"
)

// table binds every tool to its handler. New rejects a table that does not
// match the catalog.
func (r *Router) table() map[tools.Name]handler {
	lang := r.host.Language
	return map[tools.Name]handler{
		tools.FindUsages:            bind(r.findUsages),
		tools.GoToDefinition:        bind(r.navigate(lang.Definition)),
		tools.FindImplementations:   bind(r.navigate(lang.Implementation)),
		tools.GetTypeDefinition:     bind(r.navigate(lang.TypeDefinition)),
		tools.GetDeclaration:        bind(r.navigate(lang.Declaration)),
		tools.GetHoverInfo:          bind(r.hover),
		tools.GetDocumentSymbols:    bind(r.documentSymbols),
		tools.GetCompletions:        bind(r.completions),
		tools.GetSignatureHelp:      bind(r.signatureHelp),
		tools.GetRenameLocations:    bind(r.renameLocations),
		tools.Rename:                bind(r.rename),
		tools.GetCodeActions:        bind(r.codeActions),
		tools.GetSemanticTokens:     bind(r.semanticTokens),
		tools.GetCallHierarchy:      bind(r.callHierarchy),
		tools.GetTypeHierarchy:      bind(r.typeHierarchy),
		tools.GetCodeLens:           bind(r.codeLens),
		tools.GetSelectionRange:     bind(r.selectionRange),
		tools.GetDocumentHighlights: bind(r.highlights),
		tools.GetWorkspaceSymbols:   bind(r.workspaceSymbols),
		tools.GetWorkspaceDiags:     bind(r.workspaceDiagnostics),
		tools.GetFileDiagnostics:    bind(r.fileDiagnostics),
		tools.FormatDocument:        bind(r.formatDocument),
		tools.ListFormatters:        bind(r.listFormatters),

		tools.RunTerminalCommand: bind(r.runTerminalCommand),
		tools.RunHostCommand:     bind(r.runHostCommand),

		tools.SearchRegex:          bind(r.searchRegex),
		tools.ListFiles:            bind(r.listFiles),
		tools.ListFilesPaginated:   bind(r.listFilesPaginated),
		tools.GetWorkspaceTree:     bind(r.workspaceTree),
		tools.SummarizeDefinitions: bind(r.summarizeDefinitions),

		tools.ListSourceActions:   bind(r.listSourceActions),
		tools.RunSourceAction:     bind(r.runSourceAction),
		tools.ListRefactorActions: bind(r.listRefactorActions),
		tools.RunRefactorAction:   bind(r.runRefactorAction),

		tools.GetOpenFiles:      bind(r.getOpenFiles),
		tools.GetSelectedCode:   bind(r.getSelectedCode),
		tools.OpenFile:          bind(r.openFile),
		tools.SaveFile:          bind(r.saveFile),
		tools.CloseFile:         bind(r.closeFile),
		tools.GetCursorContext:  bind(r.getCursorContext),
		tools.MoveCursor:        bind(r.moveCursor),
		tools.GetCursorPosition: bind(r.getCursorPosition),

		tools.ReadFileSafe:     bind(r.readFileSafe),
		tools.ReadRange:        bind(r.readRange),
		tools.ApplyPatchReview: bind(r.applyPatchReview),
		tools.InsertLines:      bind(r.insertLines),
		tools.RemoveLines:      bind(r.removeLines),
		tools.ReplaceLines:     bind(r.replaceLines),

		tools.ListPendingPatches: bind(r.listPendingPatches),
		tools.AcceptAllPatches:   bind(r.acceptAllPatches),
		tools.RejectAllPatches:   bind(r.rejectAllPatches),
		tools.OpenAllPatches:     bind(r.openAllPatches),

		tools.CopyFile:         bind(r.copyFile),
		tools.MoveFile:         bind(r.moveFile),
		tools.DeleteFile:       bind(r.deleteFile),
		tools.PromptUserChoice: bind(r.promptUserChoice),

		tools.ListTests:          bind(r.listTests),
		tools.RunTest:            bind(r.runTest),
		tools.RunAllTests:        bind(r.runAllTests),
		tools.GetLastTestResults: bind(r.getLastTestResults),

		tools.ListRunConfigurations:     bind(r.listConfigs(workspacecfg.Launch)),
		tools.AddRunConfiguration:       bind(r.addRunConfiguration),
		tools.UpdateRunConfiguration:    bind(r.updateRunConfiguration),
		tools.DeleteRunConfiguration:    bind(r.deleteRunConfiguration),
		tools.StartDebugConfiguration:   bind(r.startConfiguration(false)),
		tools.StartNoDebugConfiguration: bind(r.startConfiguration(true)),

		tools.ListBuildTasks:  bind(r.listConfigs(workspacecfg.Tasks)),
		tools.AddBuildTask:    bind(r.addBuildTask),
		tools.UpdateBuildTask: bind(r.updateBuildTask),
		tools.RemoveBuildTask: bind(r.removeBuildTask),
		tools.RunBuildTask:    bind(r.runBuildTask),

		tools.DebugStatus:                bind(r.debugStatus),
		tools.DebugStop:                  bind(r.debugStop),
		tools.DebugStepOver:              bind(r.step("workbench.action.debug.stepOver")),
		tools.DebugStepInto:              bind(r.step("workbench.action.debug.stepInto")),
		tools.DebugStepOut:               bind(r.step("workbench.action.debug.stepOut")),
		tools.DebugContinue:              bind(r.step("workbench.action.debug.continue")),
		tools.DebugAddWatch:              bind(r.addWatch),
		tools.DebugListWatches:           bind(r.listWatches),
		tools.DebugRemoveWatch:           bind(r.removeWatch),
		tools.DebugWatchValues:           bind(r.watchValues),
		tools.DebugGetLocals:             bind(r.getLocals),
		tools.DebugGetCallStack:          bind(r.getCallStack),
		tools.DebugAddBreakpoint:         bind(r.addBreakpoint),
		tools.DebugRemoveBreakpoint:      bind(r.removeBreakpoint),
		tools.DebugDisableAllBreakpoints: bind(r.disableAllBreakpoints),
		tools.DebugRemoveAllBreakpoints:  bind(r.removeAllBreakpoints),
	}
}
