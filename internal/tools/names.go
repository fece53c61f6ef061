package tools

// Name identifies a tool. The set is closed: every Name has a catalog entry
// and a router handler.
type Name string

const (
	FindUsages            Name = "find_usages"
	GoToDefinition        Name = "go_to_definition"
	FindImplementations   Name = "find_implementations"
	GetHoverInfo          Name = "get_hover_info"
	GetDocumentSymbols    Name = "get_document_symbols"
	GetCompletions        Name = "get_completions"
	GetSignatureHelp      Name = "get_signature_help"
	GetRenameLocations    Name = "get_rename_locations"
	Rename                Name = "rename"
	GetCodeActions        Name = "get_code_actions"
	GetSemanticTokens     Name = "get_semantic_tokens"
	GetCallHierarchy      Name = "get_call_hierarchy"
	GetTypeHierarchy      Name = "get_type_hierarchy"
	GetCodeLens           Name = "get_code_lens"
	GetSelectionRange     Name = "get_selection_range"
	GetTypeDefinition     Name = "get_type_definition"
	GetDeclaration        Name = "get_declaration"
	GetDocumentHighlights Name = "get_document_highlights"
	GetWorkspaceSymbols   Name = "get_workspace_symbols"
	GetWorkspaceDiags     Name = "get_workspace_diagnostics"
	GetFileDiagnostics    Name = "get_file_diagnostics"
	FormatDocument        Name = "format_document"
	ListFormatters        Name = "list_formatters"

	RunTerminalCommand Name = "run_terminal_command"
	RunHostCommand     Name = "run_vscode_command"

	SearchRegex          Name = "search_regex"
	ListFiles            Name = "list_files"
	ListFilesPaginated   Name = "list_files_paginated"
	GetWorkspaceTree     Name = "get_workspace_tree"
	SummarizeDefinitions Name = "summarize_definitions"

	ListSourceActions   Name = "list_source_actions"
	RunSourceAction     Name = "run_source_action"
	ListRefactorActions Name = "list_refactor_actions"
	RunRefactorAction   Name = "run_refactor_action"

	GetOpenFiles      Name = "get_open_files"
	GetSelectedCode   Name = "get_selected_code"
	OpenFile          Name = "open_file"
	SaveFile          Name = "save_file"
	CloseFile         Name = "close_file"
	GetCursorContext  Name = "get_cursor_context"
	MoveCursor        Name = "move_cursor"
	GetCursorPosition Name = "get_cursor_position"

	ReadFileSafe     Name = "read_file_safe"
	ReadRange        Name = "read_range"
	ApplyPatchReview Name = "apply_patch_review"
	InsertLines      Name = "insert_lines"
	RemoveLines      Name = "remove_lines"
	ReplaceLines     Name = "replace_lines"

	ListPendingPatches Name = "list_pending_patches"
	AcceptAllPatches   Name = "accept_all_patches"
	RejectAllPatches   Name = "reject_all_patches"
	OpenAllPatches     Name = "open_all_patches"

	CopyFile         Name = "copy_file"
	MoveFile         Name = "move_file"
	DeleteFile       Name = "delete_file"
	PromptUserChoice Name = "prompt_user_choice"

	ListTests          Name = "list_tests"
	RunTest            Name = "run_test"
	RunAllTests        Name = "run_all_tests"
	GetLastTestResults Name = "get_last_test_results"

	ListRunConfigurations     Name = "list_run_configurations"
	AddRunConfiguration       Name = "add_run_configuration"
	UpdateRunConfiguration    Name = "update_run_configuration"
	DeleteRunConfiguration    Name = "delete_run_configuration"
	StartDebugConfiguration   Name = "start_debug_configuration"
	StartNoDebugConfiguration Name = "start_no_debug_configuration"

	ListBuildTasks  Name = "list_build_tasks"
	AddBuildTask    Name = "add_build_task"
	UpdateBuildTask Name = "update_build_task"
	RemoveBuildTask Name = "remove_build_task"
	RunBuildTask    Name = "run_build_task"

	DebugStatus                Name = "debug_status"
	DebugStop                  Name = "debug_stop"
	DebugStepOver              Name = "debug_step_over"
	DebugStepInto              Name = "debug_step_into"
	DebugStepOut               Name = "debug_step_out"
	DebugContinue              Name = "debug_continue"
	DebugAddWatch              Name = "debug_add_watch"
	DebugListWatches           Name = "debug_list_watches"
	DebugRemoveWatch           Name = "debug_remove_watch"
	DebugWatchValues           Name = "debug_watch_values"
	DebugGetLocals             Name = "debug_get_locals"
	DebugGetCallStack          Name = "debug_get_call_stack"
	DebugAddBreakpoint         Name = "debug_add_breakpoint"
	DebugRemoveBreakpoint      Name = "debug_remove_breakpoint"
	DebugDisableAllBreakpoints Name = "debug_disable_all_breakpoints"
	DebugRemoveAllBreakpoints  Name = "debug_remove_all_breakpoints"
)
