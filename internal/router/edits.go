package router

import (
	"context"
	"fmt"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/lineedit"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func (r *Router) applyPatchReview(ctx context.Context, c *call, args *tools.PatchArgs) (*Result, error) {
	if !r.confirm(ctx, "Apply patch to file?", c.uri) {
		return Data(rejected("queued")), nil
	}
	if err := r.review.Queue(ctx, c.uri, args.Patch); err != nil {
		return StatusError("Failed to queue patch: " + err.Error()), nil
	}
	return Data(obj{"queued": true, "pending": r.review.Pending()}), nil
}

// editLines runs a line transform on the call's document after confirmation.
func (r *Router) editLines(ctx context.Context, c *call, message string, tr lineedit.Transform) (*Result, error) {
	if !r.confirm(ctx, message, c.uri) {
		return Data(rejected("applied")), nil
	}
	res, err := r.lines.Apply(ctx, c.uri, tr)
	if err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"applied": false, "error": err.Error()}), nil
	}
	return Data(res), nil
}

func (r *Router) insertLines(ctx context.Context, c *call, args *tools.InsertLinesArgs) (*Result, error) {
	return r.editLines(ctx, c, "Insert lines into file?", lineedit.Insert(*args.Line, args.Lines))
}

func (r *Router) removeLines(ctx context.Context, c *call, args *tools.RemoveLinesArgs) (*Result, error) {
	return r.editLines(ctx, c, "Remove lines from file?", lineedit.Remove(*args.StartLine, *args.EndLine))
}

func (r *Router) replaceLines(ctx context.Context, c *call, args *tools.ReplaceLinesArgs) (*Result, error) {
	return r.editLines(ctx, c, "Replace lines in file?", lineedit.Replace(*args.StartLine, *args.EndLine, args.Lines))
}

func (r *Router) listPendingPatches(_ context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	return Data(r.review.List()), nil
}

func (r *Router) acceptAllPatches(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	if !r.confirm(ctx, fmt.Sprintf("Apply %d pending patch(es)?", r.review.Pending()), "") {
		return Data(rejected("accepted")), nil
	}
	n, err := r.review.AcceptAll(ctx)
	if err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"accepted": n, "error": err.Error()}), nil
	}
	return Data(obj{"accepted": n}), nil
}

func (r *Router) rejectAllPatches(_ context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	return Data(obj{"rejected": r.review.RejectAll()}), nil
}

func (r *Router) openAllPatches(ctx context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	return Data(obj{"opened": r.review.OpenAll(ctx)}), nil
}

// saveIfOpen saves a dirty buffer so file operations see its contents.
func (r *Router) saveIfOpen(ctx context.Context, uri string) {
	doc, ok := r.host.Workspace.Buffer(uri)
	if !ok || !doc.IsDirty {
		return
	}
	if _, err := r.host.Workspace.Save(ctx, uri); err != nil {
		log.Warningf("save %s before file operation: %s", uri, err)
	}
}

func parsePair(source, destination string) (string, string, error) {
	src, err := host.ParseURI(source)
	if err != nil {
		return "", "", fmt.Errorf("%w: source: %v", ErrInvalidArguments, err)
	}
	dst, err := host.ParseURI(destination)
	if err != nil {
		return "", "", fmt.Errorf("%w: destination: %v", ErrInvalidArguments, err)
	}
	return src, dst, nil
}

func (r *Router) copyFile(ctx context.Context, c *call, args *tools.CopyMoveArgs) (*Result, error) {
	src, dst, err := parsePair(args.Source, args.Destination)
	if err != nil {
		return nil, err
	}
	r.saveIfOpen(ctx, src)
	if err := r.host.Workspace.Copy(ctx, src, dst, true); err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"copied": false, "error": err.Error()}), nil
	}
	return Data(obj{"copied": true, "source": src, "destination": dst}), nil
}

func (r *Router) moveFile(ctx context.Context, c *call, args *tools.CopyMoveArgs) (*Result, error) {
	src, dst, err := parsePair(args.Source, args.Destination)
	if err != nil {
		return nil, err
	}
	folders := r.host.Workspace.Folders()
	msg := fmt.Sprintf("Move %s to %s?", host.Basename(src), host.RelativePath(folders, dst))
	if !r.confirm(ctx, msg, src) {
		return Data(rejected("moved")), nil
	}
	r.saveIfOpen(ctx, src)
	if err := r.host.Workspace.Rename(ctx, src, dst, true); err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"moved": false, "error": err.Error()}), nil
	}
	return Data(obj{"moved": true, "source": src, "destination": dst}), nil
}

func (r *Router) deleteFile(ctx context.Context, c *call, args *tools.DeleteArgs) (*Result, error) {
	uri, err := host.ParseURI(args.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: uri: %v", ErrInvalidArguments, err)
	}
	msg := fmt.Sprintf("Delete %s?", host.RelativePath(r.host.Workspace.Folders(), uri))
	if !r.confirm(ctx, msg, uri) {
		return Data(rejected("deleted")), nil
	}
	r.saveIfOpen(ctx, uri)
	opts := host.DeleteOptions{UseTrash: !r.gate.EnvOverride()}
	if err := r.host.Workspace.Delete(ctx, uri, opts); err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"deleted": false, "error": err.Error()}), nil
	}
	return Data(obj{"deleted": true, "uri": uri}), nil
}
