package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUsage = errors.New("usage error")

func parseID(args []string, usage string) (uint64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	return id, nil
}

// Create prompts for a post body and publishes it.
func (a *App) Create(ctx context.Context) error {
	content, err := getMultiline(a.reader, "What's on your mind?", a.out)
	if err != nil {
		return err
	}
	if err := a.postService.Create(ctx, content); err != nil {
		fmt.Fprintln(a.out, "Could not post:", err)
		return err
	}
	fmt.Fprintln(a.out, "Posted!")
	a.render(ctx)
	return nil
}

// Edit replaces the body of the post given as the first argument.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := parseID(args, "edit <id>")
	if err != nil {
		fmt.Fprintln(a.out, "Usage: edit <id>")
		return err
	}
	content, err := getMultiline(a.reader, fmt.Sprintf("New text for post #%d", id), a.out)
	if err != nil {
		return err
	}
	if err := a.postService.Edit(ctx, id, content); err != nil {
		fmt.Fprintln(a.out, "Could not edit:", err)
		return err
	}
	fmt.Fprintln(a.out, "Updated!")
	a.render(ctx)
	return nil
}

// Delete removes the post given as the first argument after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return err
	}
	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete post #%d? (y/N)", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Kept it")
		return nil
	}
	if err := a.postService.Delete(ctx, id); err != nil {
		fmt.Fprintln(a.out, "Could not delete:", err)
		return err
	}
	fmt.Fprintln(a.out, "Deleted!")
	a.render(ctx)
	return nil
}
