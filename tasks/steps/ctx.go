package steps

import (
	"context"
	"strings"

	"github.com/taylorthurlow/interaktor/tasks/rollback"
	"github.com/taylorthurlow/interaktor/tasks/steps/internal"
)

// SetParentName appends the name to the parent path on the context
func SetParentName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, internal.ParentNameKey, StepPath(ctx, name))
}

// StepPath is the dotted path of a step with this name below the parent on the context
func StepPath(ctx context.Context, name string) string {
	return JoinPath(GetParentName(ctx), name)
}

// GetParentName from the context, empty for a top level step
func GetParentName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	nm, _ := ctx.Value(internal.ParentNameKey).(string)
	return nm
}

// JoinPath builds the dotted path of a step below its parent
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	if name == "" {
		return parent
	}
	return parent + "." + name
}

// SplitPath splits a dotted step path into its parent and name
func SplitPath(path string) (parent, name string) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func setDecider(ctx context.Context, decide rollback.Decider) context.Context {
	return context.WithValue(ctx, internal.DeciderKey, decide)
}

func getDecider(ctx context.Context) rollback.Decider {
	if ctx != nil {
		if d, ok := ctx.Value(internal.DeciderKey).(rollback.Decider); ok && d != nil {
			return d
		}
	}
	return rollback.Halt
}

func markFlowChecked(ctx context.Context) context.Context {
	return context.WithValue(ctx, internal.FlowCheckedKey, true)
}

func flowChecked(ctx context.Context) bool {
	ok, _ := ctx.Value(internal.FlowCheckedKey).(bool)
	return ok
}
