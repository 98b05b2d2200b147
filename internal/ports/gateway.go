package ports

import (
	"context"

	"github.com/scopekit/acquire/internal/domain"
)

// CommandToken identifies one issued command. It is opaque to the core and
// only used to match completions against issuance.
type CommandToken string

// CompletionStatus is the outcome reported for one issued command.
type CompletionStatus int

const (
	// CompletionSuccess means the command settled as requested.
	CompletionSuccess CompletionStatus = iota

	// CompletionFailure means the device reported an error; see Reason.
	CompletionFailure
)

// Completion is the asynchronous result of one issued command. Exactly one
// Completion is delivered per token. Pixel fields are set only for capture
// completions.
type Completion struct {
	Token  CommandToken
	Status CompletionStatus
	Reason string

	Pixels []byte
	Width  int
	Height int
}

// DeviceGateway is the boundary to the instrument control layer. The core
// consumes this contract and never implements device drivers itself.
//
// Implementations deliver completion callbacks from arbitrary goroutines;
// callers are responsible for synchronizing back onto their own control
// flow. A callback must be invoked exactly once per issued token, even for
// commands aborted through AbortAll.
type DeviceGateway interface {
	// Issue submits a command for execution and returns immediately with a
	// token identifying the eventual completion. An error means the command
	// was never accepted and no completion will be delivered.
	Issue(ctx context.Context, cmd domain.Command) (CommandToken, error)

	// Subscribe registers fn to receive the single completion for token.
	// If the completion already arrived, fn is invoked promptly.
	Subscribe(token CommandToken, fn func(Completion))

	// AbortAll cancels all outstanding commands and returns every device to
	// a safe idle state (no held shutter or exposure). It is idempotent.
	AbortAll(ctx context.Context) error
}
