package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Kind classifies a stage failure. The HTTP layer owns the mapping from kind
// to status code; stages only ever decide the kind.
type Kind int

const (
	Invalid Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	Internal
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Failure is the terminal result of a rejected pipeline. A nil *Failure means
// the stage passed.
type Failure struct {
	Kind    Kind
	Message string
}

func (f *Failure) Error() string { return f.Message }

func Failf(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...any) *Failure {
	return Failf(Invalid, format, args...)
}

func Unauthenticatedf(format string, args ...any) *Failure {
	return Failf(Unauthenticated, format, args...)
}

func Forbiddenf(format string, args ...any) *Failure {
	return Failf(Forbidden, format, args...)
}

func NotFoundf(format string, args ...any) *Failure {
	return Failf(NotFound, format, args...)
}

func Conflictf(format string, args ...any) *Failure {
	return Failf(Conflict, format, args...)
}

func Internalf(format string, args ...any) *Failure {
	return Failf(Internal, format, args...)
}

// Stage is one named step of a route's pipeline. Run returns nil to continue
// or a Failure to stop the pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) *Failure
}

// Run executes stages strictly in order and short-circuits on the first
// failure. The remaining stages are never invoked.
func Run(ctx context.Context, stages []Stage) *Failure {
	for _, stage := range stages {
		if f := stage.Run(ctx); f != nil {
			log.Debug().
				Str("stage", stage.Name).
				Str("kind", f.Kind.String()).
				Str("message", f.Message).
				Msg("Pipeline stage rejected request")
			return f
		}
	}
	return nil
}
