package buildsys

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type logKey struct{}

// log returns the logger attached by WithLogger. Pipelines always run with one, so a missing
// logger is a programming error.
func log(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(logKey{}).(*zerolog.Logger)
	if !ok || logger == nil {
		panic("Logger is missing in context!")
	}

	return logger
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// withStage returns a context whose logger tags every event with the stage name.
func withStage(ctx context.Context, stage string) context.Context {
	logger := log(ctx).With().Str("stage", stage).Logger()
	return WithLogger(ctx, &logger)
}

// formatElapsed renders a duration the way stage summaries show it: "[12 ms]" padded to a
// fixed column so the messages line up.
func formatElapsed(d time.Duration) string {
	timeInfo := fmt.Sprintf("[%d ms]", d.Milliseconds())
	if pad := 10 - len(timeInfo); pad > 0 {
		timeInfo += strings.Repeat(" ", pad)
	}
	return timeInfo
}
