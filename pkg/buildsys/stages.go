package buildsys

import (
	"context"
	"time"
)

// Stage is one named, timed step of a build. Run may return an annotation that is appended to
// the summary line.
type Stage struct {
	Name    string
	Message string
	Run     func(ctx context.Context) (string, error)
}

// StageResult records how long a finished stage took.
type StageResult struct {
	Name       string
	Elapsed    time.Duration
	Annotation string
}

// RunStages executes stages in order and stops at the first failure. The results of all
// completed stages are returned either way.
func RunStages(ctx context.Context, stages []Stage) ([]StageResult, error) {
	results := make([]StageResult, 0, len(stages))

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		stageCtx := withStage(ctx, stage.Name)
		start := time.Now()
		annotation, err := stage.Run(stageCtx)
		elapsed := time.Since(start)
		if err != nil {
			return results, &StageError{Stage: stage.Name, Err: err}
		}

		msg := stage.Message
		if annotation != "" {
			msg += " -> " + annotation
		}

		log(stageCtx).Info().
			Dur("elapsed", elapsed).
			Msgf(" - %s%s", formatElapsed(elapsed), msg)

		results = append(results, StageResult{
			Name:       stage.Name,
			Elapsed:    elapsed,
			Annotation: annotation,
		})
	}

	return results, nil
}
