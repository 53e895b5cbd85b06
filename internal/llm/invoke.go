package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

const (
	maxCycles   = 3
	backoffBase = 2 * time.Second
	backoffCap  = 10 * time.Second
)

// ExhaustedError is returned when every retry cycle produced unparseable
// output. LastRaw carries the final model output for operator diagnosis.
type ExhaustedError struct {
	Cycles  int
	LastRaw string
	Err     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no valid JSON object after %d retry cycles: %v", e.Cycles, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Invoker wraps a generator with output validation and bounded retry.
// Retries trigger only on extraction failure; transport faults propagate
// immediately, since retrying a dead endpoint helps nobody.
type Invoker struct {
	gen   domain.Generator
	sleep func(time.Duration)
}

func NewInvoker(gen domain.Generator) *Invoker {
	return &Invoker{gen: gen, sleep: time.Sleep}
}

// GenerateValidated issues a generation call and guarantees its result
// passes ExtractObject. Each cycle tries JSON mode first and falls back to a
// plain attempt when the strict mode output fails to parse (some models
// hallucinate harder under forced JSON). Up to 3 cycles with exponential
// backoff between them; worst case 6 outbound calls.
func (iv *Invoker) GenerateValidated(ctx context.Context, prompt string, temperature float64) (string, error) {
	var lastRaw string
	var lastErr error
	for cycle := 0; cycle < maxCycles; cycle++ {
		if cycle > 0 {
			iv.sleep(cycleDelay(cycle - 1))
		}
		for _, jsonMode := range []bool{true, false} {
			raw, err := iv.gen.Generate(ctx, prompt, temperature, jsonMode)
			if err != nil {
				return "", err
			}
			lastRaw = raw
			_, perr := ExtractObject(raw)
			if perr == nil {
				return raw, nil
			}
			lastErr = perr
		}
	}
	return "", &ExhaustedError{Cycles: maxCycles, LastRaw: lastRaw, Err: lastErr}
}

func cycleDelay(cycle int) time.Duration {
	d := backoffBase << cycle
	if d > backoffCap {
		d = backoffCap
	}
	return d
}
