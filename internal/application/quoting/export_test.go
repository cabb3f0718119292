package quoting

import (
	"context"
	"time"
)

// SetSleep replaces the pause used between extraction calls.
func (uc *AssemblyUseCase) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	uc.sleep = fn
}
