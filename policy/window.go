package policy

import (
	"time"
)

// LimitWindow is a fixed window quota: at most Requests within WindowInSec seconds.
type LimitWindow struct {
	Requests    int
	WindowInSec int
}

func (w LimitWindow) Window() time.Duration {
	return time.Duration(w.WindowInSec) * time.Second
}

func (w LimitWindow) RatePerMinute() float64 {
	return float64(w.Requests) / float64(w.WindowInSec) * 60
}
