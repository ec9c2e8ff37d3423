package model

// FrameTime is the per-tick timing state threaded through every render
// context (spec.md §4.5 step 1).
type FrameTime struct {
	TotalMs uint64
	DeltaMs uint32
}

// Advance accumulates deltaMs into a zero-initialized or prior FrameTime.
func (t FrameTime) Advance(deltaMs uint32) FrameTime {
	return FrameTime{TotalMs: t.TotalMs + uint64(deltaMs), DeltaMs: deltaMs}
}

// TheoreticalFps is 1000/DeltaMs, or nil when DeltaMs is zero (first tick,
// or a caller that hasn't ticked yet) — spec.md §3.4's optional field.
func (t FrameTime) TheoreticalFps() *float32 {
	if t.DeltaMs == 0 {
		return nil
	}
	fps := float32(1000) / float32(t.DeltaMs)
	return &fps
}
