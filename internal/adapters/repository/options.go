package repository

// Option applies a configuration option to the HighScores store.
type Option func(*HighScores)

// WithCapacity caps how many rounds are kept. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(s *HighScores) {
		if n > 0 {
			s.capacity = n
		}
	}
}
