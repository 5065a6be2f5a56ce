package systems

import "math/rand"

// NoiseSource yields one scalar heading-noise sample per call.
type NoiseSource interface {
	Sample() float64
}

// GaussianNoise draws from N(0, Sigma) using an owned random source.
type GaussianNoise struct {
	rng   *rand.Rand
	Sigma float64
}

// NewGaussianNoise creates a Gaussian noise source.
func NewGaussianNoise(rng *rand.Rand, sigma float64) *GaussianNoise {
	return &GaussianNoise{rng: rng, Sigma: sigma}
}

// Sample returns the next noise value. A draw is consumed even when Sigma is 0
// so the random stream does not depend on the noise level.
func (g *GaussianNoise) Sample() float64 {
	return g.rng.NormFloat64() * g.Sigma
}

// SequenceNoise replays a fixed list of samples, cycling when exhausted.
// An empty sequence always yields 0.
type SequenceNoise struct {
	values []float64
	next   int
}

// NewSequenceNoise creates a replaying noise source.
func NewSequenceNoise(values ...float64) *SequenceNoise {
	return &SequenceNoise{values: values}
}

// Sample returns the next value in the sequence.
func (s *SequenceNoise) Sample() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}
