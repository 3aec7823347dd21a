package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// BreakerSuite drives a liveness-collaborator breaker with a manual clock.
type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) newBreaker(opts ...Option) *Breaker {
	clock := WithClock(func() time.Time { return s.now })
	return New("liveness", append([]Option{clock}, opts...)...)
}

// fail records n consecutive timeouts or outages.
func fail(b *Breaker, n int) (fallback bool, change StateChange) {
	for range n {
		fallback, change = b.RecordFailure()
	}
	return fallback, change
}

func (s *BreakerSuite) TestStartsClosed() {
	b := s.newBreaker()
	s.Equal("liveness", b.Name())
	s.Equal(StateClosed, b.State())
	s.Equal("closed", b.State().String())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpening() {
	s.Run("opens on the threshold failure only", func() {
		b := s.newBreaker(WithFailureThreshold(3))

		fallback, change := fail(b, 2)
		s.False(fallback)
		s.False(change.Opened)
		s.Equal(StateClosed, b.State())

		fallback, change = b.RecordFailure()
		s.True(fallback)
		s.True(change.Opened)
		s.Equal("open", b.State().String())
	})

	s.Run("failures while open report no new transition", func() {
		b := s.newBreaker(WithFailureThreshold(1))
		fail(b, 1)

		fallback, change := b.RecordFailure()
		s.True(fallback)
		s.False(change.Opened)
	})

	s.Run("a success between failures restarts the count", func() {
		b := s.newBreaker(WithFailureThreshold(3))
		fail(b, 2)
		b.RecordSuccess()
		fail(b, 2)
		s.False(b.IsOpen())

		fail(b, 1)
		s.True(b.IsOpen())
	})
}

func (s *BreakerSuite) TestCooldownAndRecovery() {
	s.Run("rejects calls until the cooldown elapses", func() {
		b := s.newBreaker(WithFailureThreshold(1), WithCooldown(30*time.Second))
		fail(b, 1)
		s.False(b.Allow())

		s.now = s.now.Add(29 * time.Second)
		s.False(b.Allow())

		s.now = s.now.Add(2 * time.Second)
		s.True(b.Allow())
	})

	s.Run("closes after consecutive probe successes", func() {
		b := s.newBreaker(WithFailureThreshold(1), WithSuccessThreshold(2))
		fail(b, 1)

		primary, change := b.RecordSuccess()
		s.False(primary)
		s.False(change.Closed)

		primary, change = b.RecordSuccess()
		s.True(primary)
		s.True(change.Closed)
		s.True(b.Allow())
	})

	s.Run("a failed probe restarts the success count", func() {
		b := s.newBreaker(WithFailureThreshold(1), WithSuccessThreshold(2))
		fail(b, 1)
		b.RecordSuccess()
		fail(b, 1)

		b.RecordSuccess()
		s.True(b.IsOpen())
		b.RecordSuccess()
		s.False(b.IsOpen())
	})
}

func (s *BreakerSuite) TestReset() {
	b := s.newBreaker(WithFailureThreshold(1))
	fail(b, 1)

	b.Reset()
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}
