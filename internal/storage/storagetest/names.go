package storagetest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/storage"
)

// NamePoolSuite holds behavior every NamePool backend must share.
// Backends embed it and set Pool in SetupTest.
type NamePoolSuite struct {
	suite.Suite
	Pool storage.NamePool
	Ctx  context.Context
}

func (s *NamePoolSuite) seed(names ...string) {
	s.Require().NoError(s.Pool.Seed(s.Ctx, names))
}

func (s *NamePoolSuite) available() int {
	n, err := s.Pool.Available(s.Ctx)
	s.Require().NoError(err)
	return n
}

func (s *NamePoolSuite) TestTakeUntilExhausted() {
	s.seed("Alice", "Bob", "Carol")

	taken := map[string]bool{}
	for range 3 {
		name, err := s.Pool.Take(s.Ctx)
		s.Require().NoError(err)
		s.False(taken[name], "name %q handed out twice", name)
		taken[name] = true
	}
	s.Equal(map[string]bool{"Alice": true, "Bob": true, "Carol": true}, taken)

	_, err := s.Pool.Take(s.Ctx)
	s.ErrorIs(err, model.ErrPoolExhausted)
	s.Zero(s.available())
}

func (s *NamePoolSuite) TestReturnMakesNameAvailable() {
	s.seed("Alice")

	name, err := s.Pool.Take(s.Ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.Pool.Return(s.Ctx, name))

	again, err := s.Pool.Take(s.Ctx)
	s.Require().NoError(err)
	s.Equal(name, again)
}

func (s *NamePoolSuite) TestReturnUnknownNameIgnored() {
	s.seed("Alice")

	s.Require().NoError(s.Pool.Return(s.Ctx, "Mallory"))
	s.Equal(1, s.available())
}

func (s *NamePoolSuite) TestDoubleReturnCountsOnce() {
	s.seed("Alice", "Bob")

	name, err := s.Pool.Take(s.Ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.Pool.Return(s.Ctx, name))
	s.Require().NoError(s.Pool.Return(s.Ctx, name))

	s.Equal(2, s.available())
}

func (s *NamePoolSuite) TestSeedDeduplicates() {
	s.seed("Alice", "Alice", "Bob")
	s.Equal(2, s.available())
}

func (s *NamePoolSuite) TestSeedReplacesPool() {
	s.seed("Alice", "Bob")
	s.seed("Carol")

	name, err := s.Pool.Take(s.Ctx)
	s.Require().NoError(err)
	s.Equal("Carol", name)

	s.Require().NoError(s.Pool.Return(s.Ctx, "Alice"))
	s.Zero(s.available())
}

func (s *NamePoolSuite) TestConcurrentTakeNeverDuplicates() {
	names := []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8"}
	s.seed(names...)

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		taken = map[string]int{}
		fails int
	)
	for range len(names) + 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := s.Pool.Take(s.Ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fails++
				return
			}
			taken[name]++
		}()
	}
	wg.Wait()

	s.Len(taken, len(names))
	for name, count := range taken {
		s.Equal(1, count, "name %q handed out %d times", name, count)
	}
	s.Equal(4, fails)
}
