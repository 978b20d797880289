package names

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacnet/internal/dependencies/mocks"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/storage/memory"
	"github.com/mcoot/tictacnet/internal/testutil"
)

type AllocatorSuite struct {
	suite.Suite
	random    *mocks.MockRandom
	allocator *Allocator
	ctx       context.Context
}

func TestAllocatorSuite(t *testing.T) {
	suite.Run(t, new(AllocatorSuite))
}

func (s *AllocatorSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.allocator = New(memory.NewNamePool(s.random), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *AllocatorSuite) TestSeedEmptyUsesDefaultPool() {
	s.Require().NoError(s.allocator.Seed(s.ctx, nil))

	n, err := s.allocator.Available(s.ctx)
	s.Require().NoError(err)
	s.Equal(len(DefaultPool), n)
}

func (s *AllocatorSuite) TestDefaultPoolHasNoDuplicates() {
	seen := map[string]bool{}
	for _, name := range DefaultPool {
		s.False(seen[name], "duplicate %q", name)
		seen[name] = true
	}
}

func (s *AllocatorSuite) TestAllocateNeverReturnsHeldName() {
	s.Require().NoError(s.allocator.Seed(s.ctx, []string{"Ada", "Alan"}))

	first, err := s.allocator.Allocate(s.ctx)
	s.Require().NoError(err)
	second, err := s.allocator.Allocate(s.ctx)
	s.Require().NoError(err)

	s.NotEqual(first, second)
	s.ElementsMatch([]string{"Ada", "Alan"}, []string{first, second})
}

func (s *AllocatorSuite) TestAllocateExhausted() {
	s.Require().NoError(s.allocator.Seed(s.ctx, []string{"Ada"}))
	_, err := s.allocator.Allocate(s.ctx)
	s.Require().NoError(err)

	_, err = s.allocator.Allocate(s.ctx)
	s.ErrorIs(err, model.ErrPoolExhausted)
}

func (s *AllocatorSuite) TestReleaseThenReallocate() {
	s.Require().NoError(s.allocator.Seed(s.ctx, []string{"Ada"}))
	name, err := s.allocator.Allocate(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.allocator.Release(s.ctx, name))

	again, err := s.allocator.Allocate(s.ctx)
	s.Require().NoError(err)
	s.Equal("Ada", again)
}
