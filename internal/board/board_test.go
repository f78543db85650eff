package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChebyshev(t *testing.T) {
	require.Equal(t, 3, Chebyshev(Position{0, 0}, Position{3, 1}))
	require.Equal(t, 0, Chebyshev(Position{2, 2}, Position{2, 2}))
}

func TestBoardReach(t *testing.T) {
	t.Run("ground unit is blocked by obstacles and stacks", func(t *testing.T) {
		obstacles := []Position{{1, 0}}
		occupants := map[Position]string{{0, 1}: "enemy-stack"}
		b := NewBoard(5, 5, obstacles, occupants)

		reach := b.Reach(Position{0, 0}, 1, false)

		require.NotContains(t, reach, Position{1, 0}, "obstacle cell must not be reachable")
		require.NotContains(t, reach, Position{0, 1}, "occupied cell must not be reachable")
		require.Contains(t, reach, Position{1, 1})
	})

	t.Run("no corner cutting restriction", func(t *testing.T) {
		// Both orthogonal neighbours of the diagonal step are obstacles;
		// the diagonal step itself must still be legal.
		obstacles := []Position{{1, 0}, {0, 1}}
		b := NewBoard(5, 5, obstacles, nil)

		reach := b.Reach(Position{0, 0}, 1, false)

		require.Contains(t, reach, Position{1, 1})
	})

	t.Run("movement range bounds the search", func(t *testing.T) {
		b := NewBoard(10, 10, nil, nil)

		reach := b.Reach(Position{5, 5}, 1, false)

		for _, p := range reach {
			require.LessOrEqual(t, Chebyshev(Position{5, 5}, p), 1)
		}
		require.NotContains(t, reach, Position{5, 5}, "origin is not a move target")
	})

	t.Run("flying unit ignores obstacles and stacks along the path", func(t *testing.T) {
		obstacles := []Position{{1, 1}}
		occupants := map[Position]string{{2, 2}: "enemy-stack"}
		b := NewBoard(5, 5, obstacles, occupants)

		reach := b.Reach(Position{0, 0}, 2, true)

		require.Contains(t, reach, Position{1, 1}, "flying stack may land on an obstacle")
		require.NotContains(t, reach, Position{2, 2}, "destination must still be unoccupied by a stack")
	})

	t.Run("zero movement range yields no targets", func(t *testing.T) {
		b := NewBoard(5, 5, nil, nil)
		require.Empty(t, b.Reach(Position{0, 0}, 0, false))
	})
}

func TestInAttackRange(t *testing.T) {
	require.True(t, InAttackRange(Position{0, 0}, Position{1, 1}, 1))
	require.False(t, InAttackRange(Position{0, 0}, Position{2, 0}, 1))
	require.True(t, InAttackRange(Position{0, 0}, Position{5, 0}, 5))
}
