package robot

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sxccxs/robot-server/internal/assert"
)

// fakeRobot is a minimal in-memory client: it tracks a coordinate, a
// facing side, and an obstacle set, and answers MOVE/TURN_LEFT/TURN_RIGHT
// by mutating that state and replying with an OK_POSITION record, exactly
// as a real robot client would over the wire (spec §4.6).
type fakeRobot struct {
	pos       Coord
	side      Side
	obstacles map[Coord]bool
}

func newFakeRobot(start Coord, side Side, obstacles map[Coord]bool) *fakeRobot {
	return &fakeRobot{pos: start, side: side, obstacles: obstacles}
}

func (f *fakeRobot) stepForward() Coord {
	next := f.pos
	switch f.side {
	case Up:
		next.Y++
	case Down:
		next.Y--
	case Left:
		next.X--
	case Right:
		next.X++
	}
	if f.obstacles[next] {
		return f.pos
	}
	f.pos = next
	return f.pos
}

func (f *fakeRobot) okRecord(c Coord) []byte {
	return []byte(fmt.Sprintf("OK %d %d", c.X, c.Y) + Sentinel)
}

// fakeConn adapts fakeRobot to the Reader interface and the subset of
// Writer behaviour Navigator depends on, by intercepting outbound records
// at the io.Writer boundary instead of reimplementing Writer.
type fakeConn struct {
	robot   *fakeRobot
	pending []byte
}

func (c *fakeConn) Write(p []byte) (int, error) {
	s := string(p)
	switch {
	case s == string(outMove)+Sentinel:
		c.pending = c.robot.okRecord(c.robot.stepForward())
	case s == string(outTurnLeft)+Sentinel:
		c.robot.side = c.robot.side.left()
		c.pending = c.robot.okRecord(c.robot.pos)
	case s == string(outTurnRight)+Sentinel:
		c.robot.side = c.robot.side.right()
		c.pending = c.robot.okRecord(c.robot.pos)
	}
	return len(p), nil
}

func (c *fakeConn) Read(maxPayloadLen int, timeout time.Duration) ([]byte, error) {
	record := c.pending
	c.pending = nil
	return record, nil
}

func newFakeNavigator(robot *fakeRobot, move func(n *Navigator, o *Orientation, timeout time.Duration) error) (*Navigator, *fakeConn) {
	conn := &fakeConn{robot: robot}
	writer := &Writer{w: conn, c: nil, log: nil}
	return &Navigator{reader: conn, writer: writer, codec: Codec{}, move: move}, conn
}

func TestNavigatorSimplePlanNoObstacles(t *testing.T) {
	robot := newFakeRobot(Coord{X: 2, Y: 3}, Up, nil)
	nav, _ := newFakeNavigator(robot, (*Navigator).simplePlan)

	err := nav.NavigateToOrigin(time.Second)
	assert.Success(t, err)
	assert.Equal(t, "position", Coord{0, 0}, robot.pos)
}

func TestNavigatorBFSPlanNoObstacles(t *testing.T) {
	robot := newFakeRobot(Coord{X: -4, Y: 5}, Right, nil)
	nav, _ := newFakeNavigator(robot, (*Navigator).bfsPlan)

	err := nav.NavigateToOrigin(time.Second)
	assert.Success(t, err)
	assert.Equal(t, "position", Coord{0, 0}, robot.pos)
}

func TestNavigatorAlreadyAtOrigin(t *testing.T) {
	robot := newFakeRobot(Coord{0, 0}, Up, nil)
	nav, _ := newFakeNavigator(robot, (*Navigator).simplePlan)

	err := nav.NavigateToOrigin(time.Second)
	assert.Success(t, err)
	assert.Equal(t, "position", Coord{0, 0}, robot.pos)
}

func TestNavigatorSimplePlanWithOneObstacle(t *testing.T) {
	// Spec §8 scenario: client starts at (2,3) facing UP, blocked on the
	// very first probe MOVE.
	obstacles := map[Coord]bool{{X: 2, Y: 4}: true}
	robot := newFakeRobot(Coord{X: 2, Y: 3}, Up, obstacles)
	nav, _ := newFakeNavigator(robot, (*Navigator).simplePlan)

	err := nav.NavigateToOrigin(time.Second)
	assert.Success(t, err)
	assert.Equal(t, "position", Coord{0, 0}, robot.pos)
}

func TestNavigatorBFSReactsToDiscoveredObstacle(t *testing.T) {
	// Both probe MOVEs succeed, ending at (-2,0) facing RIGHT; the first
	// planned step into (-1,0) is refused, so the BFS planner has to record
	// the obstacle and re-plan.
	obstacles := map[Coord]bool{{X: -1, Y: 0}: true}
	robot := newFakeRobot(Coord{X: -4, Y: 0}, Right, obstacles)
	nav, _ := newFakeNavigator(robot, (*Navigator).bfsPlan)

	err := nav.NavigateToOrigin(time.Second)
	assert.Success(t, err)
	assert.Equal(t, "position", Coord{0, 0}, robot.pos)
}

func TestBFSNeighborOrder(t *testing.T) {
	got := bfsNeighbors(Coord{X: 1, Y: 1})
	want := [4]Coord{{0, 1}, {2, 1}, {1, 0}, {1, 2}}
	assert.Equal(t, "neighbors", want, got)
}

func TestBFSShortestPathAvoidsObstacles(t *testing.T) {
	obstacles := map[Coord]bool{{X: 0, Y: 1}: true, {X: 1, Y: 0}: true}
	path := bfsShortestPath(Coord{X: 1, Y: 1}, obstacles)
	require.NotEmpty(t, path)
	for _, c := range path {
		require.Falsef(t, obstacles[c], "path steps through obstacle %v: %v", c, path)
	}
	require.Equal(t, Coord{}, path[len(path)-1], "path must end at origin")
}

func TestBFSShortestPathUnreachable(t *testing.T) {
	obstacles := map[Coord]bool{{X: -1, Y: 0}: true, {X: 1, Y: 0}: true, {X: 0, Y: -1}: true, {X: 0, Y: 1}: true}
	path := bfsShortestPath(Coord{X: 2, Y: 2}, obstacles)
	require.Nil(t, path)
}
