package robot

import "time"

// maxOrientationRetries bounds the orientation-discovery retry loop of spec
// §4.6.1 / §9 note 1: the reference behaviour keeps turning left and
// retrying MOVE until a step actually changes the coordinate, rather than
// retrying exactly once and then risking an undefined determineSide call.
// Four consecutive turns is a full rotation; if none of them produced
// movement the client is boxed in on all sides and no planner can proceed.
const maxOrientationRetries = 4

// Navigator drives an oriented client to the origin, discovering obstacles
// reactively (spec §4.6). move is the pluggable strategy: simplePlan for
// the default axis-by-axis planner, bfsPlan for the alternate (spec §9:
// "a factory object bundles one concrete choice per role").
type Navigator struct {
	reader Reader
	writer *Writer
	codec  Codec
	move   func(n *Navigator, o *Orientation, timeout time.Duration) error
}

// NewNavigator builds a Navigator using the simple axis-by-axis planner.
func NewNavigator(reader Reader, writer *Writer) *Navigator {
	return &Navigator{reader: reader, writer: writer, codec: Codec{}, move: (*Navigator).simplePlan}
}

// NewBFSNavigator builds a Navigator using the BFS planner of spec §4.6.3.
func NewBFSNavigator(reader Reader, writer *Writer) *Navigator {
	return &Navigator{reader: reader, writer: writer, codec: Codec{}, move: (*Navigator).bfsPlan}
}

// NavigateToOrigin orients the client and drives it to (0, 0). Any
// underlying server error raised during navigation aborts navigation and is
// surfaced (spec §4.6.2, last paragraph).
func (n *Navigator) NavigateToOrigin(timeout time.Duration) error {
	orient, err := n.discoverOrientation(timeout)
	if err != nil {
		return err
	}
	if orient.Coord == (Coord{}) {
		return nil
	}
	return n.move(n, orient, timeout)
}

// discoverOrientation implements spec §4.6.1: two probe moves, retrying a
// left turn until a move actually changes the coordinate, then inferring
// heading from the last two distinct coordinates.
func (n *Navigator) discoverOrientation(timeout time.Duration) (*Orientation, error) {
	p1, err := n.doMove(timeout)
	if err != nil {
		return nil, err
	}
	if p1 == (Coord{}) {
		return &Orientation{Coord: p1}, nil
	}

	p2, err := n.doMove(timeout)
	if err != nil {
		return nil, err
	}

	for retries := 0; p2 == p1 && retries < maxOrientationRetries; retries++ {
		if err := n.doTurnLeft(timeout); err != nil {
			return nil, err
		}
		p2, err = n.doMove(timeout)
		if err != nil {
			return nil, err
		}
	}
	if p2 == p1 {
		return nil, logicErrorf("client boxed in: no move changed position after %d left turns", maxOrientationRetries)
	}

	side, err := determineSide(p1, p2)
	if err != nil {
		return nil, logicErrorf("%v", err)
	}
	return &Orientation{Coord: p2, Side: side}, nil
}

type axis int

const (
	axisX axis = iota
	axisY
)

func axisValue(c Coord, ax axis) int32 {
	if ax == axisX {
		return c.X
	}
	return c.Y
}

// simplePlan drives x to 0, then y to 0 (spec §4.6.2).
func (n *Navigator) simplePlan(orient *Orientation, timeout time.Duration) error {
	if err := n.driveAxis(orient, axisX, timeout); err != nil {
		return err
	}
	return n.driveAxis(orient, axisY, timeout)
}

func (n *Navigator) driveAxis(orient *Orientation, ax axis, timeout time.Duration) error {
	var target Side
	if ax == axisX {
		if orient.Coord.X > 0 {
			target = Left
		} else {
			target = Right
		}
	} else {
		if orient.Coord.Y > 0 {
			target = Down
		} else {
			target = Up
		}
	}
	if err := n.rotateTo(orient, target, timeout); err != nil {
		return err
	}

	for axisValue(orient.Coord, ax) != 0 {
		before := orient.Coord
		next, err := n.doMove(timeout)
		if err != nil {
			return err
		}
		if next == before {
			if err := n.bypassObstacle(orient, ax, timeout); err != nil {
				return err
			}
		} else {
			orient.Coord = next
		}
	}
	return nil
}

// rotateTo turns orient to face toSide via the shortest of 0, 1, or 2 turns
// (spec §4.6.2: "rotate to it via the shortest ... using modular difference
// (current - target) mod 4").
func (n *Navigator) rotateTo(orient *Orientation, toSide Side, timeout time.Duration) error {
	switch mod4(int(orient.Side) - int(toSide)) {
	case 0:
		return nil
	case 1:
		return n.turnLeftTracking(orient, timeout)
	case 3:
		return n.turnRightTracking(orient, timeout)
	default: // 2: direction is unspecified by spec, two rights is as good as two lefts.
		if err := n.turnRightTracking(orient, timeout); err != nil {
			return err
		}
		return n.turnRightTracking(orient, timeout)
	}
}

// bypassObstacle dispatches to the axis-specific bypass maneuver of spec
// §4.6.2.
func (n *Navigator) bypassObstacle(orient *Orientation, ax axis, timeout time.Duration) error {
	if ax == axisX {
		return n.bypassX(orient, timeout)
	}
	return n.bypassY(orient, timeout)
}

// bypassX: turn perpendicular (right if x<0 else left), MOVE, turn back
// (left if x<0 else right). Net effect: a one-square sidestep that
// preserves axis heading.
func (n *Navigator) bypassX(orient *Orientation, timeout time.Duration) error {
	negative := orient.Coord.X < 0
	if negative {
		if err := n.turnRightTracking(orient, timeout); err != nil {
			return err
		}
	} else {
		if err := n.turnLeftTracking(orient, timeout); err != nil {
			return err
		}
	}
	if err := n.moveTracking(orient, timeout); err != nil {
		return err
	}
	if negative {
		return n.turnLeftTracking(orient, timeout)
	}
	return n.turnRightTracking(orient, timeout)
}

// bypassY: TURN_RIGHT, MOVE, TURN_LEFT, MOVE, MOVE, TURN_LEFT, MOVE,
// TURN_RIGHT. Net effect: bypass one obstacle to the right and resume
// original heading.
func (n *Navigator) bypassY(orient *Orientation, timeout time.Duration) error {
	steps := []func() error{
		func() error { return n.turnRightTracking(orient, timeout) },
		func() error { return n.moveTracking(orient, timeout) },
		func() error { return n.turnLeftTracking(orient, timeout) },
		func() error { return n.moveTracking(orient, timeout) },
		func() error { return n.moveTracking(orient, timeout) },
		func() error { return n.turnLeftTracking(orient, timeout) },
		func() error { return n.moveTracking(orient, timeout) },
		func() error { return n.turnRightTracking(orient, timeout) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// turnLeftTracking sends TURN_LEFT, reads the client's reply coordinate,
// and mirrors the turn onto orient.Side (spec invariant: Orientation.Side
// always equals the literal direction the client is facing).
func (n *Navigator) turnLeftTracking(orient *Orientation, timeout time.Duration) error {
	if err := n.writer.WriteRecord(outTurnLeft); err != nil {
		return err
	}
	coord, err := n.readOK(timeout)
	if err != nil {
		return err
	}
	orient.turnLeft()
	orient.Coord = coord
	return nil
}

func (n *Navigator) turnRightTracking(orient *Orientation, timeout time.Duration) error {
	if err := n.writer.WriteRecord(outTurnRight); err != nil {
		return err
	}
	coord, err := n.readOK(timeout)
	if err != nil {
		return err
	}
	orient.turnRight()
	orient.Coord = coord
	return nil
}

func (n *Navigator) moveTracking(orient *Orientation, timeout time.Duration) error {
	coord, err := n.doMove(timeout)
	if err != nil {
		return err
	}
	orient.Coord = coord
	return nil
}

func (n *Navigator) doMove(timeout time.Duration) (Coord, error) {
	if err := n.writer.WriteRecord(outMove); err != nil {
		return Coord{}, err
	}
	return n.readOK(timeout)
}

func (n *Navigator) doTurnLeft(timeout time.Duration) error {
	if err := n.writer.WriteRecord(outTurnLeft); err != nil {
		return err
	}
	_, err := n.readOK(timeout)
	return err
}

func (n *Navigator) readOK(timeout time.Duration) (Coord, error) {
	record, err := n.reader.Read(maxOKPosition, timeout)
	if err != nil {
		return Coord{}, err
	}
	return n.codec.DecodeOKPosition(record)
}
