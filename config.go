package robot

import "time"

// Planner selects which navigation strategy a Config wires up (spec §4.6,
// §9: "a factory object bundles one concrete choice per role").
type Planner string

const (
	PlannerSimple Planner = "simple"
	PlannerBFS    Planner = "bfs"
)

// DefaultKeys is the reference key table of spec §6, indexed by position.
var DefaultKeys = []KeyPair{
	{ServerKey: 23019, ClientKey: 32037},
	{ServerKey: 32037, ClientKey: 29295},
	{ServerKey: 18789, ClientKey: 13603},
	{ServerKey: 16443, ClientKey: 29533},
	{ServerKey: 18189, ClientKey: 21952},
}

// Config holds the recognized options of spec §6. Once built it is
// effectively immutable shared state: constructed once at startup and only
// read by connection tasks (spec §5's shared-resource invariant).
type Config struct {
	Host string
	Port uint16

	// Keys is the authentication key table, indexed by position. Copied on
	// construction so later mutation of a caller's slice can't leak into a
	// running server.
	Keys []KeyPair

	Timeout           time.Duration
	TimeoutRecharging time.Duration
	Planner           Planner
	RechargingEnabled bool
}

// DefaultConfig returns the spec §6 reference configuration.
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              9999,
		Keys:              append([]KeyPair(nil), DefaultKeys...),
		Timeout:           1 * time.Second,
		TimeoutRecharging: 5 * time.Second,
		Planner:           PlannerSimple,
		RechargingEnabled: true,
	}
}

// KeyTable returns the key table as a map from key_id to KeyPair, mirroring
// the table semantics of spec §3/§6 (0-based, ordered).
func (c Config) KeyTable() map[int]KeyPair {
	table := make(map[int]KeyPair, len(c.Keys))
	for i, kp := range c.Keys {
		table[i] = kp
	}
	return table
}
