package graph

import "fmt"

// WeightMin and WeightMax are the clamp bounds a connection's weight is held
// to after any mutation (spec.md §3).
const (
	WeightMin = -5.0
	WeightMax = 5.0
)

// Connection is a directed, weighted edge between two nodes. It carries a
// stable Innovation id used to find homologous genes across networks during
// crossover (spec.md §3).
type Connection struct {
	FromID     int
	ToID       int
	Weight     float64
	Enabled    bool
	Innovation int64
}

func (c *Connection) String() string {
	state := "enabled"
	if !c.Enabled {
		state = "disabled"
	}
	return fmt.Sprintf("Conn(%d->%d w=%.3f innov=%d %s)", c.FromID, c.ToID, c.Weight, c.Innovation, state)
}

// ClampWeight clamps c.Weight into [WeightMin, WeightMax].
func (c *Connection) ClampWeight() {
	if c.Weight < WeightMin {
		c.Weight = WeightMin
	} else if c.Weight > WeightMax {
		c.Weight = WeightMax
	}
}
