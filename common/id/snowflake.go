// Package id issues submission ids. Ids are snowflakes: time-ordered int64s
// that stay unique across instances as long as each runs with its own node id.
package id

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init selects the node id for this process. Only the first call has any
// effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			err = fmt.Errorf("snowflake node %d: %w", nodeID, err)
		}
	})
	return err
}

// New returns the next id. Init must have succeeded first.
func New() int64 {
	return node.Generate().Int64()
}

// Time reports when id was issued, to millisecond precision.
func Time(id int64) time.Time {
	return time.UnixMilli(snowflake.ID(id).Time())
}
