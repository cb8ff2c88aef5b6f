// Package id issues time-ordered int64 ids for rows that are not keyed by
// a UUID, such as classification audit records and queue notifications.
package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init configures the process-wide node. Only the first call takes effect;
// nodeID must be unique across running server and worker processes.
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
	if node == nil {
		panic("id: New called before Init")
	}
	return node.Generate().Int64()
}
