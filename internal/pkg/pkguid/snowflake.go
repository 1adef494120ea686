package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// jobEpoch is 2025-12-01T00:00:00+07:00 in milliseconds.
const jobEpoch int64 = 1764522000000

var setEpoch sync.Once

// Snowflake hands out time-ordered numeric ids, used for compression jobs.
type Snowflake struct {
	node *snowflake.Node
}

func randomNodeID() (int64, error) {
	var n uint16
	if err := binary.Read(rand.Reader, binary.BigEndian, &n); err != nil {
		return 0, err
	}
	return int64(n) & (1<<snowflake.NodeBits - 1), nil
}

// NewSnowflake picks a random node id. Use NewSnowflakeNode when several
// processes must never collide.
func NewSnowflake() (*Snowflake, error) {
	nodeID, err := randomNodeID()
	if err != nil {
		return nil, fmt.Errorf("snowflake node id: %w", err)
	}
	return NewSnowflakeNode(nodeID)
}

func NewSnowflakeNode(nodeID int64) (*Snowflake, error) {
	// the library reads Epoch when a node is created
	setEpoch.Do(func() { snowflake.Epoch = jobEpoch })

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
