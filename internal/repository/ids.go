package repository

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

// IDGenerator выдаёт идентификаторы товаров
type IDGenerator interface {
	Next() int64
	// Observe сообщает генератору id, пришедший извне (загрузка из источника)
	Observe(id int64)
}

// SequenceIDs возрастающий счётчик, начиная с 1
type SequenceIDs struct {
	mu   sync.Mutex
	next int64
}

func NewSequenceIDs() *SequenceIDs { return &SequenceIDs{next: 1} }

func (s *SequenceIDs) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return id
}

func (s *SequenceIDs) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= s.next {
		s.next = id + 1
	}
}

// SnowflakeIDs id на основе времени, уникальные между несколькими процессами с разными node
type SnowflakeIDs struct {
	node *snowflake.Node
}

func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, errors.Wrapf(err, "snowflake node %d", node)
	}
	return &SnowflakeIDs{node: n}, nil
}

func (s *SnowflakeIDs) Next() int64 { return s.node.Generate().Int64() }

// Observe ничего не делает: снежинки монотонны сами по себе, коллизии отсекает хранилище.
func (s *SnowflakeIDs) Observe(int64) {}

// NewIDGenerator выбирает стратегию по имени из конфига: "sequence" или "snowflake"
func NewIDGenerator(strategy string, node int64) (IDGenerator, error) {
	switch strategy {
	case "", "sequence":
		return NewSequenceIDs(), nil
	case "snowflake":
		return NewSnowflakeIDs(node)
	default:
		return nil, errors.Errorf("unknown id strategy %q", strategy)
	}
}
