package memory

import (
	"github.com/papyrus-lab/alexandria/pkg/domain/interfaces"
)

// Memory is an in-process repository for development and tests
type Memory struct {
	chunk *chunkRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		chunk: newChunkRepository(),
	}
}

func (m *Memory) Chunk() interfaces.ChunkRepository {
	return m.chunk
}

func (m *Memory) Close() error {
	return nil
}
