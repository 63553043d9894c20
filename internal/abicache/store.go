package abicache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Store persists ABI JSON keyed by contract address.
// This interface allows for different backends (in-memory, on-disk, etc.)
type Store interface {
	// Put persists the ABI JSON for an address
	Put(address common.Address, abiJSON []byte) error

	// Get retrieves the ABI JSON for an address
	// Returns the data and true if found, nil and false otherwise
	Get(address common.Address) ([]byte, bool, error)
}

// MemoryStore keeps registered ABIs in process memory only.
type MemoryStore struct {
	abis map[common.Address][]byte
	mu   sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		abis: make(map[common.Address][]byte),
	}
}

// Put stores the ABI JSON for an address
func (s *MemoryStore) Put(address common.Address, abiJSON []byte) error {
	data := make([]byte, len(abiJSON))
	copy(data, abiJSON)

	s.mu.Lock()
	s.abis[address] = data
	s.mu.Unlock()
	return nil
}

// Get retrieves the ABI JSON for an address
func (s *MemoryStore) Get(address common.Address) ([]byte, bool, error) {
	s.mu.RLock()
	data, ok := s.abis[address]
	s.mu.RUnlock()
	return data, ok, nil
}

// FileStore persists ABIs as one JSON file per address in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ABI store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(address common.Address) string {
	return filepath.Join(s.dir, strings.ToLower(address.Hex())+".json")
}

// Put writes the ABI JSON for an address to disk
func (s *FileStore) Put(address common.Address, abiJSON []byte) error {
	if err := os.WriteFile(s.path(address), abiJSON, 0o644); err != nil {
		return fmt.Errorf("failed to write ABI for %s: %w", address.Hex(), err)
	}
	return nil
}

// Get reads the ABI JSON for an address from disk
func (s *FileStore) Get(address common.Address) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(address))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ABI for %s: %w", address.Hex(), err)
	}
	return data, true, nil
}
