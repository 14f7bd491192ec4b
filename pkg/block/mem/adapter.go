package mem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pydist/pydist/pkg/block"
)

const BlockstoreType = "mem"

var ErrNoDataForKey = fmt.Errorf("no data for key: %w", block.ErrDataNotFound)

// Adapter keeps everything in a map. Usable for testing and for ephemeral
// indexes; everything is lost on restart.
type Adapter struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

func New() *Adapter {
	return &Adapter{
		data: make(map[string][]byte),
	}
}

func (a *Adapter) Put(_ context.Context, key string, reader io.Reader) (int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.data[key] = data
	return int64(len(data)), nil
}

func (a *Adapter) Get(_ context.Context, key string) (io.ReadCloser, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	data, ok := a.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNoDataForKey)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *Adapter) Exists(_ context.Context, key string) (bool, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	_, ok := a.data[key]
	return ok, nil
}

func (a *Adapter) Remove(_ context.Context, key string) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if _, ok := a.data[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNoDataForKey)
	}
	delete(a.data, key)
	return nil
}

func (a *Adapter) BlockstoreType() string {
	return BlockstoreType
}
