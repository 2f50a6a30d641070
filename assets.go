package voxdraw

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/google/uuid"
)

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

var (
	ErrServerClosed = errors.New("voxdraw: model server closed")
	ErrDecodePanic  = errors.New("voxdraw: model decode panicked")
)

// LoadResult is one finished decode, handed to the render thread by Poll.
type LoadResult struct {
	ID      AssetId
	Name    string
	Model   *vxm.Model
	Err     error
	Elapsed time.Duration
}

// ModelServer decodes model files on a worker pool. The render thread never
// blocks on it: it collects finished work with Poll once per frame.
type ModelServer struct {
	pool pond.Pool
	log  Logger

	mu     sync.Mutex
	done   []LoadResult
	models map[AssetId]*vxm.Model
	names  map[AssetId]string
	closed bool

	pending atomic.Int64
}

func NewModelServer(workers int, log Logger) *ModelServer {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = NewNopLogger()
	}
	return &ModelServer{
		pool:   pond.NewPool(workers),
		log:    log,
		models: map[AssetId]*vxm.Model{},
		names:  map[AssetId]string{},
	}
}

// Load queues the file at path for decoding.
func (s *ModelServer) Load(path string) AssetId {
	return s.submit(filepath.Base(path), func() (*vxm.Model, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return vxm.DecodeFile(path, data)
	})
}

// LoadBytes queues an in-memory model. name selects the format by
// extension.
func (s *ModelServer) LoadBytes(name string, data []byte) AssetId {
	return s.submit(name, func() (*vxm.Model, error) {
		return vxm.DecodeFile(name, data)
	})
}

// Generate queues a procedurally built model.
func (s *ModelServer) Generate(name string, build func() *vxm.Model) AssetId {
	return s.submit(name, func() (*vxm.Model, error) {
		m := build()
		if m == nil {
			return nil, fmt.Errorf("generate %s: no model", name)
		}
		return m, nil
	})
}

func (s *ModelServer) submit(name string, decode func() (*vxm.Model, error)) AssetId {
	id := makeAssetId()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = name
	if s.closed {
		s.done = append(s.done, LoadResult{ID: id, Name: name, Err: ErrServerClosed})
		return id
	}

	s.pending.Add(1)
	s.pool.Submit(func() {
		defer s.pending.Add(-1)
		start := time.Now()
		m, err := runDecode(decode)
		s.finish(LoadResult{ID: id, Name: name, Model: m, Err: err, Elapsed: time.Since(start)})
	})
	return id
}

// runDecode turns a panicking decoder or builder into an ErrDecodePanic
// result so every submitted id still gets exactly one LoadResult.
func runDecode(decode func() (*vxm.Model, error)) (m *vxm.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%w: %v", ErrDecodePanic, r)
		}
	}()
	return decode()
}

func (s *ModelServer) finish(r LoadResult) {
	if r.Err != nil {
		r.Model = nil
		s.log.Errorf("decode %s: %v", r.Name, r.Err)
	} else {
		s.log.Debugf("decoded %s: %d voxels, size %v in %s", r.Name, r.Model.VoxelCount(), r.Model.Size, r.Elapsed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Model != nil {
		s.models[r.ID] = r.Model
	}
	s.done = append(s.done, r)
}

// Poll returns the decodes finished since the last call, in completion
// order. It never blocks on a running decode.
func (s *ModelServer) Poll() []LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.done) == 0 {
		return nil
	}
	out := s.done
	s.done = nil
	return out
}

func (s *ModelServer) Get(id AssetId) (*vxm.Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	return m, ok
}

func (s *ModelServer) Name(id AssetId) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[id]
}

// Pending is the number of queued or running decodes.
func (s *ModelServer) Pending() int {
	return int(s.pending.Load())
}

// Close waits for running decodes and rejects new ones. Results that were
// not polled yet stay available to Poll.
func (s *ModelServer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.pool.StopAndWait()
}
