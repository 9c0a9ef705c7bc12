package stream

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sandfall/internal/chunk"
	"sandfall/internal/persist"
	"sandfall/internal/render"
	"sandfall/internal/world"
)

// Stats reports the work done by one Update.
type Stats struct {
	Loaded  int
	Evicted int
}

// Streamer keeps the grid populated around a focus point: chunks that drift
// out of range are saved and evicted, stored chunks that come into range are
// loaded. It must run on the coordinating goroutine between ticks.
type Streamer struct {
	grid   *world.Grid
	store  *persist.Store
	bridge *render.Bridge
	radius int32
	log    *zap.Logger

	stored map[chunk.Coord]struct{}
}

// New builds a streamer keeping chunks within radius chunks of the focus.
// Chunks are evicted once they are more than radius+1 away, so a focus
// moving back and forth over a boundary does not thrash the store.
func New(ctx context.Context, grid *world.Grid, store *persist.Store, radius int, log *zap.Logger) (*Streamer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if radius < 1 {
		radius = 1
	}
	coords, err := store.Coords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored chunks: %w", err)
	}
	s := &Streamer{
		grid:   grid,
		store:  store,
		radius: int32(radius),
		log:    log,
		stored: make(map[chunk.Coord]struct{}, len(coords)),
	}
	for _, c := range coords {
		s.stored[c] = struct{}{}
	}
	return s, nil
}

// WithBridge makes the streamer drop cached render buffers of evicted chunks.
func (s *Streamer) WithBridge(b *render.Bridge) *Streamer {
	s.bridge = b
	return s
}

func distance(a, b chunk.Coord) int32 {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

// Update evicts far chunks and loads stored chunks near focus.
func (s *Streamer) Update(ctx context.Context, focus chunk.Coord) (Stats, error) {
	var st Stats
	for _, c := range s.grid.Coords() {
		if distance(c, focus) <= s.radius+1 {
			continue
		}
		if err := s.evict(ctx, c); err != nil {
			return st, err
		}
		st.Evicted++
	}
	for dy := -s.radius; dy <= s.radius; dy++ {
		for dx := -s.radius; dx <= s.radius; dx++ {
			c := focus.Add(dx, dy)
			if _, ok := s.grid.GetMut(c); ok {
				continue
			}
			if _, ok := s.stored[c]; !ok {
				continue
			}
			loaded, err := s.load(ctx, c)
			if err != nil {
				return st, err
			}
			if loaded {
				st.Loaded++
			}
		}
	}
	if st.Loaded > 0 || st.Evicted > 0 {
		s.log.Debug("stream update",
			zap.Stringer("focus", focus),
			zap.Int("loaded", st.Loaded),
			zap.Int("evicted", st.Evicted),
			zap.Int("resident", s.grid.Len()),
		)
	}
	return st, nil
}

func (s *Streamer) evict(ctx context.Context, c chunk.Coord) error {
	ch, ok := s.grid.GetMut(c)
	if !ok {
		return nil
	}
	if err := s.store.Save(ctx, ch); err != nil {
		return err
	}
	s.stored[c] = struct{}{}
	s.grid.Remove(c)
	if s.bridge != nil {
		s.bridge.Forget(c)
	}
	return nil
}

func (s *Streamer) load(ctx context.Context, c chunk.Coord) (bool, error) {
	ch, ok, err := s.store.Load(ctx, c)
	if err != nil {
		return false, err
	}
	if !ok {
		delete(s.stored, c)
		return false, nil
	}
	if err := s.grid.Insert(ch); err != nil {
		return false, err
	}
	return true, nil
}

// Flush saves every resident chunk without evicting it.
func (s *Streamer) Flush(ctx context.Context) error {
	for _, c := range s.grid.Coords() {
		ch, _ := s.grid.GetMut(c)
		if err := s.store.Save(ctx, ch); err != nil {
			return err
		}
		s.stored[c] = struct{}{}
	}
	s.log.Info("flushed chunks", zap.Int("count", s.grid.Len()))
	return nil
}
