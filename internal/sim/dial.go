package sim

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/stars-project/carla-export/internal/schema"
)

// request is one line on the bridge wire: an operation name and its
// parameters.
type request struct {
	ID     int             `json:"id"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// response is the bridge's answer to one request.
type response struct {
	ID     int             `json:"id"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// rpcClient speaks newline-delimited JSON to the simulator bridge. All
// operations are strict request/response; replay streaming is
// client-driven so the wire never interleaves.
type rpcClient struct {
	mu     sync.Mutex
	conn   net.Conn
	rd     *bufio.Reader
	nextID int
}

// Dial connects to the simulator bridge at addr within timeout.
func Dial(ctx context.Context, addr string, timeout time.Duration) (Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing simulator at %s: %w", addr, err)
	}
	return &rpcClient{conn: conn, rd: bufio.NewReader(conn)}, nil
}

// call sends one request and decodes its response into result.
// result may be nil for operations with no payload.
func (c *rpcClient) call(ctx context.Context, op string, params, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := request{ID: c.nextID, Op: op}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encoding %s params: %w", op, err)
		}
		req.Params = raw
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	line, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", op, err)
	}
	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("sending %s: %w", op, err)
	}

	raw, err := c.rd.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("reading %s response: %w", op, err)
	}
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%s: response id %d does not match request id %d", op, resp.ID, req.ID)
	}
	if !resp.OK {
		return fmt.Errorf("simulator %s: %s", op, resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decoding %s result: %w", op, err)
		}
	}
	return nil
}

func (c *rpcClient) LoadWorld(ctx context.Context, mapName string) error {
	return c.call(ctx, "load_world", map[string]string{"map": mapName}, nil)
}

func (c *rpcClient) SetSeed(ctx context.Context, seed int) error {
	return c.call(ctx, "set_seed", map[string]int{"seed": seed}, nil)
}

func (c *rpcClient) SetWeather(ctx context.Context, weather schema.WeatherParameters) error {
	return c.call(ctx, "set_weather", weather, nil)
}

func (c *rpcClient) StartRecorder(ctx context.Context, path string) error {
	return c.call(ctx, "start_recorder", map[string]string{"path": path}, nil)
}

func (c *rpcClient) StopRecorder(ctx context.Context) error {
	return c.call(ctx, "stop_recorder", nil, nil)
}

func (c *rpcClient) SpawnTraffic(ctx context.Context, spec TrafficSpec) ([]int, error) {
	var result struct {
		VehicleIDs []int `json:"vehicle_ids"`
	}
	if err := c.call(ctx, "spawn_traffic", spec, &result); err != nil {
		return nil, err
	}
	return result.VehicleIDs, nil
}

func (c *rpcClient) Tick(ctx context.Context) (float64, error) {
	var result struct {
		Elapsed float64 `json:"elapsed"`
	}
	if err := c.call(ctx, "tick", nil, &result); err != nil {
		return 0, err
	}
	return result.Elapsed, nil
}

func (c *rpcClient) Actors(ctx context.Context) ([]ActorState, error) {
	var result struct {
		Actors []ActorState `json:"actors"`
	}
	if err := c.call(ctx, "actors", nil, &result); err != nil {
		return nil, err
	}
	return result.Actors, nil
}

func (c *rpcClient) Replay(ctx context.Context, path string) (ReplayInfo, TickStream, error) {
	var info ReplayInfo
	if err := c.call(ctx, "replay_open", map[string]string{"path": path}, &info); err != nil {
		return ReplayInfo{}, nil, err
	}
	return info, &rpcStream{c: c}, nil
}

func (c *rpcClient) RoadNetwork(ctx context.Context) (*NetworkGraph, error) {
	var graph NetworkGraph
	if err := c.call(ctx, "road_network", nil, &graph); err != nil {
		return nil, err
	}
	return &graph, nil
}

func (c *rpcClient) Reset(ctx context.Context) error {
	return c.call(ctx, "reset", nil, nil)
}

func (c *rpcClient) Close() error {
	return c.conn.Close()
}

// rpcStream pulls replay ticks one request at a time.
type rpcStream struct {
	c    *rpcClient
	done bool
}

func (s *rpcStream) Next(ctx context.Context) (WorldState, error) {
	if s.done {
		return WorldState{}, io.EOF
	}
	var result struct {
		Done  bool       `json:"done"`
		State WorldState `json:"state"`
	}
	if err := s.c.call(ctx, "replay_next", nil, &result); err != nil {
		return WorldState{}, err
	}
	if result.Done {
		s.done = true
		return WorldState{}, io.EOF
	}
	return result.State, nil
}
