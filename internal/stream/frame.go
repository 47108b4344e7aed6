// Package stream serves cloth frames over websockets so remote viewers can
// follow a headless simulation.
package stream

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TypeTopology = "topology"
	TypeFrame    = "frame"
)

// Message is the msgpack payload of every binary websocket message. A client
// first receives one topology message per cloth, then frames.
type Message struct {
	Type  string `msgpack:"type"`
	Cloth string `msgpack:"cloth"`
	Tick  uint64 `msgpack:"tick,omitempty"`

	Indices   []int32   `msgpack:"indices,omitempty"`   // topology only
	Positions []float32 `msgpack:"positions,omitempty"` // xyz per vertex
	Normals   []float32 `msgpack:"normals,omitempty"`
}

// Command is what clients may send back.
type Command struct {
	Reset  bool  `msgpack:"reset,omitempty"`
	Paused *bool `msgpack:"paused,omitempty"`
}

func flatten(dst []float32, vs []rl.Vector3) []float32 {
	dst = dst[:0]
	for _, v := range vs {
		dst = append(dst, v.X, v.Y, v.Z)
	}
	return dst
}

// Vectors unpacks a flat xyz slice.
func Vectors(flat []float32) []rl.Vector3 {
	out := make([]rl.Vector3, len(flat)/3)
	for i := range out {
		out[i] = rl.Vector3{X: flat[3*i], Y: flat[3*i+1], Z: flat[3*i+2]}
	}
	return out
}

func EncodeTopology(cloth string, indices []int) ([]byte, error) {
	idx := make([]int32, len(indices))
	for i, v := range indices {
		idx[i] = int32(v)
	}
	return msgpack.Marshal(&Message{Type: TypeTopology, Cloth: cloth, Indices: idx})
}

func EncodeFrame(cloth string, tick uint64, positions, normals []rl.Vector3) ([]byte, error) {
	return msgpack.Marshal(&Message{
		Type:      TypeFrame,
		Cloth:     cloth,
		Tick:      tick,
		Positions: flatten(nil, positions),
		Normals:   flatten(nil, normals),
	})
}

func Decode(data []byte) (*Message, error) {
	var m Message
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("stream: decode message: %w", err)
	}
	return &m, nil
}
