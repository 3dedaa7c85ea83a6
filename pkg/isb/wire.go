/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package isb

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"
)

// wireItem is Item's on-the-wire shadow, gob-encoded the same way the
// teacher's isb.Message.MarshalBinary encodes a message for a real
// buffer. Payload travels as an interface value, so gob needs its
// dynamic type registered with RegisterPayloadType before the first
// EncodeItem call that carries it.
type wireItem struct {
	Kind           Kind
	Key            string
	EventTimeUnix  int64
	Payload        any
	WatermarkValue Watermark
	IsLate         bool
}

func init() {
	// Concrete types basic enough that any edge test or example is
	// likely to use them as a Payload without a RegisterPayloadType call
	// of its own.
	RegisterPayloadType("")
	RegisterPayloadType(0)
	RegisterPayloadType(int64(0))
	RegisterPayloadType(float64(0))
	RegisterPayloadType([]byte(nil))
	RegisterPayloadType(false)
}

// RegisterPayloadType makes a concrete Payload type transportable across
// a real edge (edge/kafka, edge/jetstream, edge/redisstream). It must be
// called, once, for every concrete type a pipeline's items carry in
// Payload before that type is ever offered to a real edge's Outbox —
// the same requirement gob.Register itself imposes on encoding an
// interface value, since EncodeItem is a thin wrapper over gob.
func RegisterPayloadType(v any) {
	gob.Register(v)
}

// EncodeItem serializes item for a real edge. Kind == KindWatermark
// items encode with a nil Payload; a nil Payload does not require
// RegisterPayloadType.
func EncodeItem(item Item) ([]byte, error) {
	w := wireItem{
		Kind:           item.Kind,
		Key:            item.Key,
		EventTimeUnix:  item.EventTime.UnixNano(),
		Payload:        item.Payload,
		WatermarkValue: item.WatermarkValue,
		IsLate:         item.IsLate,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("isb: encode item: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeItem deserializes an item previously produced by EncodeItem.
func DecodeItem(data []byte) (Item, error) {
	var w wireItem
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return Item{}, fmt.Errorf("isb: decode item: %w", err)
	}
	item := Item{
		Kind:           w.Kind,
		Key:            w.Key,
		Payload:        w.Payload,
		WatermarkValue: w.WatermarkValue,
		IsLate:         w.IsLate,
	}
	if w.EventTimeUnix != 0 {
		item.EventTime = time.Unix(0, w.EventTimeUnix)
	}
	return item, nil
}
