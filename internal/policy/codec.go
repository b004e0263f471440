package policy

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/nn"
)

// Field numbers of the artifact wire format. The layout is a protobuf
// message so standard tooling (protoc --decode_raw) can inspect a file.
//
//	Artifact { 1: version, 2: Metadata, 3: repeated Layer }
//	Metadata { 1: collection, 2: packed dice, 3: target, 4: reroll_norm,
//	           5: run_id, 6: episodes, 7: seed (zigzag), 8: Timestamp trained_at }
//	Layer    { 1: in, 2: out, 3: packed double weights, 4: packed double biases }
const (
	fieldVersion  protowire.Number = 1
	fieldMetadata protowire.Number = 2
	fieldLayer    protowire.Number = 3

	fieldCollection protowire.Number = 1
	fieldDice       protowire.Number = 2
	fieldTarget     protowire.Number = 3
	fieldRerollNorm protowire.Number = 4
	fieldRunID      protowire.Number = 5
	fieldEpisodes   protowire.Number = 6
	fieldSeed       protowire.Number = 7
	fieldTrainedAt  protowire.Number = 8

	fieldIn      protowire.Number = 1
	fieldOut     protowire.Number = 2
	fieldWeights protowire.Number = 3
	fieldBiases  protowire.Number = 4
)

// Marshal encodes the artifact
func Marshal(a *Artifact) ([]byte, error) {
	meta, err := marshalMetadata(a.Metadata)
	if err != nil {
		return nil, err
	}

	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.Version))
	b = protowire.AppendTag(b, fieldMetadata, protowire.BytesType)
	b = protowire.AppendBytes(b, meta)
	for _, l := range a.Layers {
		b = protowire.AppendTag(b, fieldLayer, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalLayer(l))
	}
	return b, nil
}

func marshalMetadata(m Metadata) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldCollection, protowire.BytesType)
	b = protowire.AppendString(b, m.Collection)

	var packed []byte
	for _, d := range m.Dice {
		packed = protowire.AppendVarint(packed, uint64(d))
	}
	b = protowire.AppendTag(b, fieldDice, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)

	b = protowire.AppendTag(b, fieldTarget, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Target))
	b = protowire.AppendTag(b, fieldRerollNorm, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.RerollNorm))
	b = protowire.AppendTag(b, fieldRunID, protowire.BytesType)
	b = protowire.AppendString(b, m.RunID)
	b = protowire.AppendTag(b, fieldEpisodes, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Episodes))
	b = protowire.AppendTag(b, fieldSeed, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(m.Seed))

	if !m.TrainedAt.IsZero() {
		ts, err := proto.Marshal(timestamppb.New(m.TrainedAt))
		if err != nil {
			return nil, errors.Wrap(err, "encoding trained-at timestamp")
		}
		b = protowire.AppendTag(b, fieldTrainedAt, protowire.BytesType)
		b = protowire.AppendBytes(b, ts)
	}
	return b, nil
}

func marshalLayer(l nn.LayerParams) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldIn, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(l.In))
	b = protowire.AppendTag(b, fieldOut, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(l.Out))
	b = protowire.AppendTag(b, fieldWeights, protowire.BytesType)
	b = protowire.AppendBytes(b, packDoubles(l.Weights))
	b = protowire.AppendTag(b, fieldBiases, protowire.BytesType)
	b = protowire.AppendBytes(b, packDoubles(l.Biases))
	return b
}

func packDoubles(values []float64) []byte {
	b := make([]byte, 0, 8*len(values))
	for _, v := range values {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	return b
}

// Unmarshal decodes an artifact. Unknown fields are skipped; a missing
// version or a version newer than FormatVersion is rejected.
func Unmarshal(data []byte) (*Artifact, error) {
	a := &Artifact{}
	var (
		version     uint64
		sawMetadata bool
	)
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			version = v
			return n, nil
		case num == fieldMetadata && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			meta, err := unmarshalMetadata(raw)
			if err != nil {
				return 0, err
			}
			a.Metadata = meta
			sawMetadata = true
			return n, nil
		case num == fieldLayer && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			layer, err := unmarshalLayer(raw)
			if err != nil {
				return 0, err
			}
			a.Layers = append(a.Layers, layer)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, err
	}

	// checked on the raw varint so an oversized value cannot wrap around
	if version == 0 {
		return nil, errors.Wrap(ErrCorruptArtifact, "missing format version")
	}
	if version > uint64(FormatVersion) {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d, this build reads up to %d", version, FormatVersion)
	}
	a.Version = int(version)
	if !sawMetadata {
		return nil, errors.Wrap(ErrCorruptArtifact, "missing metadata")
	}
	if len(a.Layers) == 0 {
		return nil, errors.Wrap(ErrCorruptArtifact, "missing layers")
	}
	return a, nil
}

func unmarshalMetadata(data []byte) (Metadata, error) {
	var m Metadata
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldCollection && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			m.Collection = s
			return n, nil
		case num == fieldDice && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			for len(packed) > 0 {
				v, k := protowire.ConsumeVarint(packed)
				if k < 0 {
					return 0, errors.Wrapf(ErrCorruptArtifact, "dice: %v", protowire.ParseError(k))
				}
				m.Dice = append(m.Dice, int(v))
				packed = packed[k:]
			}
			return n, nil
		case num == fieldTarget && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Target = int(v)
			return n, nil
		case num == fieldRerollNorm && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.RerollNorm = int(v)
			return n, nil
		case num == fieldRunID && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			m.RunID = s
			return n, nil
		case num == fieldEpisodes && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Episodes = int(v)
			return n, nil
		case num == fieldSeed && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Seed = protowire.DecodeZigZag(v)
			return n, nil
		case num == fieldTrainedAt && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			ts := &timestamppb.Timestamp{}
			if err := proto.Unmarshal(raw, ts); err != nil {
				return 0, errors.Wrapf(ErrCorruptArtifact, "trained-at timestamp: %v", err)
			}
			m.TrainedAt = ts.AsTime()
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return m, err
}

func unmarshalLayer(data []byte) (nn.LayerParams, error) {
	var l nn.LayerParams
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldIn && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			l.In = int(v)
			return n, nil
		case num == fieldOut && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			l.Out = int(v)
			return n, nil
		case (num == fieldWeights || num == fieldBiases) && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			values, err := unpackDoubles(packed)
			if err != nil {
				return 0, err
			}
			if num == fieldWeights {
				l.Weights = values
			} else {
				l.Biases = values
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return l, err
}

func unpackDoubles(packed []byte) ([]float64, error) {
	if len(packed)%8 != 0 {
		return nil, errors.Wrapf(ErrCorruptArtifact, "packed doubles have %d bytes", len(packed))
	}
	values := make([]float64, 0, len(packed)/8)
	for len(packed) > 0 {
		v, n := protowire.ConsumeFixed64(packed)
		if n < 0 {
			return nil, errors.Wrapf(ErrCorruptArtifact, "doubles: %v", protowire.ParseError(n))
		}
		values = append(values, math.Float64frombits(v))
		packed = packed[n:]
	}
	return values, nil
}

// walk iterates over the fields of one message. field consumes the value
// that follows the tag and returns its length, or a negative protowire
// error code.
func walk(data []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrapf(ErrCorruptArtifact, "tag: %v", protowire.ParseError(n))
		}
		data = data[n:]

		m, err := field(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			return errors.Wrapf(ErrCorruptArtifact, "field %d: %v", num, protowire.ParseError(m))
		}
		data = data[m:]
	}
	return nil
}
