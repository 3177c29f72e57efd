package protocol

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// ErrMalformedFrame is returned for frames that cannot be decoded.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame flags stored in the first byte of every frame.
const (
	FlagPlain byte = 0x00
	FlagZstd  byte = 0x01
)

// CompressThreshold is the encoded envelope size above which frames are
// zstd-compressed.
const CompressThreshold = 1024

// MaxFrameSize bounds the decompressed size of a frame.
const MaxFrameSize = 16 << 20

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		MaxArrayElements: 1 << 20,
	}.DecMode()
	if err != nil {
		panic("protocol: CBOR decoder initialization failed: " + err.Error())
	}
}

func initZstd() error {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxFrameSize))
	})
	return zstdErr
}

// envelope is the CBOR shape of every frame.
type envelope struct {
	Kind Kind            `cbor:"t"`
	Body cbor.RawMessage `cbor:"b"`
}

// updateBody is the wire shape of IssueUpdateRequest. The payload variant is
// carried by Tag so the value can be rebuilt without guessing.
type updateBody struct {
	Field domain.FieldID     `cbor:"f"`
	Str   string             `cbor:"s,omitempty"`
	Vec   []int32            `cbor:"v,omitempty"`
	ID    domain.IssueID     `cbor:"id"`
	I32   int32              `cbor:"i,omitempty"`
	Tag   domain.PayloadKind `cbor:"k"`
}

// Encode serializes a message into one frame.
func Encode(m Message) ([]byte, error) {
	var body any = m
	if req, ok := m.(IssueUpdateRequest); ok {
		b, err := toUpdateBody(req)
		if err != nil {
			return nil, err
		}
		body = b
	}

	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", m.Kind(), err)
	}
	data, err := encMode.Marshal(envelope{Kind: m.Kind(), Body: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}

	if len(data) <= CompressThreshold {
		return append([]byte{FlagPlain}, data...), nil
	}
	if err := initZstd(); err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}
	frame := make([]byte, 1, len(data)/2+1)
	frame[0] = FlagZstd
	return zstdEnc.EncodeAll(data, frame), nil
}

// Decode parses one frame. Every failure wraps ErrMalformedFrame.
func Decode(frame []byte) (Message, error) {
	if len(frame) < 2 {
		return nil, fmt.Errorf("%w: short frame (%d bytes)", ErrMalformedFrame, len(frame))
	}

	data := frame[1:]
	switch frame[0] {
	case FlagPlain:
	case FlagZstd:
		if err := initZstd(); err != nil {
			return nil, fmt.Errorf("init zstd: %w", err)
		}
		out, err := zstdDec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", ErrMalformedFrame, err)
		}
		data = out
	default:
		return nil, fmt.Errorf("%w: unknown flag 0x%02x", ErrMalformedFrame, frame[0])
	}

	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	m, err := decodeBody(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFrame, env.Kind, err)
	}
	return m, nil
}

func decodeBody(env envelope) (Message, error) {
	switch env.Kind {
	case KindIssuesLoaded:
		return unmarshalAs[IssuesLoaded](env.Body)
	case KindIssueUpdateRequest:
		b, err := unmarshalAs[updateBody](env.Body)
		if err != nil {
			return nil, err
		}
		return fromUpdateBody(b)
	case KindIssuesRequest:
		return unmarshalAs[IssuesRequest](env.Body)
	case KindIssueDeleteRequest:
		return unmarshalAs[IssueDeleteRequest](env.Body)
	case KindIssueDeleted:
		return unmarshalAs[IssueDeleted](env.Body)
	case KindIssueStatusesRequest:
		return unmarshalAs[IssueStatusesRequest](env.Body)
	case KindIssueStatusesLoaded:
		return unmarshalAs[IssueStatusesLoaded](env.Body)
	case KindIssueStatusCreated:
		return unmarshalAs[IssueStatusCreated](env.Body)
	case KindIssueStatusUpdated:
		return unmarshalAs[IssueStatusUpdated](env.Body)
	case KindIssueStatusDeleted:
		return unmarshalAs[IssueStatusDeleted](env.Body)
	case KindError:
		return unmarshalAs[ErrorMsg](env.Body)
	}
	return nil, fmt.Errorf("unknown kind %q", env.Kind)
}

func unmarshalAs[T any](raw []byte) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, errors.New("missing body")
	}
	err := decMode.Unmarshal(raw, &v)
	return v, err
}

func toUpdateBody(req IssueUpdateRequest) (updateBody, error) {
	b := updateBody{ID: req.ID, Field: req.Field}
	switch v := req.Value.(type) {
	case domain.I32:
		b.Tag, b.I32 = domain.PayloadI32, int32(v)
	case domain.String:
		b.Tag, b.Str = domain.PayloadString, string(v)
	case domain.I32Vec:
		b.Tag, b.Vec = domain.PayloadI32Vec, []int32(v)
	default:
		return b, fmt.Errorf("encode %s: %w", req.Field, domain.ErrInvalidPayload)
	}
	return b, nil
}

func fromUpdateBody(b updateBody) (IssueUpdateRequest, error) {
	req := IssueUpdateRequest{ID: b.ID, Field: b.Field}
	switch b.Tag {
	case domain.PayloadI32:
		req.Value = domain.I32(b.I32)
	case domain.PayloadString:
		req.Value = domain.String(b.Str)
	case domain.PayloadI32Vec:
		vec := b.Vec
		if vec == nil {
			vec = []int32{}
		}
		req.Value = domain.I32Vec(vec)
	default:
		return req, fmt.Errorf("unknown payload kind %d", b.Tag)
	}
	return req, nil
}
