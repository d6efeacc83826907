package telemetry

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	traceMagic   = "CRTR"
	traceVersion = 1

	// maxFrame bounds a single record; anything larger is a corrupt stream.
	maxFrame = 1 << 20

	traceSlots = 256
)

var (
	ErrBadMagic      = errors.New("not a cruise trace")
	ErrBadVersion    = errors.New("unsupported trace version")
	ErrFrameTooLarge = errors.New("trace frame too large")
)

// Kind tags a trace record.
type Kind uint8

const (
	KindVehicle Kind = iota + 1
	KindControl
	KindOverload
	KindDeadlineMiss
)

func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return "vehicle"
	case KindControl:
		return "control"
	case KindOverload:
		return "overload"
	case KindDeadlineMiss:
		return "deadline-miss"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Header opens every trace stream.
type Header struct {
	Magic     string `msgpack:"magic"`
	Version   uint8  `msgpack:"version"`
	RunID     string `msgpack:"run"`
	TickNanos int64  `msgpack:"tick_ns"`
	Started   int64  `msgpack:"started"`
}

// Record is one traced observation. Exactly one payload is set, matching Kind.
type Record struct {
	Kind     Kind                  `msgpack:"k"`
	Tick     uint64                `msgpack:"t"`
	Vehicle  *proto.VehicleSample  `msgpack:"v,omitempty"`
	Control  *proto.ControlSample  `msgpack:"c,omitempty"`
	Overload *proto.OverloadSample `msgpack:"o,omitempty"`
}

// Recorder queues observations from the task set and writes them as
// length-prefixed msgpack frames from Run, off the real-time path.
type Recorder struct {
	queue *kernel.Queue[Record]
	runID uuid.UUID

	mu  sync.Mutex
	w   *bufio.Writer
	err error
	n   uint64
}

// NewRecorder writes the stream header to w and returns a recorder for it.
func NewRecorder(w io.Writer, tick time.Duration, now time.Time) (*Recorder, error) {
	r := &Recorder{
		queue: kernel.NewQueue[Record](traceSlots),
		runID: uuid.New(),
		w:     bufio.NewWriter(w),
	}
	hdr := Header{
		Magic:     traceMagic,
		Version:   traceVersion,
		RunID:     r.runID.String(),
		TickNanos: int64(tick),
		Started:   now.UnixNano(),
	}
	if err := writeFrame(r.w, hdr); err != nil {
		return nil, fmt.Errorf("trace header: %w", err)
	}
	return r, nil
}

// RunID identifies this trace.
func (r *Recorder) RunID() uuid.UUID { return r.runID }

// Dropped returns how many records were lost to a full queue.
func (r *Recorder) Dropped() uint64 { return r.queue.Dropped() }

// Written returns how many records reached the writer.
func (r *Recorder) Written() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func (r *Recorder) ObserveVehicle(s proto.VehicleSample) {
	if r == nil {
		return
	}
	r.queue.TrySend(Record{Kind: KindVehicle, Tick: s.Tick, Vehicle: &s})
}

func (r *Recorder) ObserveControl(s proto.ControlSample) {
	if r == nil {
		return
	}
	r.queue.TrySend(Record{Kind: KindControl, Tick: s.Tick, Control: &s})
}

func (r *Recorder) ObserveOverload(s proto.OverloadSample) {
	if r == nil {
		return
	}
	r.queue.TrySend(Record{Kind: KindOverload, Tick: s.Tick, Overload: &s})
}

func (r *Recorder) DeadlineMiss(tick uint64) {
	if r == nil {
		return
	}
	r.queue.TrySend(Record{Kind: KindDeadlineMiss, Tick: tick})
}

// Run writes queued records until ctx is done, then flushes what is left.
// The first write error stops recording and is returned.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		rec, err := r.queue.Recv(ctx)
		if err != nil {
			return r.Flush()
		}
		if err := r.write(rec); err != nil {
			return err
		}
	}
}

// Flush writes every queued record and flushes the underlying writer.
func (r *Recorder) Flush() error {
	for {
		rec, ok := r.queue.TryRecv()
		if !ok {
			break
		}
		if err := r.write(rec); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.err = r.w.Flush()
	return r.err
}

func (r *Recorder) write(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := writeFrame(r.w, rec); err != nil {
		r.err = fmt.Errorf("trace record: %w", err)
		return r.err
	}
	r.n++
	return nil
}

func writeFrame(w io.Writer, v any) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(b)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Reader decodes a trace stream written by Recorder.
type Reader struct {
	r      *bufio.Reader
	header Header
	buf    []byte
}

// NewReader reads and validates the stream header.
func NewReader(r io.Reader) (*Reader, error) {
	tr := &Reader{r: bufio.NewReader(r)}
	if err := tr.readFrame(&tr.header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrBadMagic
		}
		return nil, fmt.Errorf("trace header: %w", err)
	}
	if tr.header.Magic != traceMagic {
		return nil, ErrBadMagic
	}
	if tr.header.Version != traceVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, tr.header.Version)
	}
	return tr, nil
}

func (r *Reader) Header() Header { return r.header }

// Next returns the next record, or io.EOF at a clean end of stream. A stream
// cut inside a frame yields io.ErrUnexpectedEOF.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.readFrame(&rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *Reader) readFrame(v any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r.r, prefix[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxFrame {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	if cap(r.buf) < int(n) {
		r.buf = make([]byte, n)
	}
	r.buf = r.buf[:n]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return msgpack.Unmarshal(r.buf, v)
}
