package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ErrStaleRead marks a group read that raced with a writer: missing or
// undecodable data keys. The poller keeps its marker and retries on the
// next cycle; it is never surfaced to the user.
var ErrStaleRead = errors.New("stale or partial sync read")

// ErrEncodingFailure marks a payload the channel cannot carry; the write
// is skipped for the cycle, not retried.
var ErrEncodingFailure = errors.New("sync encoding failure")

// Logger matches the engine logger so the bridge can report skipped
// cycles without importing it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// State group names. Each group is one consistency unit: data keys first,
// timestamp key last.
const (
	GroupGeometry   = "geometry"
	GroupEntities   = "entities"
	GroupSelection  = "selection"
	GroupVisibility = "visibility"
	GroupCamera     = "camera"
	GroupSection    = "section"
	GroupCameraCmd  = "camera_cmd"
	GroupFocus      = "focus"
)

const keyPrefix = "vantage"

// DefaultChunkSize bounds one store value; geometry payloads above it are
// split across chunk keys.
const DefaultChunkSize = 512 * 1024

// MaxValueLen rejects pathological single values before they hit backend
// limits.
const MaxValueLen = 8 * 1024 * 1024

func dataKey(group, field string) string {
	return fmt.Sprintf("%s.%s.%s", keyPrefix, group, field)
}

func tsKey(group string) string     { return fmt.Sprintf("%s.%s.ts", keyPrefix, group) }
func originKey(group string) string { return fmt.Sprintf("%s.%s.origin", keyPrefix, group) }
func chunkKey(group string, i int) string {
	return fmt.Sprintf("%s.%s.chunk.%d", keyPrefix, group, i)
}

// Writer publishes state groups. One Writer per engine; origin tags every
// group so the peer's poller can drop echoes of its own writes.
type Writer struct {
	store     Store
	origin    string
	log       Logger
	chunkSize int
	lastTS    map[string]int64
}

func NewWriter(store Store, origin string, log Logger) *Writer {
	if log == nil {
		log = nopLogger{}
	}
	return &Writer{
		store:     store,
		origin:    origin,
		log:       log,
		chunkSize: DefaultChunkSize,
		lastTS:    make(map[string]int64),
	}
}

// nextTimestamp is monotonically increasing per group even when the wall
// clock stalls inside one microsecond.
func (w *Writer) nextTimestamp(group string) int64 {
	ts := time.Now().UnixMicro()
	if last := w.lastTS[group]; ts <= last {
		ts = last + 1
	}
	w.lastTS[group] = ts
	return ts
}

// WriteGroup writes every data field, then the origin tag, then the
// timestamp key. A reader that observes the new timestamp is therefore
// guaranteed the data keys were already written, or it detects the gap
// and retries. The channel is best-effort: a failed write is logged and
// the cycle skipped, because the next write supersedes it anyway.
func (w *Writer) WriteGroup(ctx context.Context, group string, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if len(value) > MaxValueLen {
			return fmt.Errorf("%w: field %s.%s is %d bytes", ErrEncodingFailure, group, name, len(value))
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.store.Set(ctx, dataKey(group, name), fields[name]); err != nil {
			w.log.Warnf("sync write %s.%s skipped: %v", group, name, err)
			return err
		}
	}
	if err := w.store.Set(ctx, originKey(group), w.origin); err != nil {
		w.log.Warnf("sync write %s origin skipped: %v", group, err)
		return err
	}
	ts := w.nextTimestamp(group)
	if err := w.store.Set(ctx, tsKey(group), strconv.FormatInt(ts, 10)); err != nil {
		w.log.Warnf("sync write %s timestamp skipped: %v", group, err)
		return err
	}
	return nil
}

// WriteChunked encodes one large payload as numbered chunk keys plus a
// chunk-count field, then commits the group as usual.
func (w *Writer) WriteChunked(ctx context.Context, group, payload string) error {
	chunks := chunkText(payload, w.chunkSize)
	for i, chunk := range chunks {
		if err := w.store.Set(ctx, chunkKey(group, i), chunk); err != nil {
			w.log.Warnf("sync write %s chunk %d skipped: %v", group, i, err)
			return err
		}
	}
	return w.WriteGroup(ctx, group, map[string]string{
		"chunks": strconv.Itoa(len(chunks)),
	})
}

// WriteSelection publishes the selection group.
func (w *Writer) WriteSelection(ctx context.Context, p SelectionPayload) error {
	return w.writeJSON(ctx, GroupSelection, p)
}

// WriteVisibility publishes the visibility group.
func (w *Writer) WriteVisibility(ctx context.Context, p VisibilityPayload) error {
	return w.writeJSON(ctx, GroupVisibility, p)
}

// WriteCamera publishes the camera pose group.
func (w *Writer) WriteCamera(ctx context.Context, p CameraPayload) error {
	return w.writeJSON(ctx, GroupCamera, p)
}

// WriteSection publishes the section-plane group.
func (w *Writer) WriteSection(ctx context.Context, p SectionPayload) error {
	return w.writeJSON(ctx, GroupSection, p)
}

// WriteCameraCommand publishes a one-shot camera command.
func (w *Writer) WriteCameraCommand(ctx context.Context, p CameraCommandPayload) error {
	return w.writeJSON(ctx, GroupCameraCmd, p)
}

// WriteFocus publishes a zoom-to-entity request.
func (w *Writer) WriteFocus(ctx context.Context, p FocusPayload) error {
	return w.writeJSON(ctx, GroupFocus, p)
}

// WriteEntities publishes entity metadata and the flattened spatial tree
// as one group; the peer never sees one document without the other.
func (w *Writer) WriteEntities(ctx context.Context, entities []EntityPayload, nodes []NodePayload) error {
	entDoc, err := marshalCanonical(entities)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	nodeDoc, err := marshalCanonical(nodes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	return w.WriteGroup(ctx, GroupEntities, map[string]string{
		"entities": entDoc,
		"nodes":    nodeDoc,
	})
}

// WriteGeometry publishes the binary mesh payload through the chunked
// path.
func (w *Writer) WriteGeometry(ctx context.Context, meshes []GeometryMesh) error {
	encoded, err := EncodeGeometry(meshes)
	if err != nil {
		return err
	}
	return w.WriteChunked(ctx, GroupGeometry, encoded)
}

func (w *Writer) writeJSON(ctx context.Context, group string, v any) error {
	doc, err := marshalCanonical(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	return w.WriteGroup(ctx, group, map[string]string{"data": doc})
}

// Subscription declares one group a poller consumes: its data fields,
// whether the payload travels as chunks, and the handler that applies a
// consistent read. A handler error keeps the last-processed marker so the
// group is re-read on the next poll.
type Subscription struct {
	Group   string
	Fields  []string
	Chunked bool
	Handle  func(fields map[string]string) error
}

// Poller reads subscribed groups on demand. It only re-parses a group
// when the observed timestamp differs from the last processed one, always
// reads the whole group before committing the marker, and drops groups
// originated by its own engine.
type Poller struct {
	store Store
	self  string
	log   Logger
	subs  []Subscription
	seen  map[string]string
}

func NewPoller(store Store, self string, log Logger) *Poller {
	if log == nil {
		log = nopLogger{}
	}
	return &Poller{
		store: store,
		self:  self,
		log:   log,
		seen:  make(map[string]string),
	}
}

func (p *Poller) Subscribe(sub Subscription) {
	p.subs = append(p.subs, sub)
}

// Poll runs one cycle over every subscription. Store errors abort the
// cycle; protocol races are retried silently on the next interval.
func (p *Poller) Poll(ctx context.Context) error {
	for i := range p.subs {
		if err := p.pollGroup(ctx, &p.subs[i]); err != nil {
			if errors.Is(err, ErrStaleRead) {
				p.log.Debugf("sync poll %s: %v", p.subs[i].Group, err)
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Poller) pollGroup(ctx context.Context, sub *Subscription) error {
	ts, ok, err := p.store.Get(ctx, tsKey(sub.Group))
	if err != nil {
		return err
	}
	if !ok || ts == p.seen[sub.Group] {
		return nil
	}

	origin, ok, err := p.store.Get(ctx, originKey(sub.Group))
	if err != nil {
		return err
	}
	if !ok {
		// Timestamp landed before its origin tag: a writer is mid-group.
		return fmt.Errorf("%w: %s missing origin", ErrStaleRead, sub.Group)
	}
	if origin == p.self {
		// Our own write reflected back; acknowledge without applying.
		p.seen[sub.Group] = ts
		return nil
	}

	fields := make(map[string]string, len(sub.Fields))
	for _, name := range sub.Fields {
		value, ok, err := p.store.Get(ctx, dataKey(sub.Group, name))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s missing field %s", ErrStaleRead, sub.Group, name)
		}
		fields[name] = value
	}

	if sub.Chunked {
		count, err := strconv.Atoi(fields["chunks"])
		if err != nil || count < 1 {
			return fmt.Errorf("%w: %s bad chunk count %q", ErrStaleRead, sub.Group, fields["chunks"])
		}
		assembled := make([]byte, 0)
		for i := 0; i < count; i++ {
			chunk, ok, err := p.store.Get(ctx, chunkKey(sub.Group, i))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s missing chunk %d", ErrStaleRead, sub.Group, i)
			}
			assembled = append(assembled, chunk...)
		}
		fields["data"] = string(assembled)
	}

	if err := sub.Handle(fields); err != nil {
		return fmt.Errorf("%w: %s handler: %v", ErrStaleRead, sub.Group, err)
	}

	// Only now is the group committed as processed.
	p.seen[sub.Group] = ts
	return nil
}
