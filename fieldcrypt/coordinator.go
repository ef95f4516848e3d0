package fieldcrypt

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/fieldcrypt/encryption"
	apperrors "github.com/kbukum/fieldcrypt/errors"
	"github.com/kbukum/fieldcrypt/logger"
	"github.com/kbukum/fieldcrypt/observability"
)

const (
	phaseBeforeWrite = "before_write"
	phaseAfterWrite  = "after_write"
	phaseAfterLoad   = "after_load"
)

// Coordinator drives field encryption for one persistence session. It owns
// the session's decoded registry, post-write queue and identity table and is
// not safe for concurrent use; create one per session and discard it with
// the session.
type Coordinator struct {
	enc     encryption.Encryptor
	cache   *FieldCache
	log     *logger.Logger
	metrics *observability.Metrics

	ids     *identities
	decoded *DecodedRegistry
	queue   *PostWriteQueue
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCache replaces the process-wide FieldCache.
func WithCache(cache *FieldCache) Option {
	return func(c *Coordinator) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l.WithComponent("fieldcrypt")
		}
	}
}

// WithMetrics enables OpenTelemetry metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a session coordinator around enc.
func NewCoordinator(enc encryption.Encryptor, opts ...Option) *Coordinator {
	c := &Coordinator{
		enc:     enc,
		cache:   DefaultCache(),
		log:     logger.NewNop(),
		ids:     newIdentities(),
		decoded: NewDecodedRegistry(),
		queue:   NewPostWriteQueue(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BeforeWrite encrypts the marked fields of objects in place, in order, and
// queues their plaintext for AfterWrite. The queue is reset first so each
// call starts a new write cycle. An object given twice is encrypted once.
//
// On error every object already encrypted in this cycle gets its plaintext
// back and the queue is emptied.
func (c *Coordinator) BeforeWrite(ctx context.Context, host Host, objects ...any) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanBeforeWrite)
	defer func() { c.finish(ctx, span, phaseBeforeWrite, start, err) }()
	observability.SetSpanAttribute(ctx, observability.AttrObjects, len(objects))

	c.queue.Reset()
	for _, obj := range objects {
		if err = c.encryptObject(ctx, host, obj); err != nil {
			c.rollback()
			return err
		}
	}
	if c.queue.Len() > 0 {
		c.log.Debug("write set encrypted", logger.Fields(logger.FieldObjects, c.queue.Len()))
	}
	return nil
}

func (c *Coordinator) encryptObject(ctx context.Context, host Host, obj any) error {
	typ, err := objectType(obj)
	if err != nil {
		return err
	}
	fields, err := c.cache.EncryptedFields(typ, host)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	id := c.ids.of(obj)
	if c.queue.Contains(id) {
		return nil
	}

	pending := &PendingRestoration{
		ID:     id,
		Object: obj,
		Type:   typ,
		Fields: make([]PendingField, 0, len(fields)),
	}
	ciphertexts := make([]any, len(fields))
	skipped := 0
	for i, d := range fields {
		v, null, err := d.read(obj)
		if err != nil {
			return apperrors.EncryptionFailed(typ.String(), d.Name, err)
		}
		pending.Fields = append(pending.Fields, PendingField{Descriptor: d, Plaintext: v})
		if null {
			if !d.Nullable {
				return apperrors.EncryptionFailed(typ.String(), d.Name, errNullValue)
			}
			skipped++
			continue
		}
		text, err := plaintextOf(v)
		if err != nil {
			return apperrors.EncryptionFailed(typ.String(), d.Name, err)
		}
		ct, err := c.enc.Encrypt(text)
		if err != nil {
			return apperrors.EncryptionFailed(typ.String(), d.Name, err)
		}
		ciphertexts[i] = d.stringValue(ct)
	}

	// Queued before mutation so a failure below is rolled back.
	c.queue.Push(pending)
	for i, d := range fields {
		if ciphertexts[i] == nil {
			continue
		}
		if err := d.Accessor.Set(obj, ciphertexts[i]); err != nil {
			return apperrors.EncryptionFailed(typ.String(), d.Name, err)
		}
	}
	if err := host.RecomputeChangeSet(typ, obj); err != nil {
		return err
	}

	c.metrics.RecordEncrypted(ctx, typ.String(), len(fields)-skipped)
	c.metrics.RecordSkipped(ctx, phaseBeforeWrite, typ.String(), skipped)
	c.log.Debug("fields encrypted", logger.ObjectFields(typ.String(), id.String(), len(fields)-skipped))
	return nil
}

// AfterWrite drains the post-write queue: plaintext goes back on every
// object, the change tracker records it as the clean value and the object is
// marked decoded. Every queued entry is processed even if some fail.
func (c *Coordinator) AfterWrite(ctx context.Context, host Host) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanAfterWrite)
	defer func() { c.finish(ctx, span, phaseAfterWrite, start, err) }()

	entries := c.queue.Drain()
	observability.SetSpanAttribute(ctx, observability.AttrObjects, len(entries))

	var errs []error
	for _, p := range entries {
		restored := true
		for _, f := range p.Fields {
			if err := f.Descriptor.Accessor.Set(p.Object, f.Plaintext); err != nil {
				errs = append(errs, apperrors.Internal(
					fmt.Errorf("restore %s.%s: %w", p.Type, f.Descriptor.Name, err)))
				restored = false
				continue
			}
			host.SetTrackedOriginalValue(p.ID, f.Descriptor.Name, f.Plaintext)
		}
		// An object still holding ciphertext must stay loadable.
		if restored {
			c.decoded.Add(p.ID)
		}
	}
	return errors.Join(errs...)
}

// Abort puts plaintext back on every queued object without touching the
// change tracker or the decoded registry, then empties the queue. Hosts call
// it instead of AfterWrite when the physical write failed.
func (c *Coordinator) Abort(ctx context.Context) {
	if n := c.queue.Len(); n > 0 {
		c.log.WithContext(ctx).Warn("write aborted, plaintext restored", logger.Fields(logger.FieldObjects, n))
	}
	c.rollback()
}

// AfterLoad decrypts the marked fields of a freshly loaded object in place.
// An object already decoded in this session is left alone. Every field is
// decrypted and coerced before any is written, so on error obj keeps the
// stored values.
func (c *Coordinator) AfterLoad(ctx context.Context, host Host, obj any) error {
	return c.afterLoad(ctx, host, obj, nil)
}

// AfterLoadFields is AfterLoad for an object that was only partly loaded.
// Marked fields for which loaded returns false are left as they are.
func (c *Coordinator) AfterLoadFields(ctx context.Context, host Host, obj any, loaded func(field string) bool) error {
	return c.afterLoad(ctx, host, obj, loaded)
}

func (c *Coordinator) afterLoad(ctx context.Context, host Host, obj any, loaded func(string) bool) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanAfterLoad)
	defer func() { c.finish(ctx, span, phaseAfterLoad, start, err) }()

	typ, err := objectType(obj)
	if err != nil {
		return err
	}
	observability.SetSpanAttribute(ctx, observability.AttrType, typ.String())

	id := c.ids.of(obj)
	if c.decoded.Has(id) {
		return nil
	}
	fields, err := c.cache.EncryptedFields(typ, host)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	stored := make([]any, len(fields))
	values := make([]any, len(fields))
	decoded := make([]bool, len(fields))
	skipped := 0
	for i, d := range fields {
		if loaded != nil && !loaded(d.Name) {
			skipped++
			continue
		}
		v, null, err := d.read(obj)
		if err != nil {
			return apperrors.DecryptionFailed(typ.String(), d.Name, err)
		}
		stored[i] = v
		if !null {
			null = d.loadedNull(v)
		}
		if null {
			if !d.Nullable {
				return apperrors.DecryptionFailed(typ.String(), d.Name, errNullValue)
			}
			skipped++
			continue
		}
		text, err := d.storedText(v)
		if err != nil {
			return apperrors.DecryptionFailed(typ.String(), d.Name, err)
		}
		plain, err := c.enc.Decrypt(text)
		if err != nil {
			return apperrors.DecryptionFailed(typ.String(), d.Name, err)
		}
		coerced, err := Coerce(d.Target, plain.Reveal())
		if err != nil {
			return apperrors.FieldCoercion(typ.String(), d.Name, string(d.Target), err)
		}
		values[i] = d.decodedValue(plain.Reveal(), coerced)
		decoded[i] = true
	}

	for i, d := range fields {
		if !decoded[i] {
			continue
		}
		if err := d.Accessor.Set(obj, values[i]); err != nil {
			for j := 0; j < i; j++ {
				if decoded[j] {
					_ = fields[j].Accessor.Set(obj, stored[j])
				}
			}
			return apperrors.DecryptionFailed(typ.String(), d.Name, err)
		}
	}
	for i, d := range fields {
		if decoded[i] {
			host.SetTrackedOriginalValue(id, d.Name, values[i])
		}
	}
	c.decoded.Add(id)

	c.metrics.RecordDecrypted(ctx, typ.String(), len(fields)-skipped)
	c.metrics.RecordSkipped(ctx, phaseAfterLoad, typ.String(), skipped)
	return nil
}

// Forget removes obj from the decoded registry so the next AfterLoad
// decrypts it again. Hosts call it before re-hydrating an existing instance
// from storage.
func (c *Coordinator) Forget(obj any) {
	if id, ok := c.ids.lookup(obj); ok {
		c.decoded.Remove(id)
	}
}

// Reset discards all session state: decoded registry, pending queue and
// identity table. Queued objects are not restored.
func (c *Coordinator) Reset() {
	c.queue.Reset()
	c.decoded.Clear()
	c.ids.reset()
}

// IdentityOf returns the session identity token of obj.
func (c *Coordinator) IdentityOf(obj any) (ObjectID, error) {
	if _, err := objectType(obj); err != nil {
		return ObjectID{}, err
	}
	return c.ids.of(obj), nil
}

// Descriptors returns the marked-field descriptors of obj's type.
func (c *Coordinator) Descriptors(schema MetadataProvider, obj any) ([]Descriptor, error) {
	typ, err := objectType(obj)
	if err != nil {
		return nil, err
	}
	return c.cache.EncryptedFields(typ, schema)
}

// Decoded reports whether obj currently holds decrypted plaintext.
func (c *Coordinator) Decoded(obj any) bool {
	id, ok := c.ids.lookup(obj)
	return ok && c.decoded.Has(id)
}

// Pending returns the number of objects awaiting AfterWrite.
func (c *Coordinator) Pending() int { return c.queue.Len() }

func (c *Coordinator) rollback() {
	for _, p := range c.queue.Drain() {
		for _, f := range p.Fields {
			_ = f.Descriptor.Accessor.Set(p.Object, f.Plaintext)
		}
	}
}

func (c *Coordinator) finish(ctx context.Context, span trace.Span, phase string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
		code := string(apperrors.ErrCodeInternal)
		if appErr, ok := apperrors.As(err); ok {
			code = string(appErr.Code)
		}
		c.metrics.RecordError(ctx, phase, code)
		c.log.WithContext(ctx).Warn("field encryption failed", logger.PhaseFields(phase, elapsed, err))
	}
	c.metrics.RecordCycle(ctx, phase, status, elapsed)
	observability.EndSpan(span, err)
}

func objectType(obj any) (reflect.Type, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, apperrors.Mapping(fmt.Sprintf("%T", obj), "expected a non-nil pointer to a struct")
	}
	return rv.Elem().Type(), nil
}
