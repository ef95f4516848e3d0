package gormcrypt

import (
	"context"
	"reflect"

	"gorm.io/gorm"

	"github.com/kbukum/fieldcrypt/encryption"
	apperrors "github.com/kbukum/fieldcrypt/errors"
	"github.com/kbukum/fieldcrypt/fieldcrypt"
	"github.com/kbukum/fieldcrypt/logger"
	"github.com/kbukum/fieldcrypt/observability"
)

// Name is the plugin name registered with GORM.
const Name = "fieldcrypt"

const (
	callbackBeforeCreate = "fieldcrypt:before_create"
	callbackAfterCreate  = "fieldcrypt:after_create"
	callbackBeforeUpdate = "fieldcrypt:before_update"
	callbackAfterUpdate  = "fieldcrypt:after_update"
	callbackBeforeQuery  = "fieldcrypt:before_query"
	callbackAfterQuery   = "fieldcrypt:after_query"

	writeStateKey = "fieldcrypt:write_state"
)

// Plugin installs field encryption into GORM's create, update and query
// callbacks.
//
//	plugin := gormcrypt.New(enc)
//	if err := db.Use(plugin); err != nil { ... }
//
//	session := plugin.NewSession()
//	defer session.Close()
//	tx := session.Bind(db)
//	tx.Create(&user)
//
// Operations on a handle without a bound Session get a fresh Session per
// statement.
type Plugin struct {
	enc          encryption.Encryptor
	schema       *Schema
	customSchema bool
	cache        *fieldcrypt.FieldCache
	log          *logger.Logger
	metrics      *observability.Metrics
}

var _ gorm.Plugin = (*Plugin)(nil)

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger used by the plugin and its sessions.
func WithLogger(l *logger.Logger) Option {
	return func(p *Plugin) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics enables OpenTelemetry metrics for every session.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Plugin) { p.metrics = m }
}

// WithCache replaces the process-wide descriptor cache.
func WithCache(c *fieldcrypt.FieldCache) Option {
	return func(p *Plugin) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithSchema replaces the schema provider. By default the plugin parses
// models with the naming strategy of the database it is installed on.
func WithSchema(s *Schema) Option {
	return func(p *Plugin) {
		if s != nil {
			p.schema = s
			p.customSchema = true
		}
	}
}

// New creates a plugin that encrypts with enc.
func New(enc encryption.Encryptor, opts ...Option) *Plugin {
	p := &Plugin{
		enc:    enc,
		schema: NewSchema(nil),
		cache:  fieldcrypt.DefaultCache(),
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements gorm.Plugin.
func (p *Plugin) Name() string { return Name }

// Initialize implements gorm.Plugin.
func (p *Plugin) Initialize(db *gorm.DB) error {
	if !p.customSchema && db.NamingStrategy != nil {
		p.schema.namer = db.NamingStrategy
	}

	create := db.Callback().Create()
	if err := create.After("gorm:save_before_associations").Before("gorm:create").
		Register(callbackBeforeCreate, p.beforeWrite(false)); err != nil {
		return err
	}
	if err := create.After("gorm:create").Before("gorm:save_after_associations").
		Register(callbackAfterCreate, p.afterWrite); err != nil {
		return err
	}

	update := db.Callback().Update()
	if err := update.After("gorm:save_before_associations").Before("gorm:update").
		Register(callbackBeforeUpdate, p.beforeWrite(true)); err != nil {
		return err
	}
	if err := update.After("gorm:update").Before("gorm:save_after_associations").
		Register(callbackAfterUpdate, p.afterWrite); err != nil {
		return err
	}

	query := db.Callback().Query()
	if err := query.Before("gorm:query").Register(callbackBeforeQuery, p.beforeQuery); err != nil {
		return err
	}
	if err := query.After("gorm:query").Before("gorm:preload").
		Register(callbackAfterQuery, p.afterQuery); err != nil {
		return err
	}

	p.log.Info("field encryption plugin installed", logger.Fields(logger.FieldComponent, Name))
	return nil
}

// NewSession starts a unit of work.
func (p *Plugin) NewSession() *Session {
	opts := []fieldcrypt.Option{
		fieldcrypt.WithCache(p.cache),
		fieldcrypt.WithLogger(p.log),
		fieldcrypt.WithMetrics(p.metrics),
	}
	return newSession(fieldcrypt.NewCoordinator(p.enc, opts...), p.schema)
}

// Schema returns the plugin's schema provider.
func (p *Plugin) Schema() *Schema { return p.schema }

// Decrypt decrypts dest in the Session bound to ctx, or in a fresh one. It
// is meant for results GORM scans without running query callbacks, such as
// Raw(...).Scan(&dest). Dest is a pointer to a struct or to a slice of
// structs or struct pointers.
func (p *Plugin) Decrypt(ctx context.Context, dest any) error {
	s := p.sessionFor(ctx)
	h := &statementHost{Schema: p.schema, session: s}
	rv := reflect.ValueOf(dest)
	objects, unaddressable := elements(reflect.Indirect(rv))
	if unaddressable {
		return apperrors.Mapping(structType(rv).String(), "encrypted models must be passed by pointer")
	}
	for _, obj := range objects {
		if err := s.coord.AfterLoad(ctx, h, obj); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plugin) sessionFor(ctx context.Context) *Session {
	if s, ok := SessionFromContext(ctx); ok {
		return s
	}
	return p.NewSession()
}

// marked returns the encrypted fields of typ. Errors are added to db.
func (p *Plugin) marked(db *gorm.DB, typ reflect.Type) ([]fieldcrypt.Descriptor, bool) {
	if typ == nil {
		return nil, false
	}
	fields, err := p.cache.EncryptedFields(typ, p.schema)
	if err != nil {
		db.AddError(err)
		return nil, false
	}
	return fields, len(fields) > 0
}

type writeState struct {
	session *Session
	host    *statementHost
}

func (p *Plugin) beforeWrite(update bool) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Error != nil || db.Statement.Schema == nil {
			return
		}
		fields, ok := p.marked(db, db.Statement.Schema.ModelType)
		if !ok {
			return
		}

		objects, maps, err := p.writeSet(db, fields, update)
		if err != nil {
			db.AddError(err)
			return
		}
		if len(objects) == 0 {
			return
		}

		ctx := db.Statement.Context
		s := p.sessionFor(ctx)
		h := &statementHost{Schema: p.schema, session: s, maps: maps}
		db.InstanceSet(writeStateKey, &writeState{session: s, host: h})

		if err := s.coord.BeforeWrite(ctx, h, objects...); err != nil {
			h.restoreMaps()
			db.AddError(err)
		}
	}
}

func (p *Plugin) afterWrite(db *gorm.DB) {
	v, ok := db.InstanceGet(writeStateKey)
	if !ok {
		return
	}
	st := v.(*writeState)
	defer st.host.restoreMaps()

	ctx := db.Statement.Context
	if db.Error != nil {
		st.session.coord.Abort(ctx)
		return
	}
	if err := st.session.coord.AfterWrite(ctx, st.host); err != nil {
		db.AddError(err)
	}
}

// beforeQuery forgets the objects a query is about to overwrite, including
// the spare capacity of a destination slice GORM may reuse.
func (p *Plugin) beforeQuery(db *gorm.DB) {
	if db.Error != nil {
		return
	}
	s, ok := SessionFromContext(db.Statement.Context)
	if !ok {
		return
	}
	rv := db.Statement.ReflectValue
	if _, ok := p.marked(db, structType(rv)); !ok {
		return
	}
	if rv.Kind() == reflect.Slice && rv.Cap() > rv.Len() {
		rv = rv.Slice(0, rv.Cap())
	}
	objects, _ := elements(rv)
	for _, obj := range objects {
		s.coord.Forget(obj)
	}
}

func (p *Plugin) afterQuery(db *gorm.DB) {
	if db.Error != nil || db.RowsAffected == 0 {
		return
	}
	if _, ok := p.marked(db, structType(db.Statement.ReflectValue)); !ok {
		return
	}
	objects, _ := elements(db.Statement.ReflectValue)
	if len(objects) == 0 {
		return
	}

	ctx := db.Statement.Context
	s := p.sessionFor(ctx)
	h := &statementHost{Schema: p.schema, session: s}
	loaded := selectedFields(db.Statement)
	for _, obj := range objects {
		if err := s.coord.AfterLoadFields(ctx, h, obj, loaded); err != nil {
			db.AddError(err)
			return
		}
	}
}

// selectedFields reports which fields a query read, following Select and
// Omit. It returns nil when every column was read.
func selectedFields(stmt *gorm.Statement) func(string) bool {
	if stmt.Schema == nil || (len(stmt.Selects) == 0 && len(stmt.Omits) == 0) {
		return nil
	}
	columns, restricted := stmt.SelectAndOmitColumns(false, false)
	return func(name string) bool {
		field := stmt.Schema.LookUpField(name)
		if field == nil || field.DBName == "" {
			return true
		}
		if v, ok := columns[field.DBName]; ok {
			return v
		}
		return !restricted
	}
}
