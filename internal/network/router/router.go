package router

import (
	"context"
	"encoding/hex"
	"io"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	network "github.com/lk2023060901/matprops-go/internal/network"
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/framer"
	"github.com/lk2023060901/matprops-go/internal/network/layout"
	"github.com/lk2023060901/matprops-go/pkg/log"
	"github.com/lk2023060901/matprops-go/pkg/metrics"
	"github.com/lk2023060901/matprops-go/pkg/util/funcutil"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
	"github.com/lk2023060901/matprops-go/pkg/util/typeutil"
)

// Handler 是业务层暴露给框架的计算函数签名。
//
// 说明：
//   - req ：已解码为本机字节序的请求记录，具体类型由 Route.NewRequest 决定；
//   - 返回：
//   - resp：响应记录，描述符必须与 Route 的响应描述符一致；
//   - err ：计算失败时的错误，通常为 merr 的计算类错误，此时不会构造 Parcel。
type Handler func(ctx context.Context, req codec.Record) (resp codec.Record, err error)

// Route 描述一条路由：请求记录类型 + 计算 Handler + 文档示例。
//
// 路由名取自请求描述符的名称。
type Route struct {
	// NewRequest 创建一个空的请求记录实例，每个请求调用一次。
	NewRequest func() codec.Record

	// Handler 为业务层实现的计算函数。
	Handler Handler

	// RequestExample / ResponseExample 返回一对互相对应的示例记录，
	// 用于格式文档，同时确定响应描述符。
	RequestExample  func() codec.Record
	ResponseExample func() codec.Record
}

// entry 为已注册的路由及其请求/响应描述符。
type entry struct {
	Route
	request  *layout.Descriptor
	response *layout.Descriptor
}

// Router 维护路由名到 Route 的映射，并负责从请求体到响应 Parcel 的完整调度流程。
//
// 典型调用链（服务器侧）：
//  1. Acceptor 根据 URL 得到路由名，调用 Router.Handle(ctx, name, body)；
//  2. Router 找到 Route，创建 Decoder，通过 Framer 分块读入请求体；
//  3. Decoder.Finish 校验长度与字节序标记并解码请求记录；
//  4. 调用业务 Handler 得到响应记录；
//  5. 以请求携带的字节序构造 Parcel 并返回，由 Acceptor 写回对端。
type Router interface {
	// Register 注册一条路由。路由名与内容类型都不允许重复。
	Register(route Route) error

	// Lookup 按路由名查找 Route。
	Lookup(name string) (Route, bool)

	// Names 返回按字典序排列的全部路由名。
	Names() []string

	// Handle 处理一次计算请求，返回的错误均带有 network.Stage 信息。
	Handle(ctx context.Context, name string, body io.Reader) (*codec.Parcel, error)

	// Formats 返回全部路由的格式文档，按路由名排序。
	Formats() []FormatDoc

	// Format 返回单个路由的格式文档。
	Format(name string) (FormatDoc, error)
}

// namePattern 为合法的消息名：小写字母开头的 snake_case。
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,127}$`)

// defaultRouter 是 Router 接口的基础实现。
type defaultRouter struct {
	log.Binder

	native endian.Tag
	framer framer.Framer

	mu           sync.RWMutex
	routes       map[string]entry
	contentTypes typeutil.Set[string]
}

// 编译期断言：确保 defaultRouter 实现了 Router 接口。
var _ Router = (*defaultRouter)(nil)

// Option 用于定制 Router。
type Option func(*defaultRouter)

// WithLogger 指定路由的模块 Logger。
// 请求上下文中没有 Logger 时（例如进程内直接调用 Handle），日志也写到这里。
func WithLogger(l *log.MLogger) Option {
	return func(r *defaultRouter) {
		if l != nil {
			r.SetLogger(l)
		}
	}
}

// New 创建 Router。native 为本进程的字节序，f 负责读取请求体。
func New(native endian.Tag, f framer.Framer, opts ...Option) Router {
	if f == nil {
		f = framer.NewBodyFramer(0)
	}
	r := &defaultRouter{
		native:       native,
		framer:       f,
		routes:       make(map[string]entry),
		contentTypes: typeutil.NewSet[string](),
	}
	r.BindComponent("router")
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register 实现 Router.Register。
func (r *defaultRouter) Register(route Route) error {
	if route.NewRequest == nil {
		return errors.New("router: NewRequest is nil")
	}
	if route.Handler == nil {
		return errors.New("router: Handler is nil")
	}
	if route.RequestExample == nil || route.ResponseExample == nil {
		return errors.New("router: examples are required")
	}

	req, resp := route.NewRequest(), route.ResponseExample()
	if err := codec.Validate(req); err != nil {
		return err
	}
	if err := codec.Validate(resp); err != nil {
		return err
	}
	if err := codec.Validate(route.RequestExample()); err != nil {
		return err
	}
	name := req.Descriptor().Name()
	switch {
	case req.Descriptor().Direction() != layout.Request:
		return errors.Newf("router: %s request descriptor is not a request", name)
	case resp.Descriptor().Direction() != layout.Response:
		return errors.Newf("router: %s response descriptor is not a response", name)
	case resp.Descriptor().Name() != name:
		return errors.Newf("router: %s response descriptor is named %s", name, resp.Descriptor().Name())
	case route.RequestExample().Descriptor() != req.Descriptor():
		return errors.Newf("router: %s request example has a different descriptor", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[name]; exists {
		return errors.Newf("router: %s already registered", name)
	}
	reqType, respType := req.Descriptor().ContentType(), resp.Descriptor().ContentType()
	if r.contentTypes.Contain(reqType) || r.contentTypes.Contain(respType) {
		return errors.Newf("router: content type of %s already registered", name)
	}
	r.contentTypes.Insert(reqType, respType)
	r.routes[name] = entry{Route: route, request: req.Descriptor(), response: resp.Descriptor()}
	r.Logger().Debug("message registered",
		log.FieldMessage(name),
		zap.Int("requestSize", req.Descriptor().Size()),
		zap.Int("responseSize", resp.Descriptor().Size()))
	return nil
}

// Lookup 实现 Router.Lookup。
func (r *defaultRouter) Lookup(name string) (Route, bool) {
	e, ok := r.lookup(name)
	return e.Route, ok
}

// resolve 按名称查找路由：名称格式非法返回 ErrParameterInvalid，未注册返回 ErrOperationNotSupported。
func (r *defaultRouter) resolve(name string) (entry, error) {
	if !namePattern.MatchString(name) {
		return entry{}, merr.WrapErrParameterInvalid(namePattern.String(), name, "malformed message name")
	}
	e, ok := r.lookup(name)
	if !ok {
		return entry{}, merr.WrapErrOperationNotSupported(name, "no such message")
	}
	return e, nil
}

// logger 优先使用请求上下文中的 Logger，否则使用路由的模块 Logger。
func (r *defaultRouter) logger(ctx context.Context) *log.MLogger {
	if ctx != nil {
		if l, ok := ctx.Value(log.CtxLogKey).(*log.MLogger); ok {
			return l
		}
	}
	return r.Logger()
}

func (r *defaultRouter) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.routes[name]
	return e, ok
}

// Names 实现 Router.Names。
func (r *defaultRouter) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.routes)
	slices.Sort(names)
	return names
}

// Handle 实现 Router.Handle。
func (r *defaultRouter) Handle(ctx context.Context, name string, body io.Reader) (parcel *codec.Parcel, err error) {
	start := time.Now()
	var stage network.Stage
	defer func() {
		if err == nil {
			metrics.ComputeRequestsTotal.WithLabelValues(name, metrics.SuccessLabel).Inc()
			metrics.ObserveLatency(name, start)
			return
		}
		err = network.WrapStage(stage, err)
		label := name
		if stage == network.StageRoute {
			// 未知路由名来自客户端输入，不作为标签值。
			label = "unknown"
		}
		metrics.ComputeRequestsTotal.WithLabelValues(label, metrics.FailLabel).Inc()
		metrics.ObserveProtocolError(label, string(stage), merr.Code(err))
		r.logger(ctx).Warn("compute request failed",
			log.FieldMessage(name),
			log.FieldStage(string(stage)),
			zap.Error(err))
	}()

	stage = network.StageRoute
	route, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	// 1. 分块读取请求体。
	stage = network.StageReceive
	req := route.NewRequest()
	dec := codec.NewDecoder(r.native, route.request)
	n, err := r.framer.ReadBody(body, dec)
	metrics.RecordBytes.WithLabelValues(name, metrics.RequestLabel).Add(float64(n))
	if err != nil {
		return nil, err
	}

	// 2. 解码。
	stage = network.StageDecode
	tag, err := dec.Finish(req)
	if err != nil {
		return nil, err
	}
	metrics.RequestEndiannessTotal.WithLabelValues(name, tag.String()).Inc()
	r.logger(ctx).Debug("request decoded", log.FieldMessage(name), log.FieldEndianness(tag.String()))

	// 3. 计算。
	stage = network.StageCompute
	if err := funcutil.CheckCtxValidWithCause(ctx); err != nil {
		return nil, err
	}
	resp, err := route.Handler(ctx, req)
	if err != nil {
		return nil, err
	}
	if lo.IsNil(resp) {
		return nil, merr.WrapErrServiceInternal("handler returned no response", name)
	}

	// 4. 以请求的字节序构造响应。
	stage = network.StageEncode
	if resp.Descriptor() != route.response {
		return nil, merr.WrapErrProtocolLayout(name, "handler returned "+resp.Descriptor().String())
	}
	parcel, err = codec.NewParcel(tag, r.native, resp)
	if err != nil {
		return nil, err
	}
	metrics.RecordBytes.WithLabelValues(name, metrics.ResponseLabel).Add(float64(parcel.DeclaredSize()))
	return parcel, nil
}

// FieldDoc 描述记录中的一个字段。
type FieldDoc struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset int    `json:"offset"`
}

// RecordDoc 描述一种记录的线上布局。
type RecordDoc struct {
	ContentType   string     `json:"contentType"`
	Size          int        `json:"size"`
	Format        string     `json:"format"`
	StructLittle  string     `json:"structLittle"`
	StructBig     string     `json:"structBig"`
	Fields        []FieldDoc `json:"fields"`
	ExampleLittle string     `json:"exampleLittle"`
	ExampleBig    string     `json:"exampleBig"`
	// ExampleValues 可能含 NaN，不参与 JSON 序列化。
	ExampleValues []float64 `json:"-"`
}

// FormatDoc 为一条路由的完整格式文档，供 /api/formats 与 CLI 使用。
type FormatDoc struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Request  RecordDoc `json:"request"`
	Response RecordDoc `json:"response"`
}

// Formats 实现 Router.Formats。
func (r *defaultRouter) Formats() []FormatDoc {
	return lo.Map(r.Names(), func(name string, _ int) FormatDoc {
		doc, _ := r.Format(name)
		return doc
	})
}

// Format 实现 Router.Format。
func (r *defaultRouter) Format(name string) (FormatDoc, error) {
	route, err := r.resolve(name)
	if err != nil {
		return FormatDoc{}, err
	}

	reqExample, respExample := route.RequestExample(), route.ResponseExample()
	doc := FormatDoc{
		Name:     name,
		Path:     "/compute/" + name,
		Request:  recordDoc(route.request, reqExample),
		Response: recordDoc(route.response, respExample),
	}
	for _, tag := range []endian.Tag{endian.Little, endian.Big} {
		reqBytes, err := codec.EncodeRequest(tag, r.native, reqExample)
		if err != nil {
			return FormatDoc{}, err
		}
		parcel, err := codec.NewParcel(tag, r.native, respExample)
		if err != nil {
			return FormatDoc{}, err
		}
		respBytes, _ := parcel.NextChunk()
		if tag == endian.Little {
			doc.Request.ExampleLittle, doc.Response.ExampleLittle = hex.EncodeToString(reqBytes), hex.EncodeToString(respBytes)
		} else {
			doc.Request.ExampleBig, doc.Response.ExampleBig = hex.EncodeToString(reqBytes), hex.EncodeToString(respBytes)
		}
	}
	return doc, nil
}

func recordDoc(desc *layout.Descriptor, example codec.Record) RecordDoc {
	fields := desc.Fields()
	return RecordDoc{
		ContentType:   desc.ContentType(),
		Size:          desc.Size(),
		Format:        desc.FormatString(),
		StructLittle:  desc.StructFormat(endian.Little),
		StructBig:     desc.StructFormat(endian.Big),
		ExampleValues: codec.Values(example),
		Fields: lo.Map(fields, func(f layout.Field, i int) FieldDoc {
			return FieldDoc{Name: f.Name, Type: f.Kind.String(), Offset: desc.Offset(i)}
		}),
	}
}
