package application

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/matprops-go/internal/compute"
	"github.com/lk2023060901/matprops-go/internal/network/acceptor"
	"github.com/lk2023060901/matprops-go/internal/network/compressor"
	"github.com/lk2023060901/matprops-go/internal/network/framer"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	zlog "github.com/lk2023060901/matprops-go/pkg/log"
	"github.com/lk2023060901/matprops-go/pkg/metrics"
	"github.com/lk2023060901/matprops-go/pkg/util/hardware"
)

// hardwareRefreshInterval 为硬件指标的刷新周期。
const hardwareRefreshInterval = 30 * time.Second

// 默认 Registerer 在进程内只能注册一次。
var registerDefaultOnce sync.Once

// Application 是计算服务的运行时容器。
//
// 它负责加载配置、初始化日志与指标，并把计算路由挂载到 HTTP 接入层上。
type Application struct {
	configPath string
	address    string
	registry   *prometheus.Registry

	cfg        *Config
	loggers    map[string]*zlog.MLogger
	router     router.Router
	acceptor   *acceptor.HTTPAcceptor
	compressor *compressor.ZstdCompressor
}

// Option 用于定制 Application。
type Option func(*Application)

// WithConfigPath 指定配置文件路径，优先级高于环境变量与默认路径。
func WithConfigPath(path string) Option {
	return func(a *Application) { a.configPath = path }
}

// WithAddress 覆盖配置中的监听地址。
func WithAddress(addr string) Option {
	return func(a *Application) { a.address = addr }
}

// WithConfig 直接使用给定配置，跳过配置文件加载。
func WithConfig(cfg *Config) Option {
	return func(a *Application) { a.cfg = cfg }
}

// WithRegistry 使用独立的 Prometheus Registry，/metrics 也从它采集。
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *Application) { a.registry = reg }
}

// New creates a new Application instance.
func New(opts ...Option) *Application {
	a := &Application{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init 加载配置并装配全部组件，重复调用无副作用。
func (a *Application) Init() error {
	if a.acceptor != nil {
		return nil
	}
	if a.cfg == nil {
		cfg, err := LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.address != "" {
		a.cfg.Server.Address = a.address
	}

	if err := a.initLogging(); err != nil {
		return err
	}
	if zlog.GetLevel() > zapcore.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	if _, err := SemVersion(); err != nil {
		zlog.Warn("version is not a valid semver", zap.String("version", Version), zap.Error(err))
	}

	gatherer := a.initMetrics()
	native, err := a.cfg.NativeEndianness()
	if err != nil {
		return err
	}

	f := framer.NewBodyFramer(a.cfg.Server.ChunkSize)
	a.router = router.New(native, f, router.WithLogger(a.Logger("router")))
	if err := compute.Register(a.router); err != nil {
		return err
	}

	acfg := a.cfg.AcceptorConfig()
	acfg.Gatherer = gatherer
	if a.cfg.Server.CompressDocs {
		level, err := compressor.ParseLevel(a.cfg.Server.CompressLevel)
		if err != nil {
			return err
		}
		if a.compressor, err = compressor.NewZstdCompressor(compressor.WithLevel(level)); err != nil {
			return errors.Wrap(err, "init zstd compressor")
		}
		acfg.Compressor = a.compressor
	}
	acc, err := acceptor.NewHTTPAcceptor(a.router, f, acfg)
	if err != nil {
		return err
	}
	acc.SetLogger(a.Logger("acceptor"))
	a.acceptor = acc

	zlog.Info("application initialized",
		zap.String("version", Version),
		zap.Stringer("nativeEndianness", native),
		zap.Strings("messages", a.router.Names()),
		zap.String("overflowPolicy", a.cfg.Server.OverflowPolicy),
	)
	return nil
}

// Run 监听配置的地址并阻塞服务，直到 ctx 结束或服务出错。
func (a *Application) Run(ctx context.Context) error {
	if err := a.Init(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", a.cfg.Server.Address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", a.cfg.Server.Address)
	}
	return a.Serve(ctx, ln)
}

// Serve 在给定 listener 上运行服务，ctx 结束时优雅关闭。
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Init(); err != nil {
		return err
	}
	zlog.Info("serving", zap.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.acceptor.Serve(gctx, ln)
	})
	g.Go(func() error {
		a.refreshHardware(gctx)
		return nil
	})
	err := g.Wait()
	a.compressor.Close()
	_ = zlog.Sync()
	return err
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *Config {
	return a.cfg
}

// Router 返回已注册全部计算消息的路由表，Init 之前为 nil。
func (a *Application) Router() router.Router {
	return a.router
}

// Handler 返回 HTTP 处理器，Init 之前为 nil。
func (a *Application) Handler() http.Handler {
	if a.acceptor == nil {
		return nil
	}
	return a.acceptor.Handler()
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger tagged with the component name.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return zlog.With(zlog.FieldComponent(name))
}

// initMetrics 注册全部指标并返回 /metrics 使用的 Gatherer。
func (a *Application) initMetrics() prometheus.Gatherer {
	if a.registry != nil {
		metrics.Register(a.registry)
		return a.registry
	}
	registerDefaultOnce.Do(func() {
		metrics.Register(prometheus.DefaultRegisterer)
	})
	return prometheus.DefaultGatherer
}

func (a *Application) refreshHardware(ctx context.Context) {
	ticker := time.NewTicker(hardwareRefreshInterval)
	defer ticker.Stop()
	for {
		metrics.HardwareCPUNum.Set(float64(hardware.GetCPUNum()))
		metrics.HardwareMemoryBytes.Set(float64(hardware.GetMemoryCount()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := zlog.InitFromEnv(); err != nil {
		return errors.Wrap(err, "init global logger from env")
	}
	return a.initModuleLoggers()
}

// initModuleLoggers creates named loggers from the "logging" section.
//
// Example:
//
//	logging:
//	  compute:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootPath: ./logs
//	      filename: compute.log
func (a *Application) initModuleLoggers() error {
	if len(a.cfg.Logging) == 0 {
		return nil
	}
	a.loggers = make(map[string]*zlog.MLogger, len(a.cfg.Logging))
	for name, lc := range a.cfg.Logging {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		// InitLogger 的结果带包级函数的 CallerSkip，模块直接调用时需要抵消。
		a.loggers[name] = &zlog.MLogger{Logger: logger.WithOptions(zap.AddCallerSkip(-1)).Named(name)}
	}
	return nil
}
