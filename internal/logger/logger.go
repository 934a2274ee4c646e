package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志系统配置
type Config struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色输出、详细堆栈
	LogFile     string // 日志文件路径，为空则只输出到 stdout
	MaxSize     int    // 单个日志文件最大尺寸 (MB)
	MaxBackups  int    // 保留的旧日志文件数量
	MaxAge      int    // 旧日志文件保留天数
	Compress    bool   // 是否压缩旧日志文件
}

// NewLogger 按配置构建 zap 日志器。
//
// 开发模式输出彩色 console 编码到 stdout；
// 生产模式输出 JSON 编码，配置了 LogFile 时同时写入滚动文件。
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Development {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stdout),
			level,
		)
		return zap.New(core, zap.AddCaller(), zap.Development()), nil
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.LogFile != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    orDefault(cfg.MaxSize, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAge, 30),
			Compress:   cfg.Compress,
		}))
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(syncers...),
		level,
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// NewDevelopmentLogger 构建开发环境日志器，忽略错误方便测试使用。
func NewDevelopmentLogger() *zap.Logger {
	l, _ := NewLogger(Config{Level: "debug", Development: true})
	return l
}

// NewProductionLogger 构建生产环境日志器。
func NewProductionLogger(level, logFile string) (*zap.Logger, error) {
	return NewLogger(Config{
		Level:    level,
		LogFile:  logFile,
		Compress: true,
	})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
