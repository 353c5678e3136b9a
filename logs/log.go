package logs

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// 定义日志级别常量（数值越大，级别越高）
const (
	LevelTrace   = iota // 0（最低，最详细）
	LevelDebug          // 1
	LevelVerbose        // 2
	LevelInfo           // 3
	LevelWarning        // 4
	LevelError          // 5（最高，最严重）
)

var (
	mu       sync.RWMutex
	logLevel = LevelInfo // 全局日志级别
	base     = newBase(os.Stdout)
)

// NodeName 会出现在每一行日志的 node 字段里
var NodeName = "vaultd"

// Logger 可注入的日志接口，db / vm / handlers 通过它打日志
type Logger interface {
	Trace(format string, v ...interface{})
	Debug(format string, v ...interface{})
	Verbose(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.TraceLevel) // 过滤由 logLevel 决定
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	return l
}

// SetLevel 设置全局日志级别
func SetLevel(level int) {
	mu.Lock()
	defer mu.Unlock()
	logLevel = level
}

// GetLevel 返回当前全局日志级别
func GetLevel() int {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// ParseLevel 把配置里的字符串转成级别，未知字符串返回错误
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "verbose":
		return LevelVerbose, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level: %s", s)
}

// SetOutput 重定向日志输出（测试里用来捕获日志）
func SetOutput(out io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(out)
}

// nodeLogger 带模块名的 Logger 实现
type nodeLogger struct {
	entry *logrus.Entry
}

// NewNodeLogger 创建带模块名的 Logger
func NewNodeLogger(module string) Logger {
	return &nodeLogger{entry: base.WithField("module", module)}
}

func enabled(level int) bool {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel <= level
}

func (l *nodeLogger) Trace(format string, v ...interface{}) {
	if enabled(LevelTrace) {
		l.entry.WithField("node", NodeName).Tracef(format, v...)
	}
}

func (l *nodeLogger) Debug(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		l.entry.WithField("node", NodeName).Debugf(format, v...)
	}
}

// Verbose logrus 没有对应级别，落到 debug 上
func (l *nodeLogger) Verbose(format string, v ...interface{}) {
	if enabled(LevelVerbose) {
		l.entry.WithField("node", NodeName).Debugf(format, v...)
	}
}

func (l *nodeLogger) Info(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		l.entry.WithField("node", NodeName).Infof(format, v...)
	}
}

func (l *nodeLogger) Warn(format string, v ...interface{}) {
	if enabled(LevelWarning) {
		l.entry.WithField("node", NodeName).Warnf(format, v...)
	}
}

func (l *nodeLogger) Error(format string, v ...interface{}) {
	if enabled(LevelError) {
		l.entry.WithField("node", NodeName).Errorf(format, v...)
	}
}

// 包级别的日志方法
var global = &nodeLogger{entry: logrus.NewEntry(base)}

func Trace(format string, v ...interface{})   { global.Trace(format, v...) }
func Debug(format string, v ...interface{})   { global.Debug(format, v...) }
func Verbose(format string, v ...interface{}) { global.Verbose(format, v...) }
func Info(format string, v ...interface{})    { global.Info(format, v...) }
func Warn(format string, v ...interface{})    { global.Warn(format, v...) }
func Error(format string, v ...interface{})   { global.Error(format, v...) }
