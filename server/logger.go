package server

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 全局 SugaredLogger，所有模块统一经它输出
// 包初始化先挂一个 no-op，保证测试里未调 InitLogger 也能安全打日志
var Log = zap.NewNop().Sugar()

// InitLogger 初始化 zap 日志到本地文件（带滚动）
// filePath 日志文件路径；level 形如 "debug"/"info"/"warn"，解析失败退回 info
func InitLogger(filePath, level string) error {
	// 滚动策略：10MB 每文件，保留 3 个备份，最多 7 天
	lj := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	}

	var lv zapcore.Level
	if err := lv.Set(level); err != nil {
		lv = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	// 控制台风格更易读；要接日志采集可换 zapcore.NewJSONEncoder(encCfg)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(lj), lv)

	Log = zap.New(core, zap.AddCaller()).Sugar()
	return nil
}

// SyncLogger 刷出缓冲，进程退出前调用
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
