// Package logger 客户端日志：标准 log 重定向到文件，界面运行时终端不能被日志打断
package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

const (
	// 默认目录 ~/.bop，可用 BOP_LOG_DIR 覆盖
	logDirName  = ".bop"
	logDirEnv   = "BOP_LOG_DIR"
	maxLogBytes = 10 * 1024 * 1024
)

var (
	logFile *os.File
	logPath string
)

// Init 把标准 log 输出到 <日志目录>/<name>.log
func Init(name string) error {
	dir, err := logDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	logPath = filepath.Join(dir, name+".log")
	rotate(logPath, maxLogBytes)

	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	LogInfo("日志文件: %s", logPath)
	return nil
}

func logDir() (string, error) {
	if dir := os.Getenv(logDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, logDirName), nil
}

// rotate 文件超过 limit 时改名为 <path>.<unix 时间>
func rotate(path string, limit int64) {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= limit {
		return
	}
	_ = os.Rename(path, fmt.Sprintf("%s.%d", path, time.Now().Unix()))
}

// Close 关闭日志文件
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func LogInfo(format string, args ...any) {
	log.Printf("[INFO] "+format, args...)
}

func LogError(format string, args ...any) {
	log.Printf("[ERROR] "+format, args...)
}

// LogPanic 记录 panic 与调用栈
func LogPanic(r any) {
	log.Printf("[PANIC] %v\n%s", r, debug.Stack())
}

// Recover 在协程顶部 defer 使用：defer logger.Recover("readPump")
func Recover(where string) {
	if r := recover(); r != nil {
		LogPanic(r)
		log.Printf("[PANIC] %s recovered: %v", where, r)
	}
}

// GetLogPath 当前日志文件路径
func GetLogPath() string {
	return logPath
}
