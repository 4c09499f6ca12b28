package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const (
	// DefaultGraphQLEndpoint Zeabur 控制面 GraphQL 地址
	DefaultGraphQLEndpoint = "https://gateway.zeabur.com/graphql"

	// DefaultUploadEndpoint 代码上传服务地址
	DefaultUploadEndpoint = "https://gateway.zeabur.com"

	// DefaultDashboardURL 控制台地址
	DefaultDashboardURL = "https://dash.zeabur.com"

	// ConfigFileName 配置文件名
	ConfigFileName = ".zbdeploy.ini"
)

// Config 应用配置
type Config struct {
	// API 控制面配置
	API APIConfig

	// 日志配置
	Log LogConfig

	// 配置文件路径（凭据也保存在这里）
	ConfigPath string
}

// APIConfig 控制面相关配置
type APIConfig struct {
	// GraphQL 接口地址
	GraphQLEndpoint string

	// 上传接口根地址
	UploadEndpoint string

	// 控制台根地址
	DashboardURL string

	// 请求超时（秒），0 表示不设超时
	TimeoutSeconds int
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别：DEBUG, INFO, WARN, ERROR
	Level string

	// 是否启用控制台输出
	EnableConsole bool

	// 是否启用文件输出
	EnableFile bool

	// 日志目录
	LogDir string

	// 日志文件名（如果为空，则使用默认格式）
	LogFile string
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		API: APIConfig{
			GraphQLEndpoint: DefaultGraphQLEndpoint,
			UploadEndpoint:  DefaultUploadEndpoint,
			DashboardURL:    DefaultDashboardURL,
		},
		Log: LogConfig{
			Level:         "WARN",
			EnableConsole: true,
			EnableFile:    false,
			LogDir:        "logs",
		},
	}
}

// SearchPaths 返回配置文件的查找顺序：当前目录优先，其次是用户目录
func SearchPaths() []string {
	paths := []string{ConfigFileName}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".zbdeploy", ConfigFileName))
	}
	return paths
}

// LoadConfig 加载配置文件
func LoadConfig() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var configPath string
	paths := SearchPaths()
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}

	// 没有配置文件时，凭据写入用户目录
	if configPath == "" {
		configPath = paths[len(paths)-1]
		cfg := Default()
		cfg.ConfigPath = configPath
		applyEnv(cfg)
		return cfg, nil
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile 从指定的 ini 文件加载配置，缺省项使用默认值
func LoadFile(path string) (*Config, error) {
	cfgFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	config := Default()
	config.ConfigPath = path

	section := cfgFile.Section("api")
	if v := section.Key("graphql_endpoint").String(); v != "" {
		config.API.GraphQLEndpoint = v
	}
	if v := section.Key("upload_endpoint").String(); v != "" {
		config.API.UploadEndpoint = v
	}
	if v := section.Key("dashboard_url").String(); v != "" {
		config.API.DashboardURL = v
	}
	if v := section.Key("timeout").String(); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 0 {
			return nil, fmt.Errorf("无效的超时设置 timeout=%s", v)
		}
		config.API.TimeoutSeconds = seconds
	}

	section = cfgFile.Section("log")
	if level := section.Key("level").String(); level != "" {
		config.Log.Level = level
	}
	if enableConsole := section.Key("enable_console").String(); enableConsole != "" {
		config.Log.EnableConsole = parseBool(enableConsole)
	}
	if enableFile := section.Key("enable_file").String(); enableFile != "" {
		config.Log.EnableFile = parseBool(enableFile)
	}
	if logDir := section.Key("log_dir").String(); logDir != "" {
		config.Log.LogDir = logDir
	}
	if logFile := section.Key("log_file").String(); logFile != "" {
		config.Log.LogFile = logFile
	}

	return config, nil
}

// applyEnv 环境变量覆盖配置文件
func applyEnv(config *Config) {
	if v := os.Getenv("ZEABUR_GRAPHQL_ENDPOINT"); v != "" {
		config.API.GraphQLEndpoint = v
	}
	if v := os.Getenv("ZEABUR_UPLOAD_ENDPOINT"); v != "" {
		config.API.UploadEndpoint = v
	}
	if v := os.Getenv("ZEABUR_DASHBOARD_URL"); v != "" {
		config.API.DashboardURL = v
	}
	if v := os.Getenv("ZBDEPLOY_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}

// DashboardProjectURL 返回项目在控制台中的地址
func (c *Config) DashboardProjectURL(projectID string) string {
	return strings.TrimRight(c.API.DashboardURL, "/") + "/projects/" + projectID
}
